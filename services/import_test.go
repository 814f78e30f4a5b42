package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"massbank-harvester/models"
)

const ethanolKey = "LFQSCWFLJHTTHZ-UHFFFAOYSA-N"

func extraKeys(extras []models.Extra) []string {
	keys := make([]string, 0, len(extras))
	for _, e := range extras {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestImportStudyRecord(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.fetchedObject(t, "obj-1", "MSBNK-Test-TE000001", studyPayload)

	require.NoError(t, env.h.Import(context.Background(), "obj-1"))

	name := MungeTitleToName("MSBNK-Test-TE000001")
	draft := env.catalog.drafts[name]
	require.NotNil(t, draft)

	assert.Equal(t, name, draft.ID)
	assert.Equal(t, "Ethanol; LC-ESI-QTOF; MS2", draft.Title)
	assert.Equal(t, "Mass spectrum of ethanol", draft.Notes)
	assert.Equal(t, "MassBank", draft.Maintainer)
	assert.Equal(t, "https://massbank.eu/MassBank/RecordDisplay?id=MSBNK-Test-TE000001", draft.URL)
	assert.Equal(t, "Alice, Bob, Carol", draft.Author)
	assert.Equal(t, "nfdi4chem", draft.OwnerOrg)
	assert.Equal(t, "2024-01-01T10:00:00", draft.MetadataModified)

	assert.Equal(t, []string{"inchi", "inchi_key", "smiles", "mol_formula", "exactmass", "datePublished"}, extraKeys(draft.Extras))
	exact, _ := draft.Extra("exactmass")
	assert.Equal(t, "46.041865", exact)
	published, _ := draft.Extra("datePublished")
	assert.Equal(t, "2024-01-01T10:00:00", published)
	formula, _ := draft.Extra("mol_formula")
	assert.Equal(t, "C2H6O", formula)

	require.Len(t, draft.Resources, 1)
	assert.Equal(t, "Ethanol", draft.Resources[0].Name)
	assert.Equal(t, "HTML", draft.Resources[0].Format)
	assert.Equal(t, "https://pubchem.ncbi.nlm.nih.gov/compound/702", draft.Resources[0].URL)

	assert.Equal(t, []models.Tag{{Name: "mass-spectrometry"}}, draft.Tags)
	assert.Equal(t, []models.Group{{Name: "massbank", Title: "massbank"}}, draft.Groups)

	_, err := os.Stat(filepath.Join(env.images.dir, ethanolKey+".png"))
	assert.NoError(t, err)

	fact := env.aux.molecules[name]
	assert.Equal(t, `"InChI=1S/C2H6O/c1-2-3/h3H,2H2,1H3"`, fact.InChIJSON)
	assert.Equal(t, ethanolKey, fact.InChIKey)
	assert.Equal(t, "CCO", fact.Smiles)
	assert.Equal(t, "46.041865", fact.ExactMass)
	assert.Len(t, env.aux.related, 2)
	assert.True(t, env.aux.related[[2]string{name, "Ethyl alcohol"}])

	obj, _ := env.store.GetObject(context.Background(), "obj-1")
	assert.Equal(t, models.ObjectStateImported, obj.State)
	require.NotNil(t, obj.PackageID)
	assert.Equal(t, name, *obj.PackageID)
	assert.True(t, obj.Current)
}

func TestImportIsIdempotent(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.fetchedObject(t, "obj-1", "MSBNK-Test-TE000001", studyPayload)
	env.fetchedObject(t, "obj-2", "MSBNK-Test-TE000001", studyPayload)

	require.NoError(t, env.h.Import(context.Background(), "obj-1"))
	require.NoError(t, env.h.Import(context.Background(), "obj-2"))

	assert.Len(t, env.catalog.packages, 1)
	assert.Len(t, env.aux.molecules, 1)
	assert.Len(t, env.aux.related, 2)
	assert.Equal(t, 1, env.images.renders)

	first, _ := env.store.GetObject(context.Background(), "obj-1")
	second, _ := env.store.GetObject(context.Background(), "obj-2")
	assert.False(t, first.Current)
	assert.True(t, second.Current)
}

func TestImportWithoutValidInChI(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	payload := strings.Replace(studyPayload, "InChI=1S/C2H6O/c1-2-3/h3H,2H2,1H3", "ethanol", 1)
	env.fetchedObject(t, "obj-1", "MSBNK-Test-TE000001", payload)

	require.NoError(t, env.h.Import(context.Background(), "obj-1"))

	name := MungeTitleToName("MSBNK-Test-TE000001")
	draft := env.catalog.drafts[name]
	assert.Equal(t, []string{"inchi", "inchi_key", "smiles", "mol_formula", "datePublished"}, extraKeys(draft.Extras))
	assert.Equal(t, 0, env.images.renders)
	assert.Equal(t, "46.0419", env.aux.molecules[name].ExactMass)
}

const noEntityPayload = `{"name": "Blank run", "measurementTechnique": "Mass Spectrometry"}`

func TestImportMissingEntityStrict(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.fetchedObject(t, "obj-1", "MSBNK-Blank", noEntityPayload)

	err := env.h.Import(context.Background(), "obj-1")
	assert.ErrorIs(t, err, ErrNoChemicalEntity)
	assert.Equal(t, KindMapping, KindOf(err))
	assert.Equal(t, 0, env.catalog.saves)

	require.Len(t, env.store.objectErrors, 1)
	assert.Equal(t, StageImport, env.store.objectErrors[0].Stage)
	assert.True(t, strings.HasPrefix(env.store.objectErrors[0].Message, "Exception in import stage for MSBNK-Blank"))
}

func TestImportMissingEntityLenient(t *testing.T) {
	env := newTestEnv(t, `{"lenient_entities": true}`)
	env.fetchedObject(t, "obj-1", "MSBNK-Blank", noEntityPayload)

	require.NoError(t, env.h.Import(context.Background(), "obj-1"))

	draft := env.catalog.drafts[MungeTitleToName("MSBNK-Blank")]
	require.NotNil(t, draft)
	assert.Empty(t, draft.Extras)
	assert.Empty(t, draft.Resources)
	assert.Equal(t, 0, env.aux.writes)
}

func TestImportOwnerOrgFromCatalog(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.catalog.packages[testSourceID] = &models.Package{ID: testSourceID, OwnerOrg: "chemotion"}
	env.fetchedObject(t, "obj-1", "MSBNK-Test-TE000001", studyPayload)

	require.NoError(t, env.h.Import(context.Background(), "obj-1"))
	assert.Equal(t, "chemotion", env.catalog.drafts[MungeTitleToName("MSBNK-Test-TE000001")].OwnerOrg)
}

func TestImportCatalogFailureSkipsAuxStore(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	env.catalog.failSave = errors.New("constraint violation")
	env.fetchedObject(t, "obj-1", "MSBNK-Test-TE000001", studyPayload)

	err := env.h.Import(context.Background(), "obj-1")
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Equal(t, 0, env.aux.writes)

	obj, _ := env.store.GetObject(context.Background(), "obj-1")
	assert.Equal(t, models.ObjectStateErrored, obj.State)
	assert.Nil(t, obj.PackageID)
}

func TestImportWithoutContent(t *testing.T) {
	env := newTestEnv(t, windowConfig)
	createdObject(env, "obj-1", "MSBNK-1")

	err := env.h.Import(context.Background(), "obj-1")
	assert.ErrorIs(t, err, ErrNoContent)
	require.Len(t, env.store.objectErrors, 1)
	assert.Equal(t, "No content for MSBNK-1", env.store.objectErrors[0].Message)
}

func TestNaiveISODate(t *testing.T) {
	tests := map[string]string{
		"2024-01-01T10:00:00+02:00": "2024-01-01T10:00:00",
		"2024-01-01":                "2024-01-01T00:00:00",
		"2024-01-01T10:00:00.5Z":    "2024-01-01T10:00:00.500000",
	}
	for in, want := range tests {
		got, err := NaiveISODate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NaiveISODate("not a date")
	assert.Error(t, err)
}
