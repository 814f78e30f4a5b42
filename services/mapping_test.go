package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, s string) Record {
	t.Helper()
	rec, err := DecodeRecord(s)
	require.NoError(t, err)
	return rec
}

func TestStudySchema(t *testing.T) {
	rec := mustRecord(t, studyPayload)
	m := MapperFor(SchemaStudy)

	assert.Equal(t, SchemaStudy, m.Name())
	assert.Equal(t, "Ethanol; LC-ESI-QTOF; MS2", m.ExtractTitle(rec))
	assert.Equal(t, "Alice, Bob, Carol", m.ExtractAuthor(rec))
	assert.Equal(t, []string{"Mass Spectrometry"}, m.ExtractTags(rec))
	assert.Equal(t, []string{"Ethyl alcohol", "Alcohol"}, m.ExtractAlternateNames(rec))

	ent, err := m.ExtractStructureEntity(rec)
	require.NoError(t, err)
	assert.Equal(t, "InChI=1S/C2H6O/c1-2-3/h3H,2H2,1H3", ent.InChI)
	assert.Equal(t, "LFQSCWFLJHTTHZ-UHFFFAOYSA-N", ent.InChIKey)
	assert.Equal(t, "CCO", ent.Smiles)
	assert.Equal(t, "C2H6O", ent.MolecularFormula)
	assert.Equal(t, "46.0419", ent.MonoisotopicMass)
	assert.Equal(t, "https://pubchem.ncbi.nlm.nih.gov/compound/702", ent.URL)
}

func TestStudySchemaWithoutEntity(t *testing.T) {
	m := MapperFor(SchemaStudy)
	for _, in := range []string{`{"name":"x"}`, `{"about":[]}`, `{"about":["not an object"]}`} {
		_, err := m.ExtractStructureEntity(mustRecord(t, in))
		assert.True(t, errors.Is(err, ErrNoChemicalEntity), in)
	}
	assert.Nil(t, m.ExtractAlternateNames(mustRecord(t, `{"about":[]}`)))
}

func TestMassBankSchema(t *testing.T) {
	rec := mustRecord(t, `{
		"title": "Caffeine; 1H NMR; 400 MHz",
		"inChI": "InChI=1S/C8H10N4O2/c1-10-4-9-6-5(10)7(13)12(3)8(14)11(6)2/h4H,1-3H3",
		"inchikey": "RYYVLZVUVIJVGH-UHFFFAOYSA-N",
		"smiles": "CN1C=NC2=C1C(=O)N(C(=O)N2C)C",
		"molecularFormula": "C8H10N4O2",
		"monoisotopicMolecularWeight": 194.080376,
		"alternateName": "Coffeine",
		"creator": ["Dana", "Eve"]
	}`)
	m := MapperFor(SchemaMassBank)

	assert.Equal(t, "Caffeine; 1H NMR; 400 MHz", m.ExtractTitle(rec))
	assert.Equal(t, "Dana, Eve", m.ExtractAuthor(rec))
	assert.Equal(t, []string{"1H-NMR"}, m.ExtractTags(rec))
	assert.Equal(t, []string{"Coffeine"}, m.ExtractAlternateNames(rec))

	ent, err := m.ExtractStructureEntity(rec)
	require.NoError(t, err)
	assert.Equal(t, "RYYVLZVUVIJVGH-UHFFFAOYSA-N", ent.InChIKey)
	assert.Equal(t, "194.080376", ent.MonoisotopicMass)

	_, err = m.ExtractStructureEntity(mustRecord(t, `{"title":"nothing"}`))
	assert.True(t, errors.Is(err, ErrNoChemicalEntity))
}

func TestClassifyTitle(t *testing.T) {
	tests := map[string]string{
		"Caffeine; LC-ESI-QTOF; Mass spectrum": "mass-spectrometry",
		"tandem mass":                          "mass-spectrometry",
		"Caffeine; 1H NMR":                     "1H-NMR",
		"Caffeine; 13C NMR":                    "13C-NMR",
		"Caffeine; FT-IR":                      "IR",
		"Caffeine; UV-VIS":                     "UV",
		"Caffeine":                             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, classifyTitle(in), in)
	}
}

func TestRecordAccessors(t *testing.T) {
	rec := mustRecord(t, `{"s":"x","l":["a","b"],"o":{"name":"n"},"n":1.5,"e":[],"mixed":["a",{"name":"b"},["c"]]}`)

	v, ok := rec.String("s")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	v, _ = rec.String("l")
	assert.Equal(t, "a", v)
	v, _ = rec.String("o")
	assert.Equal(t, "n", v)
	v, _ = rec.String("n")
	assert.Equal(t, "1.5", v)
	_, ok = rec.String("e")
	assert.False(t, ok)
	_, ok = rec.String("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b", "c"}, rec.Strings("mixed"))
	assert.Nil(t, rec.Strings("missing"))
}
