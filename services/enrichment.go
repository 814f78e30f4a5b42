package services

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"massbank-harvester/chem"
	"massbank-harvester/models"
)

// Enrichment ist das Ergebnis der chemischen Anreicherung einer Entität.
type Enrichment struct {
	Extras []models.Extra
	// ExactMass ist leer, wenn kein gültiges InChI vorlag.
	ExactMass string
	ImagePath string
}

// Enrich erzeugt die Basis-Extras (inchi, inchi_key, smiles, mol_formula) unverändert aus
// der Entität. Bei einem gültigen InChI kommen die exakte Masse und ein Strukturbild hinzu.
// Fehler beim Parsen oder Rendern werden nur geloggt.
func (h *Harvester) Enrich(ctx context.Context, guid string, ent models.ChemicalEntity) Enrichment {
	log := h.Logger.With(zap.String("guid", guid), zap.String("inchi_key", ent.InChIKey))

	out := Enrichment{Extras: []models.Extra{
		{Key: "inchi", Value: ent.InChI},
		{Key: "inchi_key", Value: ent.InChIKey},
		{Key: "smiles", Value: ent.Smiles},
		{Key: "mol_formula", Value: ent.MolecularFormula},
	}}

	if !chem.IsInChI(ent.InChI) {
		log.Debug("Kein Standard-InChI, überspringe Masse und Bild")
		return out
	}

	mol, err := chem.ParseInChI(ent.InChI)
	if err != nil {
		log.Warn("InChI konnte nicht geparst werden", zap.Error(err))
		return out
	}
	out.ExactMass = strconv.FormatFloat(mol.ExactMass(), 'f', 6, 64)
	out.Extras = append(out.Extras, models.Extra{Key: "exactmass", Value: out.ExactMass})

	if ent.InChIKey == "" {
		log.Warn("Kein InChIKey, kein Bild")
		return out
	}
	path, created, err := h.Images.Ensure(ctx, ent.InChIKey, func(path string) error {
		return h.Depicter.RenderFile(mol, path)
	})
	switch {
	case err != nil:
		log.Error("Strukturbild konnte nicht erzeugt werden", zap.Error(err))
	case created:
		h.Metrics.rendered()
		log.Debug("Strukturbild erzeugt", zap.String("path", path))
		out.ImagePath = path
	default:
		log.Debug("Strukturbild existiert bereits, überspringe", zap.String("path", path))
		out.ImagePath = path
	}
	return out
}
