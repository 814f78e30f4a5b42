package services

import (
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"

	"massbank-harvester/models"
)

// SchemaMapper kapselt die quellspezifische Struktur eines kanonischen Datensatzes.
type SchemaMapper interface {
	Name() string
	ExtractTitle(rec Record) string
	// ExtractStructureEntity gibt ErrNoChemicalEntity zurück, wenn keine Entität vorhanden ist.
	ExtractStructureEntity(rec Record) (models.ChemicalEntity, error)
	ExtractAuthor(rec Record) string
	ExtractTags(rec Record) []string
	ExtractAlternateNames(rec Record) []string
}

// MapperFor wählt die Strategie für ein Schema; unbekannte Schemata fallen auf study zurück.
func MapperFor(schema string) SchemaMapper {
	if schema == SchemaMassBank {
		return massbankSchema{}
	}
	return studySchema{}
}

// studySchema: Bioschemas-Study mit about[] (chemische Entitäten), isPartOf.citation und
// measurementTechnique.
type studySchema struct{}

func (studySchema) Name() string { return SchemaStudy }

func (studySchema) ExtractTitle(rec Record) string {
	title, _ := rec.String("name")
	return title
}

func (studySchema) ExtractStructureEntity(rec Record) (models.ChemicalEntity, error) {
	switch about := rec["about"].(type) {
	case []any:
		if len(about) > 0 {
			if m, ok := about[0].(map[string]any); ok {
				return entityFromMap(m), nil
			}
		}
	case map[string]any:
		return entityFromMap(about), nil
	}
	return models.ChemicalEntity{}, ErrNoChemicalEntity
}

func (studySchema) ExtractAuthor(rec Record) string {
	var authors []string
	for _, part := range objects(rec["isPartOf"]) {
		for _, citation := range objects(part["citation"]) {
			authors = append(authors, names(citation["author"])...)
		}
	}
	return strings.Join(authors, ", ")
}

func (studySchema) ExtractTags(rec Record) []string {
	return rec.Strings("measurementTechnique")
}

func (s studySchema) ExtractAlternateNames(rec Record) []string {
	ent, err := s.ExtractStructureEntity(rec)
	if err != nil {
		return nil
	}
	return ent.AlternateNames
}

// massbankSchema: flacher MassBank-Datensatz, die Entität ist der Datensatz selbst.
type massbankSchema struct{}

func (massbankSchema) Name() string { return SchemaMassBank }

func (massbankSchema) ExtractTitle(rec Record) string {
	if title, ok := rec.String("name"); ok && title != "" {
		return title
	}
	title, _ := rec.String("title")
	return title
}

func (massbankSchema) ExtractStructureEntity(rec Record) (models.ChemicalEntity, error) {
	ent := entityFromMap(rec)
	if ent.InChI == "" && ent.InChIKey == "" && ent.Smiles == "" {
		return models.ChemicalEntity{}, ErrNoChemicalEntity
	}
	return ent, nil
}

func (massbankSchema) ExtractAuthor(rec Record) string {
	if creators := names(rec["creator"]); len(creators) > 0 {
		return strings.Join(creators, ", ")
	}
	return strings.Join(names(rec["author"]), ", ")
}

func (m massbankSchema) ExtractTags(rec Record) []string {
	if tags := rec.Strings("measurementTechnique"); len(tags) > 0 {
		return tags
	}
	title, _ := rec.String("title")
	if title == "" {
		title = m.ExtractTitle(rec)
	}
	if tag := classifyTitle(title); tag != "" {
		return []string{tag}
	}
	return nil
}

func (massbankSchema) ExtractAlternateNames(rec Record) []string {
	return rec.Strings("alternateName")
}

// classifyTitle leitet die Messtechnik aus dem Titel eines MassBank-Datensatzes ab.
func classifyTitle(title string) string {
	switch {
	case strings.Contains(title, "Mass"), strings.Contains(title, "mass"):
		return "mass-spectrometry"
	case strings.Contains(title, "1H NMR"):
		return "1H-NMR"
	case strings.Contains(title, "13C NMR"):
		return "13C-NMR"
	case strings.Contains(title, "IR"):
		return "IR"
	case strings.Contains(title, "UV"):
		return "UV"
	}
	return ""
}

func entityFromMap(m map[string]any) models.ChemicalEntity {
	r := Record(m)
	ent := models.ChemicalEntity{
		AlternateNames: r.Strings("alternateName"),
	}
	ent.Name, _ = r.String("name")
	ent.URL, _ = r.String("url")
	ent.Format, _ = r.String("format")
	ent.InChI, _ = r.String("inChI")
	ent.InChIKey = r.first("inChIKey", "inchikey", "inchiKey")
	ent.Smiles, _ = r.String("smiles")
	ent.MolecularFormula, _ = r.String("molecularFormula")
	ent.MonoisotopicMass, _ = r.String("monoisotopicMolecularWeight")
	return ent
}

// String gibt einen Wert als Text zurück: Listen liefern ihr erstes Element, Objekte
// ihr "name"-Feld.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	return scalar(v)
}

// Strings gibt einen Wert als Liste zurück; ein einzelner Wert wird zur Liste mit einem Element.
func (r Record) Strings(key string) []string {
	return names(r[key])
}

func (r Record) first(keys ...string) string {
	for _, k := range keys {
		if s, ok := r.String(k); ok && s != "" {
			return s
		}
	}
	return ""
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool, float64:
		return fmt.Sprint(t), true
	case []any:
		if len(t) == 0 {
			return "", false
		}
		return scalar(t[0])
	case map[string]any:
		if name, ok := t["name"]; ok {
			return scalar(name)
		}
	}
	return "", false
}

// names sammelt Texte aus einem String, einem Objekt mit "name" oder einer Liste davon.
func names(v any) []string {
	var out []string
	switch t := v.(type) {
	case nil:
	case []any:
		for _, item := range t {
			out = append(out, names(item)...)
		}
	default:
		if s, ok := scalar(t); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func objects(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		var out []map[string]any
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}
