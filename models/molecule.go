package models

// MoleculeData ist eine Zeile der Zusatztabelle molecule_data (eine pro Paket).
type MoleculeData struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	PackageID  string `json:"package_id" gorm:"column:package_id;uniqueIndex;not null"`
	InChIJSON  string `json:"inchi_json" gorm:"column:inchi_json"`
	Smiles     string `json:"smiles" gorm:"column:smiles"`
	InChIKey   string `json:"inchi_key" gorm:"column:inchi_key;index"`
	ExactMass  string `json:"exact_mass" gorm:"column:exact_mass"`
	MolFormula string `json:"mol_formula" gorm:"column:mol_formula"`
}

// TableName gibt explizit den Tabellennamen an.
func (MoleculeData) TableName() string {
	return "molecule_data"
}

// RelatedResource verknüpft ein Paket mit einem alternativen Namen.
type RelatedResource struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	PackageID     string `json:"package_id" gorm:"column:package_id;index:idx_related_resources_pair,unique;not null"`
	AlternateName string `json:"alternate_name" gorm:"column:alternate_name;index:idx_related_resources_pair,unique"`
}

// TableName gibt explizit den Tabellennamen an.
func (RelatedResource) TableName() string {
	return "related_resources"
}

// ChemicalEntity ist die aus dem Datensatz extrahierte chemische Entität.
// Sie wird nicht persistiert, sondern nur zwischen Import und Zusatzdatenbank weitergereicht.
type ChemicalEntity struct {
	Name             string   `json:"name,omitempty"`
	URL              string   `json:"url,omitempty"`
	Format           string   `json:"format,omitempty"`
	InChI            string   `json:"inChI"`
	InChIKey         string   `json:"inChIKey"`
	Smiles           string   `json:"smiles"`
	MolecularFormula string   `json:"molecularFormula"`
	AlternateNames   []string `json:"alternateName,omitempty"`
	// Vom Quellsystem gelieferte monoisotopische Masse, Fallback für exact_mass.
	MonoisotopicMass string `json:"monoisotopicMolecularWeight,omitempty"`
}
