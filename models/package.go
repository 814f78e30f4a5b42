package models

import (
	"time"

	"gorm.io/datatypes"
)

// Resource ist eine Ressource eines Katalogeintrags.
type Resource struct {
	Name         string `json:"name"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	URL          string `json:"url"`
}

// Extra ist ein freies Schlüssel/Wert-Paar eines Katalogeintrags.
type Extra struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tag ist ein normalisiertes Schlagwort.
type Tag struct {
	Name string `json:"name"`
}

// Package ist ein Katalogeintrag, der aus einem HarvestObject entsteht.
type Package struct {
	ID        string    `json:"id" gorm:"primaryKey;size:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Notes      string `json:"notes" gorm:"type:text"`
	Author     string `json:"author"`
	Maintainer string `json:"maintainer"`
	OwnerOrg   string `json:"owner_org" gorm:"index"`

	MetadataModified string `json:"metadata_modified,omitempty"`

	Resources datatypes.JSON `json:"resources" gorm:"type:jsonb"`
	Extras    datatypes.JSON `json:"extras" gorm:"type:jsonb"`
	Tags      datatypes.JSON `json:"tags" gorm:"type:jsonb"`
	Groups    datatypes.JSON `json:"groups" gorm:"type:jsonb"`
}

// TableName gibt explizit den Tabellennamen an.
func (Package) TableName() string {
	return "packages"
}

// Group ist eine Gruppe (Projekt) im Katalog, z.B. aus einem OAI-Set.
type Group struct {
	ID        string    `json:"id" gorm:"primaryKey;size:100"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Title     string    `json:"title"`
}

// TableName gibt explizit den Tabellennamen an.
func (Group) TableName() string {
	return "groups"
}

// PackageSearchDocument ist der Suchindex-Eintrag eines Pakets.
type PackageSearchDocument struct {
	PackageID string    `json:"package_id" gorm:"primaryKey;size:100"`
	Name      string    `json:"name" gorm:"index"`
	Text      string    `json:"text" gorm:"type:text"`
	IndexedAt time.Time `json:"indexed_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (PackageSearchDocument) TableName() string {
	return "package_search_index"
}

// PackageDraft ist der im Import gemappte, noch nicht gespeicherte Katalogeintrag.
type PackageDraft struct {
	ID               string
	Name             string
	Title            string
	URL              string
	Notes            string
	Author           string
	Maintainer       string
	OwnerOrg         string
	MetadataModified string
	Resources        []Resource
	Extras           []Extra
	Tags             []Tag

	// Gruppen mit Name und Titel; ID und CreatedAt vergibt der Katalog.
	Groups []Group
}

// Extra gibt den Wert eines Extras zurück.
func (d *PackageDraft) Extra(key string) (string, bool) {
	for _, e := range d.Extras {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}
