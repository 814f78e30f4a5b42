package models

import (
	"time"
)

// Zustände eines HarvestObjects.
const (
	ObjectStateCreated  = "created"
	ObjectStateFetched  = "fetched"
	ObjectStateImported = "imported"
	ObjectStateErrored  = "errored"
)

// Zustände eines HarvestJobs.
const (
	JobStatusNew      = "New"
	JobStatusRunning  = "Running"
	JobStatusFinished = "Finished"
)

// HarvestSource beschreibt einen entfernten OAI-PMH-Endpunkt samt JSON-Konfiguration.
type HarvestSource struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	URL      string `json:"url" gorm:"not null"`
	Title    string `json:"title"`
	Config   string `json:"config" gorm:"type:text"` // JSON-Blob, siehe services.ParseSourceConfig
	OwnerOrg string `json:"owner_org" gorm:"index"`
	Active   bool   `json:"active" gorm:"default:true"`
}

// TableName gibt explizit den Tabellennamen an.
func (HarvestSource) TableName() string {
	return "harvest_sources"
}

// HarvestJob ist ein einzelner Lauf der Pipeline gegen eine HarvestSource.
type HarvestJob struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SourceID string `json:"source_id" gorm:"index;not null"`
	Status   string `json:"status" gorm:"index;default:'New'"`

	GatherStarted  *time.Time `json:"gather_started,omitempty"`
	GatherFinished *time.Time `json:"gather_finished,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`

	// Zähler für Operatoren
	Gathered int `json:"gathered"`
	Imported int `json:"imported"`
	Errored  int `json:"errored"`
}

// TableName gibt explizit den Tabellennamen an.
func (HarvestJob) TableName() string {
	return "harvest_jobs"
}

// HarvestObject ist die zentrale, veränderliche Einheit eines Harvest-Laufs.
type HarvestObject struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GUID     string `json:"guid" gorm:"index;not null"`
	JobID    string `json:"job_id" gorm:"index;not null"`
	SourceID string `json:"source_id" gorm:"index"`

	Content   *string `json:"content,omitempty" gorm:"type:text"`
	State     string  `json:"state" gorm:"index;default:'created'"`
	PackageID *string `json:"package_id,omitempty" gorm:"index"`
	Current   bool    `json:"current" gorm:"default:false"`

	FetchedAt  *time.Time `json:"fetched_at,omitempty"`
	ImportedAt *time.Time `json:"imported_at,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (HarvestObject) TableName() string {
	return "harvest_objects"
}

// HarvestObjectError speichert einen Fehler auf Ebene einer einzelnen Einheit.
type HarvestObjectError struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	CreatedAt       time.Time `json:"created_at"`
	HarvestObjectID string    `json:"harvest_object_id" gorm:"index;not null"`
	Stage           string    `json:"stage" gorm:"index"` // Fetch, Import
	Kind            string    `json:"kind"`
	Message         string    `json:"message" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (HarvestObjectError) TableName() string {
	return "harvest_object_errors"
}

// HarvestGatherError speichert einen Fehler auf Ebene der Quelle (Gather-Stage).
type HarvestGatherError struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	JobID     string    `json:"job_id" gorm:"index;not null"`
	Message   string    `json:"message" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (HarvestGatherError) TableName() string {
	return "harvest_gather_errors"
}
