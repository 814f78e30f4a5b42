package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"massbank-harvester/chem"
	"massbank-harvester/models"
	"massbank-harvester/providers"
)

// HarvestStore persistiert Quellen, Jobs, Objekte und deren Fehler.
type HarvestStore interface {
	GetSource(ctx context.Context, id string) (*models.HarvestSource, error)
	CreateJob(ctx context.Context, sourceID string) (*models.HarvestJob, error)
	UpdateJob(ctx context.Context, job *models.HarvestJob) error
	// CreateObjects legt alle Objekte eines Gather-Laufs an oder keines.
	CreateObjects(ctx context.Context, objs []*models.HarvestObject) error
	GetObject(ctx context.Context, id string) (*models.HarvestObject, error)
	SaveObjectContent(ctx context.Context, id, content string, fetchedAt time.Time) error
	MarkImported(ctx context.Context, id, packageID string, importedAt time.Time) error
	SaveObjectError(ctx context.Context, objectID, stage string, kind ErrorKind, message string) error
	SaveGatherError(ctx context.Context, jobID, message string) error
}

// Catalog ist der Katalog, in den importiert wird.
type Catalog interface {
	// ShowPackage gibt catalog.ErrNotFound zurück, wenn es kein Paket mit id gibt.
	ShowPackage(ctx context.Context, id string) (*models.Package, error)
	// SavePackage legt das Paket an oder aktualisiert es, inklusive Gruppen und Suchindex,
	// in einer Transaktion.
	SavePackage(ctx context.Context, draft *models.PackageDraft) (*models.Package, error)
}

// AuxWriter schreibt chemische Fakten und alternative Namen in die Zusatzdatenbank.
type AuxWriter interface {
	WriteMolecule(ctx context.Context, fact models.MoleculeData, alternateNames []string) error
}

// ImageStore legt Strukturbilder inhaltsadressiert ab.
type ImageStore interface {
	Ensure(ctx context.Context, inchiKey string, render func(path string) error) (path string, created bool, err error)
}

// Notifier meldet erfolgreich importierte Pakete an nachgelagerte Systeme.
type Notifier interface {
	NotifyImported(ctx context.Context, packageID, guid, sourceID string) error
}

// Harvester führt die drei Stufen Gather, Fetch und Import aus.
type Harvester struct {
	Store     HarvestStore
	Catalog   Catalog
	Aux       AuxWriter
	Images    ImageStore
	NewClient providers.ClientFactory
	Depicter  *chem.Depicter
	Logger    *zap.Logger

	// Optional.
	Notifier Notifier
	Metrics  *Metrics
	Now      func() time.Time
}

// NewHarvester erstellt einen Harvester mit Standard-Depicter und Systemuhr.
func NewHarvester(store HarvestStore, catalog Catalog, aux AuxWriter, images ImageStore, clients providers.ClientFactory, logger *zap.Logger) *Harvester {
	return &Harvester{
		Store:     store,
		Catalog:   catalog,
		Aux:       aux,
		Images:    images,
		NewClient: clients,
		Depicter:  chem.NewDepicter(),
		Logger:    logger,
		Now:       time.Now,
	}
}

func (h *Harvester) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Harvester) sourceConfig(src *models.HarvestSource) SourceConfig {
	return ParseSourceConfig(src.Config, h.now(), h.Logger.With(zap.String("source_id", src.ID)))
}

// recordObjectError speichert einen Fehler am Objekt und gibt den StageError zurück.
func (h *Harvester) recordObjectError(ctx context.Context, obj *models.HarvestObject, stage string, kind ErrorKind, message string, cause error) error {
	h.Metrics.errored(stage)
	if err := h.Store.SaveObjectError(ctx, obj.ID, stage, kind, message); err != nil {
		h.Logger.Error("Konnte Objektfehler nicht speichern",
			zap.String("object_id", obj.ID), zap.String("stage", stage), zap.Error(err))
	}
	return &StageError{Stage: stage, Kind: kind, GUID: obj.GUID, Err: cause}
}
