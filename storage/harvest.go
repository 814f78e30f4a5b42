package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"massbank-harvester/models"
	"massbank-harvester/services"
)

// ErrNotFound wird zurückgegeben, wenn Quelle, Job oder Objekt nicht existieren.
var ErrNotFound = errors.New("not found")

// HarvestStore ist die gorm-Implementierung von services.HarvestStore.
type HarvestStore struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

var _ services.HarvestStore = (*HarvestStore)(nil)

// NewHarvestStore erstellt einen neuen HarvestStore.
func NewHarvestStore(db *gorm.DB, logger *zap.Logger) *HarvestStore {
	return &HarvestStore{DB: db, Logger: logger}
}

// Migrate legt die Harvest-Tabellen an.
func (s *HarvestStore) Migrate() error {
	return s.DB.AutoMigrate(
		&models.HarvestSource{},
		&models.HarvestJob{},
		&models.HarvestObject{},
		&models.HarvestObjectError{},
		&models.HarvestGatherError{},
	)
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

func (s *HarvestStore) GetSource(ctx context.Context, id string) (*models.HarvestSource, error) {
	var src models.HarvestSource
	if err := s.DB.WithContext(ctx).First(&src, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "source", id)
	}
	return &src, nil
}

// CreateSource legt eine Quelle an. Ohne ID wird eine UUID vergeben.
func (s *HarvestStore) CreateSource(ctx context.Context, src *models.HarvestSource) error {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	src.Active = true
	return s.DB.WithContext(ctx).Create(src).Error
}

// ListSources gibt alle Quellen zurück, optional nur die aktiven.
func (s *HarvestStore) ListSources(ctx context.Context, activeOnly bool) ([]models.HarvestSource, error) {
	var sources []models.HarvestSource
	query := s.DB.WithContext(ctx).Order("created_at")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *HarvestStore) CreateJob(ctx context.Context, sourceID string) (*models.HarvestJob, error) {
	job := &models.HarvestJob{ID: uuid.NewString(), SourceID: sourceID, Status: models.JobStatusNew}
	if err := s.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (s *HarvestStore) UpdateJob(ctx context.Context, job *models.HarvestJob) error {
	return s.DB.WithContext(ctx).Save(job).Error
}

// GetJob gibt einen Job zurück.
func (s *HarvestStore) GetJob(ctx context.Context, id string) (*models.HarvestJob, error) {
	var job models.HarvestJob
	if err := s.DB.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "job", id)
	}
	return &job, nil
}

// ListJobs gibt die letzten Jobs einer Quelle zurück, neueste zuerst.
func (s *HarvestStore) ListJobs(ctx context.Context, sourceID string, limit int) ([]models.HarvestJob, error) {
	var jobs []models.HarvestJob
	err := s.DB.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (s *HarvestStore) CreateObjects(ctx context.Context, objs []*models.HarvestObject) error {
	if len(objs) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(objs, 500).Error
	})
}

func (s *HarvestStore) GetObject(ctx context.Context, id string) (*models.HarvestObject, error) {
	var obj models.HarvestObject
	if err := s.DB.WithContext(ctx).First(&obj, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "harvest object", id)
	}
	return &obj, nil
}

func (s *HarvestStore) SaveObjectContent(ctx context.Context, id, content string, fetchedAt time.Time) error {
	res := s.DB.WithContext(ctx).Model(&models.HarvestObject{}).Where("id = ?", id).Updates(map[string]any{
		"content":    content,
		"state":      models.ObjectStateFetched,
		"fetched_at": fetchedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("harvest object %s: %w", id, ErrNotFound)
	}
	return nil
}

// MarkImported setzt das Objekt auf imported und macht es zum aktuellen Objekt seiner GUID.
func (s *HarvestStore) MarkImported(ctx context.Context, id, packageID string, importedAt time.Time) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var obj models.HarvestObject
		if err := tx.First(&obj, "id = ?", id).Error; err != nil {
			return notFound(err, "harvest object", id)
		}
		if err := tx.Model(&models.HarvestObject{}).
			Where("guid = ? AND source_id = ? AND id <> ?", obj.GUID, obj.SourceID, obj.ID).
			Update("current", false).Error; err != nil {
			return err
		}
		return tx.Model(&obj).Updates(map[string]any{
			"state":       models.ObjectStateImported,
			"package_id":  packageID,
			"current":     true,
			"imported_at": importedAt,
		}).Error
	})
}

func (s *HarvestStore) SaveObjectError(ctx context.Context, objectID, stage string, kind services.ErrorKind, message string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.HarvestObjectError{
			HarvestObjectID: objectID,
			Stage:           stage,
			Kind:            string(kind),
			Message:         message,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.HarvestObject{}).Where("id = ?", objectID).
			Update("state", models.ObjectStateErrored).Error
	})
}

func (s *HarvestStore) SaveGatherError(ctx context.Context, jobID, message string) error {
	return s.DB.WithContext(ctx).Create(&models.HarvestGatherError{JobID: jobID, Message: message}).Error
}

// JobErrors sammelt Gather- und Objektfehler eines Jobs.
type JobErrors struct {
	Gather  []models.HarvestGatherError `json:"gather"`
	Objects []models.HarvestObjectError `json:"objects"`
}

// JobErrors gibt alle Fehler eines Jobs zurück.
func (s *HarvestStore) JobErrors(ctx context.Context, jobID string) (*JobErrors, error) {
	out := &JobErrors{}
	db := s.DB.WithContext(ctx)
	if err := db.Where("job_id = ?", jobID).Order("id").Find(&out.Gather).Error; err != nil {
		return nil, err
	}
	err := db.Model(&models.HarvestObjectError{}).
		Joins("JOIN harvest_objects ON harvest_objects.id = harvest_object_errors.harvest_object_id").
		Where("harvest_objects.job_id = ?", jobID).
		Order("harvest_object_errors.id").
		Find(&out.Objects).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ObjectStateCounts zählt die Objekte eines Jobs pro Zustand.
func (s *HarvestStore) ObjectStateCounts(ctx context.Context, jobID string) (map[string]int64, error) {
	var rows []struct {
		State string
		Count int64
	}
	err := s.DB.WithContext(ctx).Model(&models.HarvestObject{}).
		Select("state, count(*) as count").
		Where("job_id = ?", jobID).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.State] = r.Count
	}
	return counts, nil
}
