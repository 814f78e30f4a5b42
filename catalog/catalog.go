// Package catalog speichert die importierten Katalogeinträge (Pakete, Gruppen, Suchindex)
// in PostgreSQL.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"massbank-harvester/models"
)

// ErrNotFound wird von ShowPackage zurückgegeben, wenn kein Paket existiert.
var ErrNotFound = errors.New("package not found")

// Store ist der gorm-basierte Katalog.
type Store struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Now    func() time.Time
}

// New erstellt einen neuen Katalog-Store.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{DB: db, Logger: logger, Now: time.Now}
}

// Migrate legt die Katalogtabellen an.
func (s *Store) Migrate() error {
	return s.DB.AutoMigrate(&models.Package{}, &models.Group{}, &models.PackageSearchDocument{})
}

// ShowPackage gibt ein Paket anhand seiner ID oder seines Namens zurück.
func (s *Store) ShowPackage(ctx context.Context, id string) (*models.Package, error) {
	var pkg models.Package
	err := s.DB.WithContext(ctx).Where("id = ? OR name = ?", id, id).First(&pkg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ListPackages gibt Pakete einer Organisation zurück, neueste Änderung zuerst.
func (s *Store) ListPackages(ctx context.Context, ownerOrg string, limit, offset int) ([]models.Package, int64, error) {
	var (
		pkgs  []models.Package
		total int64
	)
	query := s.DB.WithContext(ctx).Model(&models.Package{})
	if ownerOrg != "" {
		query = query.Where("owner_org = ?", ownerOrg)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&pkgs).Error; err != nil {
		return nil, 0, err
	}
	return pkgs, total, nil
}

// SavePackage legt das Paket an oder aktualisiert es. Gruppen, Paket und Suchindex werden
// in einer Transaktion geschrieben.
func (s *Store) SavePackage(ctx context.Context, draft *models.PackageDraft) (*models.Package, error) {
	var pkg *models.Package
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups, err := FindOrCreateGroups(tx, draft.Groups)
		if err != nil {
			return fmt.Errorf("groups: %w", err)
		}

		pkg, err = toPackage(draft, groups)
		if err != nil {
			return err
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "title", "url", "notes", "author", "maintainer", "owner_org",
				"metadata_modified", "resources", "extras", "tags", "groups", "updated_at",
			}),
		}).Create(pkg).Error
		if err != nil {
			return fmt.Errorf("upsert package %s: %w", pkg.ID, err)
		}

		doc := models.PackageSearchDocument{
			PackageID: pkg.ID,
			Name:      pkg.Name,
			Text:      SearchText(draft),
			IndexedAt: s.now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "package_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "text", "indexed_at"}),
		}).Create(&doc).Error
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Debug("Paket gespeichert", zap.String("package_id", pkg.ID), zap.Int("extras", len(draft.Extras)))
	return pkg, nil
}

// FindOrCreateGroups löst Gruppen über ihren Namen auf und legt fehlende an.
func FindOrCreateGroups(tx *gorm.DB, wanted []models.Group) ([]models.Group, error) {
	out := make([]models.Group, 0, len(wanted))
	for _, w := range wanted {
		if w.Name == "" {
			continue
		}
		var g models.Group
		err := tx.Where("name = ?", w.Name).First(&g).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			g = models.Group{ID: w.Name, Name: w.Name, Title: w.Title}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&g).Error; err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func toPackage(draft *models.PackageDraft, groups []models.Group) (*models.Package, error) {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	resources, err := jsonColumn(draft.Resources, []models.Resource{})
	if err != nil {
		return nil, err
	}
	extras, err := jsonColumn(draft.Extras, []models.Extra{})
	if err != nil {
		return nil, err
	}
	tags, err := jsonColumn(draft.Tags, []models.Tag{})
	if err != nil {
		return nil, err
	}
	groupCol, err := jsonColumn(names, []string{})
	if err != nil {
		return nil, err
	}
	return &models.Package{
		ID:               draft.ID,
		Name:             draft.Name,
		Title:            draft.Title,
		URL:              draft.URL,
		Notes:            draft.Notes,
		Author:           draft.Author,
		Maintainer:       draft.Maintainer,
		OwnerOrg:         draft.OwnerOrg,
		MetadataModified: draft.MetadataModified,
		Resources:        resources,
		Extras:           extras,
		Tags:             tags,
		Groups:           groupCol,
	}, nil
}

// jsonColumn serialisiert v, leere Listen als [] statt null.
func jsonColumn[T any](v []T, empty []T) (datatypes.JSON, error) {
	if v == nil {
		v = empty
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// SearchText bildet den Volltext eines Pakets für den Suchindex.
func SearchText(draft *models.PackageDraft) string {
	parts := []string{draft.Name, draft.Title, draft.Notes, draft.Author}
	for _, t := range draft.Tags {
		parts = append(parts, t.Name)
	}
	for _, e := range draft.Extras {
		parts = append(parts, e.Value)
	}
	for _, g := range draft.Groups {
		parts = append(parts, g.Title)
	}
	var b strings.Builder
	for _, p := range parts {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Extras dekodiert die Extras eines gespeicherten Pakets.
func Extras(pkg *models.Package) ([]models.Extra, error) {
	var extras []models.Extra
	if len(pkg.Extras) == 0 {
		return extras, nil
	}
	err := json.Unmarshal(pkg.Extras, &extras)
	return extras, err
}
