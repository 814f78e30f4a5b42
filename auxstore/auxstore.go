// Package auxstore schreibt chemische Fakten in die Zusatzdatenbank (molecule_data,
// related_resources). Jeder Schreibvorgang öffnet eine eigene Verbindung.
package auxstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"massbank-harvester/models"
)

// Writer ist die Postgres-Implementierung von services.AuxWriter.
type Writer struct {
	DSN    string
	Logger *zap.Logger
}

// New erstellt einen Writer für die Zusatzdatenbank.
func New(dsn string, log *zap.Logger) *Writer {
	return &Writer{DSN: dsn, Logger: log}
}

func (w *Writer) open() (*gorm.DB, func(), error) {
	db, err := gorm.Open(postgres.Open(w.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect auxiliary database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return db, func() { sqlDB.Close() }, nil
}

// Migrate legt molecule_data und related_resources an.
func (w *Writer) Migrate() error {
	db, closeDB, err := w.open()
	if err != nil {
		return err
	}
	defer closeDB()
	return db.AutoMigrate(&models.MoleculeData{}, &models.RelatedResource{})
}

// WriteMolecule legt die Zeile in molecule_data an, falls es für das Paket noch keine gibt,
// und ergänzt fehlende Paare (Paket, alternativer Name) in related_resources.
// Bestehende Zeilen werden nicht verändert. Jede Anweisung läuft im Autocommit; bei einem
// Fehler bleiben bereits geschriebene Zeilen bestehen und ein erneuter Aufruf ergänzt den Rest.
func (w *Writer) WriteMolecule(ctx context.Context, fact models.MoleculeData, alternateNames []string) error {
	db, closeDB, err := w.open()
	if err != nil {
		return err
	}
	defer closeDB()
	db = db.WithContext(ctx)

	created, err := insertMolecule(db, fact)
	if err != nil {
		return err
	}
	if created {
		w.Logger.Debug("molecule_data angelegt", zap.String("package_id", fact.PackageID))
	}
	added := 0
	for _, name := range alternateNames {
		ok, err := insertRelated(db, fact.PackageID, name)
		if err != nil {
			return err
		}
		if ok {
			added++
		}
	}
	if added > 0 {
		w.Logger.Debug("related_resources ergänzt", zap.String("package_id", fact.PackageID), zap.Int("count", added))
	}
	return nil
}

func insertMolecule(tx *gorm.DB, fact models.MoleculeData) (bool, error) {
	var existing models.MoleculeData
	err := tx.Where("package_id = ?", fact.PackageID).First(&existing).Error
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("select molecule_data: %w", err)
	}
	fact.ID = 0
	if err := tx.Create(&fact).Error; err != nil {
		return false, fmt.Errorf("insert molecule_data: %w", err)
	}
	return true, nil
}

func insertRelated(tx *gorm.DB, packageID, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	var count int64
	if err := tx.Model(&models.RelatedResource{}).
		Where("package_id = ? AND alternate_name = ?", packageID, name).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("select related_resources: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if err := tx.Create(&models.RelatedResource{PackageID: packageID, AlternateName: name}).Error; err != nil {
		return false, fmt.Errorf("insert related_resources: %w", err)
	}
	return true, nil
}
