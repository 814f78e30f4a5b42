// Package app verdrahtet Konfiguration, Datenbanken und Harvester für Server und CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"massbank-harvester/auxstore"
	"massbank-harvester/catalog"
	"massbank-harvester/config"
	"massbank-harvester/events"
	"massbank-harvester/models"
	"massbank-harvester/providers"
	"massbank-harvester/providers/oaipmh"
	"massbank-harvester/services"
	"massbank-harvester/storage"
)

// ErrAlreadyRunning wird zurückgegeben, wenn für die Quelle bereits ein Lauf aktiv ist.
var ErrAlreadyRunning = errors.New("harvest already running for source")

// App bündelt alle Komponenten eines Prozesses.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *gorm.DB
	Harvest   *storage.HarvestStore
	Catalog   *catalog.Store
	Aux       *auxstore.Writer
	Images    *storage.ImageStore
	Harvester *services.Harvester

	notifier *events.Notifier
	running  sync.Map
}

// New öffnet die Katalogdatenbank und baut den Harvester. reg darf nil sein; dann werden
// keine Metriken erfasst.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*App, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Successfully connected to catalog database.")

	a := &App{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Harvest: storage.NewHarvestStore(db, log),
		Catalog: catalog.New(db, log),
		Aux:     auxstore.New(cfg.AuxDSN(), log),
		Images:  storage.NewImageStore(cfg.ImageDir, log),
	}

	if cfg.S3Enabled() {
		client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("S3 client creation failed: %w", err)
		}
		a.Images.WithS3(client, cfg.S3URL, cfg.S3Bucket)
		log.Info("S3-Spiegel für Molekülbilder aktiv", zap.String("bucket", cfg.S3Bucket))
	}

	registry := oaipmh.NewRegistry()
	clients := providers.NewOAIClientFactory(registry, cfg.OAIMaxRetries, log)
	a.Harvester = services.NewHarvester(a.Harvest, a.Catalog, a.Aux, a.Images, clients, log)
	if reg != nil {
		a.Harvester.Metrics = services.NewMetrics(reg)
	}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		a.notifier = events.NewNotifier(brokers, cfg.KafkaTopic, log)
		a.Harvester.Notifier = a.notifier
		log.Info("Kafka-Events aktiv", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}
	return a, nil
}

// Migrate legt alle Tabellen in Katalog- und Zusatzdatenbank an.
func (a *App) Migrate() error {
	a.Logger.Info("Running database auto-migration...")
	if err := a.Harvest.Migrate(); err != nil {
		return fmt.Errorf("migrate harvest tables: %w", err)
	}
	if err := a.Catalog.Migrate(); err != nil {
		return fmt.Errorf("migrate catalog tables: %w", err)
	}
	if err := a.Aux.Migrate(); err != nil {
		return fmt.Errorf("migrate auxiliary tables: %w", err)
	}
	return nil
}

// RunSource startet einen Lauf, sofern für die Quelle keiner aktiv ist.
func (a *App) RunSource(ctx context.Context, sourceID string) (*models.HarvestJob, error) {
	if _, busy := a.running.LoadOrStore(sourceID, struct{}{}); busy {
		return nil, ErrAlreadyRunning
	}
	defer a.running.Delete(sourceID)
	return a.Harvester.RunSource(ctx, sourceID)
}

// StartSource reserviert die Quelle und führt den Lauf im Hintergrund aus.
func (a *App) StartSource(sourceID string) error {
	if _, busy := a.running.LoadOrStore(sourceID, struct{}{}); busy {
		return ErrAlreadyRunning
	}
	go func() {
		defer a.running.Delete(sourceID)
		job, err := a.Harvester.RunSource(context.Background(), sourceID)
		if err != nil {
			a.Logger.Error("Harvest-Lauf fehlgeschlagen", zap.String("source_id", sourceID), zap.Error(err))
			return
		}
		a.Logger.Info("Harvest-Lauf abgeschlossen", zap.String("job_id", job.ID), zap.Int("imported", job.Imported))
	}()
	return nil
}

// RunAll führt nacheinander einen Lauf für jede aktive Quelle aus.
func (a *App) RunAll(ctx context.Context) (int, error) {
	sources, err := a.Harvest.ListSources(ctx, true)
	if err != nil {
		return 0, err
	}
	imported := 0
	for _, src := range sources {
		if ctx.Err() != nil {
			return imported, ctx.Err()
		}
		job, err := a.RunSource(ctx, src.ID)
		if err != nil {
			a.Logger.Error("Harvest-Lauf fehlgeschlagen", zap.String("source_id", src.ID), zap.Error(err))
		}
		if job != nil {
			imported += job.Imported
		}
	}
	return imported, nil
}

// Close schließt Datenbank und Event-Writer.
func (a *App) Close() {
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.Logger.Warn("Kafka-Writer konnte nicht geschlossen werden", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
