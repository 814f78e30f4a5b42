package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"massbank-harvester/models"
)

// RunSource führt einen vollständigen Lauf gegen eine Quelle aus: Job anlegen, Gather,
// danach pro Objekt Fetch und Import, nacheinander. Fehler einzelner Objekte beenden den
// Lauf nicht; der Job wird mit Zählern abgeschlossen.
func (h *Harvester) RunSource(ctx context.Context, sourceID string) (*models.HarvestJob, error) {
	job, err := h.Store.CreateJob(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("create job for source %s: %w", sourceID, err)
	}
	log := h.Logger.With(zap.String("job_id", job.ID), zap.String("source_id", sourceID))

	started := h.now()
	job.Status = models.JobStatusRunning
	job.GatherStarted = &started
	if err := h.Store.UpdateJob(ctx, job); err != nil {
		return job, fmt.Errorf("start job %s: %w", job.ID, err)
	}

	ids, gatherErr := h.Gather(ctx, job)
	gatherFinished := h.now()
	job.GatherFinished = &gatherFinished
	job.Gathered = len(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			log.Warn("Lauf abgebrochen", zap.Error(ctx.Err()))
			break
		}
		if err := h.Fetch(ctx, id); err != nil {
			log.Debug("Fetch fehlgeschlagen", zap.String("object_id", id), zap.Error(err))
			job.Errored++
			continue
		}
		if err := h.Import(ctx, id); err != nil {
			log.Debug("Import fehlgeschlagen", zap.String("object_id", id), zap.Error(err))
			job.Errored++
			continue
		}
		job.Imported++
	}

	finished := h.now()
	job.Status = models.JobStatusFinished
	job.FinishedAt = &finished
	if err := h.Store.UpdateJob(ctx, job); err != nil {
		log.Error("Konnte Job nicht abschließen", zap.Error(err))
		return job, fmt.Errorf("finish job %s: %w", job.ID, err)
	}

	log.Info("Harvest-Lauf beendet",
		zap.Int("gathered", job.Gathered),
		zap.Int("imported", job.Imported),
		zap.Int("errored", job.Errored))
	return job, gatherErr
}
