package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"massbank-harvester/models"
	"massbank-harvester/providers/oaipmh"
)

// Gather ermittelt die Kennungen einer Quelle und legt pro Kennung ein HarvestObject an.
// Bei jedem Fehler wird ein Gather-Fehler am Job gespeichert und nil zurückgegeben; es
// entstehen nie nur einige der Objekte.
func (h *Harvester) Gather(ctx context.Context, job *models.HarvestJob) ([]string, error) {
	log := h.Logger.With(zap.String("job_id", job.ID), zap.String("source_id", job.SourceID))

	src, err := h.Store.GetSource(ctx, job.SourceID)
	if err != nil {
		return nil, h.gatherFailure(ctx, job, job.SourceID, KindPersistence, err)
	}
	log = log.With(zap.String("url", src.URL))
	log.Debug("Gather-Stage gestartet")

	cfg := h.sourceConfig(src)
	client, err := h.NewClient(src.URL, cfg.ClientOptions())
	if err != nil {
		return nil, h.gatherFailure(ctx, job, src.URL, KindTransport, err)
	}

	if _, err := client.Identify(ctx); err != nil {
		return nil, h.gatherFailure(ctx, job, src.URL, remoteKind(err), err)
	}

	var guids []string
	seen := map[string]bool{}
	collect := func(header oaipmh.Header) bool {
		if header.Deleted() {
			log.Debug("Gelöschter Datensatz übersprungen", zap.String("guid", header.Identifier))
			return true
		}
		if !cfg.Allowed(header.Identifier) || seen[header.Identifier] {
			return true
		}
		seen[header.Identifier] = true
		guids = append(guids, header.Identifier)
		// Eine einzelne exakte Kennung ist nach dem ersten Treffer erfüllt.
		return cfg.OnlyIdentifier == ""
	}

	if err := client.ListIdentifiers(ctx, listArgs(cfg), collect); err != nil {
		return nil, h.gatherFailure(ctx, job, src.URL, remoteKind(err), err)
	}

	objs := make([]*models.HarvestObject, 0, len(guids))
	ids := make([]string, 0, len(guids))
	for _, guid := range guids {
		obj := &models.HarvestObject{
			ID:       uuid.NewString(),
			GUID:     guid,
			JobID:    job.ID,
			SourceID: src.ID,
			State:    models.ObjectStateCreated,
		}
		objs = append(objs, obj)
		ids = append(ids, obj.ID)
	}
	if err := h.Store.CreateObjects(ctx, objs); err != nil {
		return nil, h.gatherFailure(ctx, job, src.URL, KindPersistence, err)
	}

	h.Metrics.gathered(len(ids))
	log.Info("Gather-Stage erfolgreich beendet", zap.Int("harvest_objects", len(ids)))
	return ids, nil
}

// listArgs bildet die Verzweigung der Aufzählung ab: Fenster (mit optionalem Set), nur Set,
// oder ganz ohne Einschränkung. Mit set_without_window wird ein Set ohne explizites Fenster
// ohne Zeitgrenzen gelistet.
func listArgs(cfg SourceConfig) oaipmh.ListArgs {
	args := oaipmh.ListArgs{Prefix: cfg.MetadataPrefix}
	hasWindow := !cfg.From.IsZero() || !cfg.Until.IsZero()
	setOnly := cfg.SetWithoutWindow && !cfg.WindowExplicit && cfg.Set != ""

	switch {
	case hasWindow && !setOnly:
		from, until := cfg.From, cfg.Until
		args.Set, args.From, args.Until = cfg.Set, &from, &until
	case cfg.Set != "":
		args.Set = cfg.Set
	}
	return args
}

func (h *Harvester) gatherFailure(ctx context.Context, job *models.HarvestJob, url string, kind ErrorKind, err error) error {
	var (
		message string
		herr    *oaipmh.HTTPError
	)
	if errors.As(err, &herr) {
		h.Logger.Error("Gather-Stage fehlgeschlagen",
			zap.String("url", url),
			zap.Int("status", herr.StatusCode),
			zap.Any("headers", herr.Header),
			zap.String("body", herr.Body),
			zap.Error(err))
		message = fmt.Sprintf("Could not gather anything from %s", url)
	} else {
		h.Logger.Error("Gather-Stage fehlgeschlagen", zap.String("url", url), zap.Error(err))
		message = fmt.Sprintf("Could not gather anything from %s: %v / %s", url, err, debug.Stack())
	}

	h.Metrics.errored(StageGather)
	if serr := h.Store.SaveGatherError(ctx, job.ID, message); serr != nil {
		h.Logger.Error("Konnte Gather-Fehler nicht speichern", zap.String("job_id", job.ID), zap.Error(serr))
	}
	return &StageError{Stage: StageGather, Kind: kind, Err: err}
}
