package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Fetch holt den Datensatz eines HarvestObjects, normalisiert ihn zu kanonischem JSON und
// speichert ihn als Inhalt. Fehler werden am Objekt gespeichert und zurückgegeben.
func (h *Harvester) Fetch(ctx context.Context, objectID string) error {
	obj, err := h.Store.GetObject(ctx, objectID)
	if err != nil {
		return &StageError{Stage: StageFetch, Kind: KindPersistence, Err: err}
	}
	log := h.Logger.With(zap.String("guid", obj.GUID), zap.String("object_id", obj.ID))
	log.Debug("Fetch-Stage gestartet")

	src, err := h.Store.GetSource(ctx, obj.SourceID)
	if err != nil {
		return h.recordObjectError(ctx, obj, StageFetch, KindPersistence,
			fmt.Sprintf("Exception in fetch stage for %s: %v", obj.GUID, err), err)
	}
	cfg := h.sourceConfig(src)

	client, err := h.NewClient(src.URL, cfg.ClientOptions())
	if err != nil {
		return h.recordObjectError(ctx, obj, StageFetch, KindTransport,
			fmt.Sprintf("Exception in fetch stage for %s: %v", obj.GUID, err), err)
	}

	log.Debug("Lade Datensatz", zap.String("metadata_prefix", cfg.MetadataPrefix))
	rec, err := client.GetRecord(ctx, obj.GUID, cfg.MetadataPrefix)
	if err != nil {
		log.Warn("GetRecord fehlgeschlagen", zap.Error(err))
		return h.recordObjectError(ctx, obj, StageFetch, remoteKind(err),
			fmt.Sprintf("Get record failed for %s!", obj.GUID), err)
	}
	if rec.Metadata == nil {
		return h.recordObjectError(ctx, obj, StageFetch, KindProtocol,
			fmt.Sprintf("Get record failed for %s: record has no metadata", obj.GUID), ErrNoContent)
	}

	var modified string
	if ts, err := rec.Header.Time(); err == nil {
		modified = ts.Format(MetadataModifiedLayout)
	} else {
		log.Debug("Kein gültiger Datestamp", zap.String("datestamp", rec.Header.Datestamp))
	}

	payload := rec.Metadata.Text("json_data")
	content, err := Canonicalize(payload, rec.Header.SetSpec, modified)
	if err != nil {
		log.Warn("Metadaten konnten nicht serialisiert werden", zap.Error(err))
		return h.recordObjectError(ctx, obj, StageFetch, KindDecode,
			fmt.Sprintf("Dumping the metadata failed! %v; payload: %s", err, payload), err)
	}

	if err := h.Store.SaveObjectContent(ctx, obj.ID, content, h.now()); err != nil {
		return h.recordObjectError(ctx, obj, StageFetch, KindPersistence,
			fmt.Sprintf("Exception in fetch stage for %s: %v", obj.GUID, err), err)
	}

	h.Metrics.fetched()
	log.Debug("Fetch-Stage beendet")
	return nil
}
