package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"massbank-harvester/catalog"
	"massbank-harvester/models"
)

// fieldMapping ordnet Felder des kanonischen Datensatzes Katalogfeldern zu. Fehlende
// Felder werden übersprungen.
var fieldMapping = []struct {
	key string
	set func(d *models.PackageDraft, v string)
}{
	{"name", func(d *models.PackageDraft, v string) { d.Title = v }},
	{"description", func(d *models.PackageDraft, v string) { d.Notes = v }},
	{"publisher", func(d *models.PackageDraft, v string) { d.Maintainer = v }},
	{"url", func(d *models.PackageDraft, v string) { d.URL = v }},
}

var dateKeys = []string{"datePublished", "dateCreated", "dateModified"}

// Import erzeugt aus dem Inhalt eines HarvestObjects einen Katalogeintrag und die
// Zeilen der Zusatzdatenbank. Der Katalog wird erst geschrieben, wenn alle Ableitungen
// erfolgreich waren.
func (h *Harvester) Import(ctx context.Context, objectID string) error {
	obj, err := h.Store.GetObject(ctx, objectID)
	if err != nil {
		return &StageError{Stage: StageImport, Kind: KindPersistence, Err: err}
	}
	log := h.Logger.With(zap.String("guid", obj.GUID), zap.String("object_id", obj.ID))
	log.Debug("Import-Stage gestartet")

	if obj.Content == nil || *obj.Content == "" {
		return h.recordObjectError(ctx, obj, StageImport, KindMapping,
			fmt.Sprintf("No content for %s", obj.GUID), ErrNoContent)
	}

	src, err := h.Store.GetSource(ctx, obj.SourceID)
	if err != nil {
		return h.recordObjectError(ctx, obj, StageImport, KindPersistence,
			fmt.Sprintf("Exception in import stage for %s: %v", obj.GUID, err), err)
	}
	cfg := h.sourceConfig(src)

	rec, err := DecodeRecord(*obj.Content)
	if err != nil {
		return h.recordObjectError(ctx, obj, StageImport, KindDecode,
			fmt.Sprintf("Exception in import stage for %s: %v", obj.GUID, err), err)
	}

	mapper := MapperFor(cfg.Schema)
	draft, ent, err := h.buildDraft(ctx, log, obj.GUID, src, cfg, mapper, rec)
	if err != nil {
		return h.recordObjectError(ctx, obj, StageImport, KindOf(err),
			fmt.Sprintf("Exception in import stage for %s: %v", obj.GUID, err), err)
	}

	log.Debug("Create/update package", zap.String("package_id", draft.ID))
	if _, err := h.Catalog.SavePackage(ctx, draft); err != nil {
		return h.recordObjectError(ctx, obj, StageImport, KindPersistence,
			fmt.Sprintf("Exception in import stage for %s: %v", obj.GUID, err), err)
	}

	if ent != nil {
		fact, err := moleculeFact(draft, *ent)
		if err == nil {
			err = h.Aux.WriteMolecule(ctx, fact, mapper.ExtractAlternateNames(rec))
		}
		if err != nil {
			return h.recordObjectError(ctx, obj, StageImport, KindPersistence,
				fmt.Sprintf("Exception in import stage for %s: auxiliary store: %v", obj.GUID, err), err)
		}
	}

	if err := h.Store.MarkImported(ctx, obj.ID, draft.ID, h.now()); err != nil {
		return h.recordObjectError(ctx, obj, StageImport, KindPersistence,
			fmt.Sprintf("Exception in import stage for %s: %v", obj.GUID, err), err)
	}

	h.Metrics.imported()
	if h.Notifier != nil {
		if err := h.Notifier.NotifyImported(ctx, draft.ID, obj.GUID, src.ID); err != nil {
			log.Warn("Import-Event konnte nicht gesendet werden", zap.Error(err))
		}
	}
	log.Info("Finished record", zap.String("package_id", draft.ID))
	return nil
}

// buildDraft leitet den Katalogeintrag ab. Die zurückgegebene Entität ist nil, wenn der
// Datensatz keine hat und die Quelle das erlaubt.
func (h *Harvester) buildDraft(ctx context.Context, log *zap.Logger, guid string, src *models.HarvestSource, cfg SourceConfig, mapper SchemaMapper, rec Record) (*models.PackageDraft, *models.ChemicalEntity, error) {
	name := MungeTitleToName(guid)
	draft := &models.PackageDraft{ID: name, Name: name}

	for _, m := range fieldMapping {
		if v, ok := rec.String(m.key); ok {
			m.set(draft, v)
		}
	}
	if title := mapper.ExtractTitle(rec); title != "" {
		draft.Title = title
	}
	draft.Author = mapper.ExtractAuthor(rec)
	draft.MetadataModified, _ = rec.String("metadata_modified")

	owner, err := h.ownerOrg(ctx, src)
	if err != nil {
		return nil, nil, &StageError{Stage: StageImport, Kind: KindPersistence, GUID: guid, Err: err}
	}
	draft.OwnerOrg = owner

	var entity *models.ChemicalEntity
	ent, err := mapper.ExtractStructureEntity(rec)
	switch {
	case err == nil:
		entity = &ent
	case errors.Is(err, ErrNoChemicalEntity) && cfg.LenientEntities:
		log.Warn("Datensatz ohne chemische Entität, überspringe Anreicherung")
	default:
		return nil, nil, &StageError{Stage: StageImport, Kind: KindMapping, GUID: guid, Err: err}
	}

	if entity != nil {
		if entity.URL != "" {
			format := entity.Format
			if format == "" {
				format = "HTML"
			}
			resName := entity.Name
			if resName == "" {
				resName = draft.Title
			}
			draft.Resources = append(draft.Resources, models.Resource{
				Name:         resName,
				ResourceType: format,
				Format:       format,
				URL:          entity.URL,
			})
		}
		enrichment := h.Enrich(ctx, guid, *entity)
		draft.Extras = append(draft.Extras, enrichment.Extras...)
		// Die berechnete Masse ersetzt die gelieferte; ohne gültiges InChI bleibt diese.
		if enrichment.ExactMass != "" {
			entity.MonoisotopicMass = enrichment.ExactMass
		}
	}

	for _, key := range dateKeys {
		raw, ok := rec.String(key)
		if !ok || raw == "" {
			continue
		}
		value, err := NaiveISODate(raw)
		if err != nil {
			log.Warn("Datum konnte nicht geparst werden", zap.String("key", key), zap.String("value", raw), zap.Error(err))
			continue
		}
		draft.Extras = append(draft.Extras, models.Extra{Key: key, Value: value})
	}

	seen := map[string]bool{}
	for _, tag := range mapper.ExtractTags(rec) {
		munged := MungeTag(truncateRunes(tag, TagMaxLength))
		if !seen[munged] {
			seen[munged] = true
			draft.Tags = append(draft.Tags, models.Tag{Name: munged})
		}
	}

	if cfg.CreateGroups {
		for _, set := range rec.Strings("set_spec") {
			draft.Groups = append(draft.Groups, models.Group{Name: MungeTitleToName(set), Title: set})
		}
	}
	return draft, entity, nil
}

func (h *Harvester) ownerOrg(ctx context.Context, src *models.HarvestSource) (string, error) {
	pkg, err := h.Catalog.ShowPackage(ctx, src.ID)
	switch {
	case err == nil && pkg.OwnerOrg != "":
		return pkg.OwnerOrg, nil
	case err == nil, errors.Is(err, catalog.ErrNotFound):
		return src.OwnerOrg, nil
	default:
		return "", err
	}
}

// NaiveISODate parst ein Datum und gibt es ohne Zeitzone zurück (Wanduhrzeit der Angabe).
func NaiveISODate(value string) (string, error) {
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return "", err
	}
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02T15:04:05.000000"), nil
	}
	return t.Format(MetadataModifiedLayout), nil
}

func moleculeFact(draft *models.PackageDraft, ent models.ChemicalEntity) (models.MoleculeData, error) {
	inchiJSON, err := json.Marshal(ent.InChI)
	if err != nil {
		return models.MoleculeData{}, err
	}
	return models.MoleculeData{
		PackageID:  draft.ID,
		InChIJSON:  string(inchiJSON),
		Smiles:     ent.Smiles,
		InChIKey:   ent.InChIKey,
		ExactMass:  ent.MonoisotopicMass,
		MolFormula: ent.MolecularFormula,
	}, nil
}
