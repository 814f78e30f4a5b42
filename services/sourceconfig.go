package services

import (
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"massbank-harvester/providers/oaipmh"
)

const (
	// DefaultMetadataPrefix wird verwendet, wenn die Quelle kein Format angibt.
	DefaultMetadataPrefix = "oai_dc"
	// DefaultWindow ist das Zeitfenster ohne explizites from/until.
	DefaultWindow = 5 * 24 * time.Hour
	// WindowFormat ist das Format von from/until in der Quellkonfiguration.
	WindowFormat = "2006-01-02T15:04:05Z"

	SchemaStudy    = "study"
	SchemaMassBank = "massbank"
)

// SourceConfig ist die aufgelöste, unveränderliche Konfiguration einer Quelle für einen Aufruf.
type SourceConfig struct {
	Username string
	Password string

	Set            string
	MetadataPrefix string
	From           time.Time
	Until          time.Time
	// WindowExplicit ist gesetzt, wenn from und until aus der Konfiguration stammen.
	WindowExplicit bool
	ForceHTTPGet   bool

	Schema           string
	OnlyIdentifier   string
	IdentifierPrefix string
	SetWithoutWindow bool
	LenientEntities  bool
	CreateGroups     bool
}

type rawSourceConfig struct {
	Username         *string `json:"username"`
	Password         *string `json:"password"`
	Set              string  `json:"set"`
	MetadataPrefix   string  `json:"metadata_prefix"`
	From             string  `json:"from"`
	Until            string  `json:"until"`
	ForceHTTPGet     bool    `json:"force_http_get"`
	Schema           string  `json:"schema"`
	OnlyIdentifier   string  `json:"only_identifier"`
	IdentifierPrefix string  `json:"identifier_prefix"`
	SetWithoutWindow bool    `json:"set_without_window"`
	LenientEntities  bool    `json:"lenient_entities"`
	CreateGroups     *bool   `json:"create_groups"`
}

// DefaultSourceConfig gibt die Konfiguration ohne Angaben zurück: anonym, oai_dc,
// Fenster [now-5d, now].
func DefaultSourceConfig(now time.Time) SourceConfig {
	until := now.UTC().Truncate(time.Second)
	return SourceConfig{
		MetadataPrefix: DefaultMetadataPrefix,
		From:           until.Add(-DefaultWindow),
		Until:          until,
		Schema:         SchemaStudy,
		CreateGroups:   true,
	}
}

// ParseSourceConfig löst den JSON-Blob einer Quelle auf. Fehlerhaftes JSON wird nur
// geloggt; es gelten dann die Standardwerte.
func ParseSourceConfig(blob string, now time.Time, logger *zap.Logger) SourceConfig {
	cfg := DefaultSourceConfig(now)
	if strings.TrimSpace(blob) == "" {
		return cfg
	}

	var raw rawSourceConfig
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		logger.Warn("Quellkonfiguration ist kein gültiges JSON, verwende Standardwerte", zap.Error(err))
		return cfg
	}

	if raw.Username != nil && raw.Password != nil {
		cfg.Username = *raw.Username
		cfg.Password = *raw.Password
	}
	cfg.Set = raw.Set
	if raw.MetadataPrefix != "" {
		cfg.MetadataPrefix = raw.MetadataPrefix
	}
	fromOK := parseWindowBound(raw.From, "from", &cfg.From, logger)
	untilOK := parseWindowBound(raw.Until, "until", &cfg.Until, logger)
	cfg.WindowExplicit = fromOK && untilOK
	cfg.ForceHTTPGet = raw.ForceHTTPGet

	switch raw.Schema {
	case "", SchemaStudy:
		cfg.Schema = SchemaStudy
	case SchemaMassBank:
		cfg.Schema = SchemaMassBank
	default:
		logger.Warn("Unbekanntes Schema, verwende study", zap.String("schema", raw.Schema))
	}
	cfg.OnlyIdentifier = raw.OnlyIdentifier
	cfg.IdentifierPrefix = raw.IdentifierPrefix
	cfg.SetWithoutWindow = raw.SetWithoutWindow
	cfg.LenientEntities = raw.LenientEntities
	if raw.CreateGroups != nil {
		cfg.CreateGroups = *raw.CreateGroups
	}
	return cfg
}

func parseWindowBound(value, name string, dst *time.Time, logger *zap.Logger) bool {
	if value == "" {
		return false
	}
	t, err := time.Parse(WindowFormat, value)
	if err != nil {
		logger.Warn("Ungültige Zeitangabe in Quellkonfiguration, verwende Standardfenster",
			zap.String("key", name), zap.String("value", value), zap.Error(err))
		return false
	}
	*dst = t
	return true
}

// ClientOptions gibt die Transportoptionen für den OAI-Client zurück.
func (c SourceConfig) ClientOptions() oaipmh.Options {
	return oaipmh.Options{
		Username:     c.Username,
		Password:     c.Password,
		ForceHTTPGet: c.ForceHTTPGet,
	}
}

// Allowed prüft eine Kennung gegen den Allow-List-Filter.
func (c SourceConfig) Allowed(identifier string) bool {
	if c.OnlyIdentifier != "" {
		return identifier == c.OnlyIdentifier
	}
	if c.IdentifierPrefix != "" {
		return strings.HasPrefix(identifier, c.IdentifierPrefix)
	}
	return true
}
