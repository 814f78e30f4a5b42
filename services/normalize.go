package services

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/segmentio/encoding/json"
)

// MetadataModifiedLayout ist das zeitzonenlose ISO-8601-Format für Zeitstempel im Katalog.
const MetadataModifiedLayout = "2006-01-02T15:04:05"

var whitespaceRuns = regexp.MustCompile(`\s+`)

// CollapseWhitespace ersetzt jede Folge von Leerraum (Leerzeichen, Tabs, Zeilenumbrüche)
// durch ein Leerzeichen und trimmt das Ergebnis.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}

// Record ist ein dekodiertes kanonisches JSON-Dokument.
type Record map[string]any

// DecodeRecord liest genau ein JSON-Objekt. Zahlen bleiben als json.Number erhalten.
func DecodeRecord(data string) (Record, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("payload is not a JSON object")
	}
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}
	return Record(m), nil
}

// Canonicalize normalisiert den Rohtext eines Datensatzes, hängt Set-Zugehörigkeit und
// optional den Änderungszeitpunkt an und serialisiert mit sortierten Schlüsseln.
func Canonicalize(payload string, setSpec []string, metadataModified string) (string, error) {
	rec, err := DecodeRecord(CollapseWhitespace(payload))
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	if setSpec == nil {
		setSpec = []string{}
	}
	rec["set_spec"] = setSpec
	if metadataModified != "" {
		rec["metadata_modified"] = metadataModified
	}
	out, err := json.Marshal(map[string]any(rec))
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(out), nil
}
