package oaipmh

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// FieldKind bestimmt, wie ein Feld ausgelesen wird.
type FieldKind int

const (
	// TextList sammelt den Text jedes passenden Elements.
	TextList FieldKind = iota
	// Text nimmt nur das erste passende Element.
	Text
)

// Field ist ein Metadatenfeld mit einem Pfad wie "jc:json/text()". Kontextknoten ist
// <metadata>; der erste Schritt trifft also ein direktes Kindelement von <metadata>.
type Field struct {
	Kind FieldKind
	Path string
}

// MetadataReader liest Felder aus dem <metadata>-Block eines Datensatzes.
type MetadataReader struct {
	Fields     map[string]Field
	Namespaces map[string]string
}

// Metadata ist das Ergebnis eines MetadataReaders.
type Metadata struct {
	fields map[string][]string
}

// NewMetadata erstellt Metadaten aus bereits gelesenen Feldern.
func NewMetadata(fields map[string][]string) *Metadata {
	md := &Metadata{fields: map[string][]string{}}
	for k, v := range fields {
		md.fields[k] = append([]string(nil), v...)
	}
	return md
}

// Map gibt alle Felder zurück.
func (m *Metadata) Map() map[string][]string {
	out := make(map[string][]string, len(m.fields))
	for k, v := range m.fields {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Get gibt die Werte eines Feldes zurück.
func (m *Metadata) Get(field string) []string {
	return m.fields[field]
}

// Text verbindet alle Werte eines Feldes ohne Trennzeichen.
func (m *Metadata) Text(field string) string {
	return strings.Join(m.fields[field], "")
}

// Vordefinierte Reader.
var (
	JSONContainerReader = &MetadataReader{
		Fields: map[string]Field{
			"json_data": {Kind: TextList, Path: "jc:json/text()"},
		},
		Namespaces: map[string]string{
			"oai": NamespaceOAI,
			"jc":  "http://denbi.de/schemas/json-container",
		},
	}

	OAIDCReader = &MetadataReader{
		Fields: dcFields(),
		Namespaces: map[string]string{
			"oai_dc": "http://www.openarchives.org/OAI/2.0/oai_dc/",
			"dc":     "http://purl.org/dc/elements/1.1/",
		},
	}
)

func dcFields() map[string]Field {
	fields := map[string]Field{}
	for _, name := range []string{
		"title", "creator", "subject", "description", "publisher", "contributor",
		"date", "type", "format", "identifier", "source", "language", "relation",
		"coverage", "rights",
	} {
		fields[name] = Field{Kind: TextList, Path: "oai_dc:dc/dc:" + name + "/text()"}
	}
	return fields
}

type step struct {
	prefix string
	space  string
	local  string
}

func (r *MetadataReader) compile(path string) ([]step, error) {
	path = strings.TrimSuffix(strings.TrimSuffix(path, "text()"), "/")
	if path == "" {
		return nil, fmt.Errorf("empty field path")
	}
	var steps []step
	for _, part := range strings.Split(path, "/") {
		prefix, local, ok := strings.Cut(part, ":")
		if !ok {
			steps = append(steps, step{local: part})
			continue
		}
		space, known := r.Namespaces[prefix]
		if !known {
			return nil, fmt.Errorf("unknown namespace prefix %q in %q", prefix, path)
		}
		steps = append(steps, step{prefix: prefix, space: space, local: local})
	}
	return steps, nil
}

func (s step) matches(name xml.Name) bool {
	if s.local != name.Local {
		return false
	}
	// Nicht aufgelöste Präfixe (Namespace außerhalb von <metadata> deklariert) zulassen.
	return s.space == "" || name.Space == s.space || name.Space == s.prefix
}

// Read wertet alle Felder auf dem inneren XML von <metadata> aus.
func (r *MetadataReader) Read(inner []byte) (*Metadata, error) {
	compiled := make(map[string][]step, len(r.Fields))
	for name, f := range r.Fields {
		steps, err := r.compile(f.Path)
		if err != nil {
			return nil, err
		}
		compiled[name] = steps
	}

	md := &Metadata{fields: map[string][]string{}}
	current := map[string]*strings.Builder{}
	var stack []xml.Name

	dec := xml.NewDecoder(bytes.NewReader(inner))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ProtocolError{Code: CodeBadResponse, Message: fmt.Sprintf("metadata: %v", err)}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name)
			for name, steps := range compiled {
				if pathMatches(stack, steps) {
					current[name] = &strings.Builder{}
				}
			}
		case xml.CharData:
			for name, steps := range compiled {
				if b, ok := current[name]; ok && pathMatches(stack, steps) {
					b.Write(t)
				}
			}
		case xml.EndElement:
			for name, steps := range compiled {
				b, ok := current[name]
				if !ok || !pathMatches(stack, steps) {
					continue
				}
				if r.Fields[name].Kind == TextList || len(md.fields[name]) == 0 {
					md.fields[name] = append(md.fields[name], b.String())
				}
				delete(current, name)
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return md, nil
}

// pathMatches prüft den Elementstapel unterhalb von <metadata> gegen die Schritte.
func pathMatches(stack []xml.Name, steps []step) bool {
	if len(stack) != len(steps) {
		return false
	}
	for i, s := range steps {
		if !s.matches(stack[i]) {
			return false
		}
	}
	return true
}

// Registry ordnet Metadaten-Präfixen ihre Reader zu.
type Registry struct {
	mu      sync.RWMutex
	readers map[string]*MetadataReader
}

// NewRegistry erstellt eine Registry mit den Readern für json_container und oai_dc.
func NewRegistry() *Registry {
	r := &Registry{readers: map[string]*MetadataReader{}}
	r.Register("json_container", JSONContainerReader)
	r.Register("oai_dc", OAIDCReader)
	return r
}

// Register hinterlegt einen Reader für ein Präfix.
func (r *Registry) Register(prefix string, reader *MetadataReader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[prefix] = reader
}

// Reader gibt den Reader für ein Präfix zurück.
func (r *Registry) Reader(prefix string) (*MetadataReader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reader, ok := r.readers[prefix]
	return reader, ok
}
