// Package dict implements the in-memory data-dictionary catalog the
// compiler's passes read (spec §3). The dictionary *file* parser/
// serializer is an external collaborator (spec §1); this package only
// owns the typed, JSON-tagged catalog those files decode into, plus a
// codec for the compressed blobs the emitter embeds in generated source
// (spec §6).
package dict

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/carlodf/pansql/types"
)

// FieldDefinition describes one column of a StreamDefinition.
type FieldDefinition struct {
	Name string          `json:"name"`
	Type types.FieldType `json:"type"`
}

// StreamDefinition is a named, ordered set of fields, keyed by
// (schema, name) within its owning Dictionary.
type StreamDefinition struct {
	Schema     string            `json:"schema"`
	Name       string            `json:"name"`
	Fields     []FieldDefinition `json:"fields"`
	PrimaryKey []string          `json:"primary_key,omitempty"`
}

// FieldIndex returns the ordinal of the named field, or -1 if absent.
func (s *StreamDefinition) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Field returns the field with the given name, or (zero, false).
func (s *StreamDefinition) Field(name string) (FieldDefinition, bool) {
	if i := s.FieldIndex(name); i >= 0 {
		return s.Fields[i], true
	}
	return FieldDefinition{}, false
}

// IsPrimaryKey reports whether name is (part of) the stream's declared
// primary/unique key, the only key a JOIN may probe (spec §4.3 pass 4).
func (s *StreamDefinition) IsPrimaryKey(name string) bool {
	for _, k := range s.PrimaryKey {
		if k == name {
			return true
		}
	}
	return false
}

// Dictionary is a named collection of StreamDefinitions, keyed by
// "schema.name". Dictionaries are opaque to the compiler beyond this
// lookup surface (spec §3).
type Dictionary struct {
	Name    string                       `json:"name"`
	Streams map[string]*StreamDefinition `json:"streams"`
}

// New returns an empty, ready-to-populate Dictionary.
func New(name string) *Dictionary {
	return &Dictionary{Name: name, Streams: make(map[string]*StreamDefinition)}
}

func key(schema, name string) string { return schema + "." + name }

// Add registers a stream definition under its (Schema, Name) key.
func (d *Dictionary) Add(s *StreamDefinition) {
	d.Streams[key(s.Schema, s.Name)] = s
}

// Lookup resolves a stream by (schema, name). Dictionary stream names are
// case-sensitive (spec §9 Open Question).
func (d *Dictionary) Lookup(schema, name string) (*StreamDefinition, bool) {
	s, ok := d.Streams[key(schema, name)]
	return s, ok
}

// ByName returns every stream named exactly name, across all schemas
// inside the dictionary — used by the linker's auto-map step, which
// matches by name alone (spec §4.5).
func (d *Dictionary) ByName(name string) []*StreamDefinition {
	var out []*StreamDefinition
	for _, s := range d.Streams {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// wireEnvelope is the JSON shape compressed for embedding in emitted
// source. It is intentionally independent of whatever wire format the
// (external) dictionary file serializer's ToCompressedString produces:
// this one only has to round-trip within this module's own emitted code.
type wireEnvelope struct {
	Name    string                       `json:"name"`
	Streams map[string]*StreamDefinition `json:"streams"`
}

// Compress renders the dictionary as a gzip-deflated, base64-encoded JSON
// blob suitable for embedding as a Go string literal in emitted source
// (spec §6: "dictionary blobs in the emitted program are compressed").
func (d *Dictionary) Compress() (string, error) {
	raw, err := json.Marshal(wireEnvelope{Name: d.Name, Streams: d.Streams})
	if err != nil {
		return "", fmt.Errorf("dict: marshal: %w", err)
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return "", fmt.Errorf("dict: compress: %w", err)
	}
	if err := gw.Close(); err != nil {
		return "", fmt.Errorf("dict: compress: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress is the inverse of Compress.
func Decompress(blob string) (*Dictionary, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("dict: decode base64: %w", err)
	}
	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("dict: decompress: %w", err)
	}
	defer gr.Close()
	jsonRaw, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("dict: decompress: %w", err)
	}
	var env wireEnvelope
	if err := json.Unmarshal(jsonRaw, &env); err != nil {
		return nil, fmt.Errorf("dict: unmarshal: %w", err)
	}
	return &Dictionary{Name: env.Name, Streams: env.Streams}, nil
}
