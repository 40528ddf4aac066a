package record

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Record is one structured financial record: named field values plus the
// raw text extracted from the source document. Field names are
// natural-language labels (typically Chinese financial terms), not a fixed
// schema.
type Record struct {
	// Name identifies the source document (file name or report title).
	Name string `json:"name"`

	// Fields maps field names to numeric, textual, boolean, or list values.
	Fields map[string]any `json:"fields"`

	// RawText is the free text extracted from the source document.
	RawText string `json:"raw_text"`

	// Keywords are salient financial keywords extracted during ingestion.
	// When empty, the engine derives keywords from the field names.
	Keywords []string `json:"keywords,omitempty"`
}

// Parse decodes a record from its JSON form.
func Parse(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("malformed record: %w", err)
	}
	return &r, nil
}

// Load reads and parses a record file.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file %q: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("record file %q: %w", path, err)
	}
	if r.Name == "" {
		r.Name = path
	}
	return r, nil
}

// Validate checks that the record is usable at all. A record with neither
// fields nor raw text is corrupted input: there is nothing to retrieve
// against and nothing to evaluate.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("nil record")
	}
	if len(r.Fields) == 0 && r.RawText == "" {
		return fmt.Errorf("record %q has no fields and no raw text", r.Name)
	}
	return nil
}

// FieldNames returns the field names in sorted order.
func (r *Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Environment returns a copy of the field map for one expression
// evaluation. The copy keeps the evaluator from ever aliasing the record.
func (r *Record) Environment() map[string]any {
	env := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		env[k] = v
	}
	return env
}
