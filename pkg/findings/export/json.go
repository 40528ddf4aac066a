package export

import (
	"encoding/json"
	"fmt"
	"io"

	"ledgerhawk-hq/ledgerhawk/pkg/findings"
)

// ExportError describes a failed export.
type ExportError struct {
	Format string
	Runs   int
	Cause  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export of %d runs failed: %v", e.Format, e.Runs, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// JSONExporter writes audit runs as a JSON array.
type JSONExporter struct {
	// Pretty enables indented output.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes the runs to w as a JSON array. An empty slice is
// written as [] rather than null.
func (e *JSONExporter) Export(runs []*findings.Run, w io.Writer) error {
	if runs == nil {
		runs = []*findings.Run{}
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(runs, "", "  ")
	} else {
		data, err = json.Marshal(runs)
	}
	if err != nil {
		return &ExportError{Format: "json", Runs: len(runs), Cause: err}
	}

	if _, err := w.Write(data); err != nil {
		return &ExportError{Format: "json", Runs: len(runs), Cause: err}
	}
	return nil
}
