package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"ledgerhawk-hq/ledgerhawk/pkg/findings"
)

// CSVExporter writes audit runs in a flattened CSV schema with one row
// per finding. A run without findings still emits one row so aborted
// and empty runs appear in the output.
type CSVExporter struct {
	// IncludeHeader writes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export writes the runs to w in CSV format.
func (e *CSVExporter) Export(runs []*findings.Run, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return &ExportError{Format: "csv", Runs: len(runs), Cause: err}
		}
	}

	for _, run := range runs {
		for _, row := range runRows(run) {
			if err := writer.Write(row); err != nil {
				return &ExportError{Format: "csv", Runs: len(runs), Cause: err}
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return &ExportError{Format: "csv", Runs: len(runs), Cause: err}
	}
	return nil
}

func headerRow() []string {
	return []string{
		"run_id", "record", "state", "cause",
		"started_at", "finished_at", "evaluated", "skipped",
		"rule_id", "verdict", "severity", "score",
		"llm_derived", "related", "rationale", "detected_at",
	}
}

// runRows flattens one run. Run columns repeat on every finding row.
func runRows(run *findings.Run) [][]string {
	base := []string{
		run.ID,
		run.RecordName,
		run.State,
		run.Cause,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		fmt.Sprintf("%d", run.Evaluated),
		strings.Join(run.Skipped, ";"),
	}

	if len(run.Findings) == 0 {
		row := make([]string, 0, 16)
		row = append(row, base...)
		row = append(row, "", "", "", "", "", "", "", "")
		return [][]string{row}
	}

	rows := make([][]string, 0, len(run.Findings))
	for _, f := range run.Findings {
		row := make([]string, 0, 16)
		row = append(row, base...)
		row = append(row,
			f.RuleID,
			f.Verdict.String(),
			f.Severity.String(),
			fmt.Sprintf("%.4f", f.Score),
			fmt.Sprintf("%t", f.LLMDerived),
			strings.Join(f.Related, ";"),
			f.Rationale,
			formatTime(f.DetectedAt),
		)
		rows = append(rows, row)
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
