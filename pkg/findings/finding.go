package findings

import (
	"time"

	"ledgerhawk-hq/ledgerhawk/pkg/rule"
)

// Finding is the outcome of evaluating one rule against one record.
type Finding struct {
	// RuleID identifies the rule that produced this finding.
	RuleID string `json:"rule_id"`

	// Verdict is the evaluation outcome.
	Verdict Verdict `json:"verdict"`

	// Severity is copied from the rule at evaluation time, so findings
	// stay meaningful if the rulebook changes later.
	Severity rule.Severity `json:"severity"`

	// Score is the retrieval score that surfaced the rule.
	Score float64 `json:"score"`

	// Evidence holds the record fields the condition read, keyed by
	// field name. Nil for judge-derived findings.
	Evidence map[string]any `json:"evidence,omitempty"`

	// Rationale is a human-readable explanation. For condition
	// evaluations it is the condition source; for judge findings it is
	// the model's reasoning; for indeterminate findings it is the error.
	Rationale string `json:"rationale,omitempty"`

	// Related lists earlier violations of related rules in the same
	// run, recorded as corroborating context.
	Related []string `json:"related,omitempty"`

	// LLMDerived is true when the verdict came from a model judgment
	// rather than a machine condition.
	LLMDerived bool `json:"llm_derived"`

	// DetectedAt is when the finding was produced.
	DetectedAt time.Time `json:"detected_at"`
}

// Run is the persisted record of one audit run.
type Run struct {
	// ID is the run identifier, a UUID.
	ID string `json:"id"`

	// RecordName identifies the audited record.
	RecordName string `json:"record_name"`

	// State is the terminal workflow state, "completed" or "aborted".
	State string `json:"state"`

	// Cause explains an aborted run. Empty for completed runs.
	Cause string `json:"cause,omitempty"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Evaluated is the number of rules the run evaluated.
	Evaluated int `json:"evaluated"`

	// Findings are the per-rule outcomes, in evaluation order.
	Findings []Finding `json:"findings"`

	// Skipped lists rule IDs skipped for unparsable conditions.
	Skipped []string `json:"skipped,omitempty"`
}

// Violations returns the findings with a violation verdict.
func (r *Run) Violations() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Verdict == VerdictViolation {
			out = append(out, f)
		}
	}
	return out
}
