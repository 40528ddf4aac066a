package audit

import (
	"fmt"
	"time"

	"ledgerhawk-hq/ledgerhawk/pkg/findings"
	"ledgerhawk-hq/ledgerhawk/pkg/retrieval"
)

// State is a phase of the audit run state machine.
type State int

const (
	// StateInitialized is the state before the run starts.
	StateInitialized State = iota

	// StateRetrieving covers the retrieval phase, including retries.
	StateRetrieving

	// StateEvaluating covers the per-rule evaluation loop.
	StateEvaluating

	// StateCompleted is the terminal state of a successful run.
	StateCompleted

	// StateAborted is the terminal state of a failed run. An aborted
	// result always carries a Cause.
	StateAborted
)

var stateNames = map[State]string{
	StateInitialized: "initialized",
	StateRetrieving:  "retrieving",
	StateEvaluating:  "evaluating",
	StateCompleted:   "completed",
	StateAborted:     "aborted",
}

// String returns the lowercase state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// AbortCause explains why a run aborted.
type AbortCause string

const (
	// CauseCancelled means the caller cancelled the run.
	CauseCancelled AbortCause = "cancelled"

	// CauseEmbeddingUnavailable means retrieval failed after all
	// retries because the embedding provider was unreachable.
	CauseEmbeddingUnavailable AbortCause = "embedding_unavailable"

	// CauseCorruptRecord means the record failed validation before the
	// evaluation loop started.
	CauseCorruptRecord AbortCause = "corrupt_record"
)

// Result is the outcome of one audit run.
type Result struct {
	// RunID is the unique run identifier.
	RunID string

	// RecordName identifies the audited record.
	RecordName string

	// State is the terminal state, StateCompleted or StateAborted.
	State State

	// Cause is set when State is StateAborted.
	Cause AbortCause

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// Candidates is the ranked rule list selected by retrieval.
	Candidates []retrieval.Candidate

	// Findings are the per-rule outcomes in evaluation order. On an
	// aborted run they cover the rules evaluated before the abort.
	Findings []findings.Finding

	// Skipped lists rule IDs skipped for unparsable conditions.
	Skipped []string

	// Evaluated is the number of candidate rules handled.
	Evaluated int
}

// Persisted converts the result into the storable run form.
func (r *Result) Persisted() *findings.Run {
	return &findings.Run{
		ID:         r.RunID,
		RecordName: r.RecordName,
		State:      r.State.String(),
		Cause:      string(r.Cause),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Evaluated:  r.Evaluated,
		Findings:   r.Findings,
		Skipped:    r.Skipped,
	}
}
