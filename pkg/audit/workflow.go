package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ledgerhawk-hq/ledgerhawk/pkg/config"
	"ledgerhawk-hq/ledgerhawk/pkg/corpus"
	"ledgerhawk-hq/ledgerhawk/pkg/expr"
	"ledgerhawk-hq/ledgerhawk/pkg/findings"
	"ledgerhawk-hq/ledgerhawk/pkg/record"
	"ledgerhawk-hq/ledgerhawk/pkg/retrieval"
	"ledgerhawk-hq/ledgerhawk/pkg/telemetry/metrics"
)

// Options holds the optional collaborators of a Workflow.
type Options struct {
	// Judge decides rules without a deterministic condition. With a nil
	// judge those rules yield indeterminate findings.
	Judge Judge

	// Metrics receives run, evaluation, and retrieval observations.
	Metrics *metrics.Metrics

	// Logger overrides the default component logger.
	Logger *slog.Logger
}

// Workflow executes audit runs over a shared read-only corpus.
// It is safe for concurrent use; each run owns its state exclusively.
type Workflow struct {
	corpus  *corpus.Corpus
	ranker  *retrieval.Ranker
	judge   Judge
	cfg     config.AuditConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	// now and sleep are swapped in tests.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New creates a workflow over a built corpus and its ranker.
func New(c *corpus.Corpus, ranker *retrieval.Ranker, cfg config.AuditConfig, opts *Options) (*Workflow, error) {
	if ranker == nil {
		return nil, fmt.Errorf("ranker cannot be nil")
	}
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "audit")
	}

	return &Workflow{
		corpus:  c,
		ranker:  ranker,
		judge:   opts.Judge,
		cfg:     cfg,
		metrics: opts.Metrics,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Run audits one record. The returned error is non-nil only for
// sequencing bugs such as retrieval before the index was built; every
// operational failure is reported through the Result. A run always
// terminates in StateCompleted or StateAborted, and an aborted result
// keeps the findings accumulated before the abort.
func (w *Workflow) Run(ctx context.Context, rec *record.Record) (*Result, error) {
	res := &Result{
		RunID:      uuid.NewString(),
		RecordName: recordName(rec),
		State:      StateInitialized,
		StartedAt:  w.now(),
	}
	logger := w.logger.With("run_id", res.RunID, "record", res.RecordName)
	logger.Info("audit run started")

	if err := rec.Validate(); err != nil {
		logger.Error("record failed validation", "error", err)
		return w.abort(res, CauseCorruptRecord, logger), nil
	}

	res.State = StateRetrieving
	candidates, err := w.retrieveWithRetry(ctx, rec, logger)
	if err != nil {
		var notBuilt *retrieval.IndexNotBuiltError
		if errors.As(err, &notBuilt) {
			// Sequencing bug, not an operational failure.
			return nil, err
		}
		if ctx.Err() != nil {
			return w.abort(res, CauseCancelled, logger), nil
		}
		var unavailable *retrieval.EmbeddingUnavailableError
		if errors.As(err, &unavailable) {
			return w.abort(res, CauseEmbeddingUnavailable, logger), nil
		}
		return nil, err
	}
	res.Candidates = candidates

	if len(candidates) == 0 {
		// No applicable rules is a valid, reportable outcome.
		logger.Info("no rules cleared the retrieval threshold")
		return w.complete(res, logger), nil
	}

	res.State = StateEvaluating
	violated := make(map[string]bool)
	for i, cand := range candidates {
		// Cooperative cancellation checkpoint between rule evaluations.
		if ctx.Err() != nil {
			logger.Warn("run cancelled", "evaluated", res.Evaluated, "remaining", len(candidates)-i)
			return w.abort(res, CauseCancelled, logger), nil
		}
		w.evaluateRule(ctx, rec, cand, violated, res, logger)
		res.Evaluated++
	}

	return w.complete(res, logger), nil
}

func recordName(rec *record.Record) string {
	if rec == nil {
		return ""
	}
	return rec.Name
}

// retrieveWithRetry calls the ranker, retrying embedding-provider
// outages with exponential backoff up to the configured attempt bound.
// IndexNotBuiltError is never retried.
func (w *Workflow) retrieveWithRetry(ctx context.Context, rec *record.Record, logger *slog.Logger) ([]retrieval.Candidate, error) {
	attempts := w.cfg.RetrievalRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := w.cfg.RetryBackoff * (1 << (attempt - 2))
			logger.Debug("retrying retrieval", "attempt", attempt, "backoff", backoff)
			if err := w.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		start := w.now()
		candidates, err := w.ranker.Retrieve(ctx, rec, 0, -1)
		if err == nil {
			if w.metrics != nil {
				w.metrics.RecordRetrieval(w.now().Sub(start).Seconds(), len(candidates))
			}
			return candidates, nil
		}

		var unavailable *retrieval.EmbeddingUnavailableError
		if !errors.As(err, &unavailable) {
			return nil, err
		}
		lastErr = err
		logger.Warn("embedding provider unavailable",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
	}
	return nil, lastErr
}

// evaluateRule handles one candidate: evaluate its condition, or
// delegate to the judge when it has none. Every candidate ends up as
// either a finding or a skip entry.
func (w *Workflow) evaluateRule(ctx context.Context, rec *record.Record, cand retrieval.Candidate, violated map[string]bool, res *Result, logger *slog.Logger) {
	rl := cand.Rule

	if !rl.HasCondition() {
		w.judgeRule(ctx, rec, cand, violated, res, logger)
		return
	}

	prog, err := w.corpus.Program(rl.ID)
	if err != nil {
		// Malformed condition is a corpus defect, not a workflow failure.
		logger.Warn("rule condition malformed, skipping",
			"rule_id", rl.ID,
			"error", err,
		)
		res.Skipped = append(res.Skipped, rl.ID)
		if w.metrics != nil {
			w.metrics.RecordSkip()
		}
		return
	}

	env := rec.Environment()
	f := findings.Finding{
		RuleID:     rl.ID,
		Severity:   rl.Severity,
		Score:      cand.Score,
		DetectedAt: w.now(),
	}

	hit, evalErr := prog.EvalBool(env)
	switch {
	case evalErr != nil:
		// Missing or invalid data is local to this rule.
		f.Verdict = findings.VerdictIndeterminate
		f.Rationale = evalErr.Error()
		f.Evidence = conditionEvidence(prog, env)
		logger.Info("rule indeterminate", "rule_id", rl.ID, "error", evalErr)
	case hit:
		f.Verdict = findings.VerdictViolation
		f.Rationale = prog.Source()
		f.Evidence = conditionEvidence(prog, env)
		violated[rl.ID] = true
		logger.Warn("violation detected", "rule_id", rl.ID, "severity", rl.Severity)
	default:
		f.Verdict = findings.VerdictCompliant
		f.Rationale = prog.Source()
	}

	f.Related = relatedViolations(rl.Related, violated)
	res.Findings = append(res.Findings, f)
	if w.metrics != nil {
		w.metrics.RecordEvaluation(f.Verdict.String())
	}
}

// judgeRule delegates a condition-less rule to the model judge. The
// judge substituting for deterministic evaluation is always logged.
func (w *Workflow) judgeRule(ctx context.Context, rec *record.Record, cand retrieval.Candidate, violated map[string]bool, res *Result, logger *slog.Logger) {
	rl := cand.Rule
	f := findings.Finding{
		RuleID:     rl.ID,
		Severity:   rl.Severity,
		Score:      cand.Score,
		LLMDerived: true,
		DetectedAt: w.now(),
	}

	if w.judge == nil {
		f.Verdict = findings.VerdictIndeterminate
		f.Rationale = "rule has no deterministic condition and no judge is configured"
		logger.Info("no judge configured for condition-less rule", "rule_id", rl.ID)
	} else {
		logger.Info("delegating rule to model judge", "rule_id", rl.ID)
		judgment, err := judgeWithTimeout(ctx, w.judge, w.cfg.JudgeTimeout, rl, rec)
		if err != nil {
			// Judge failures are handled like indeterminate data.
			f.Verdict = findings.VerdictIndeterminate
			f.Rationale = fmt.Sprintf("judge call failed: %v", err)
			logger.Warn("judge call failed", "rule_id", rl.ID, "error", err)
		} else {
			f.Verdict = judgment.Verdict
			f.Rationale = judgment.Rationale
			if judgment.Verdict == findings.VerdictViolation {
				violated[rl.ID] = true
				logger.Warn("violation detected by judge", "rule_id", rl.ID, "severity", rl.Severity)
			}
		}
	}

	f.Related = relatedViolations(rl.Related, violated)
	res.Findings = append(res.Findings, f)
	if w.metrics != nil {
		w.metrics.RecordEvaluation(f.Verdict.String())
	}
}

// conditionEvidence collects the record values the condition read.
func conditionEvidence(prog *expr.Program, env map[string]any) map[string]any {
	fields := prog.Fields()
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for _, name := range fields {
		if val, ok := env[name]; ok {
			out[name] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// relatedViolations returns the subset of related rule IDs that
// violated earlier in this run, in declaration order.
func relatedViolations(related []string, violated map[string]bool) []string {
	var out []string
	for _, id := range related {
		if violated[id] {
			out = append(out, id)
		}
	}
	return out
}

func (w *Workflow) complete(res *Result, logger *slog.Logger) *Result {
	res.State = StateCompleted
	res.FinishedAt = w.now()
	w.observeRun(res)
	logger.Info("audit run completed",
		"evaluated", res.Evaluated,
		"findings", len(res.Findings),
		"skipped", len(res.Skipped),
		"duration", res.FinishedAt.Sub(res.StartedAt),
	)
	return res
}

func (w *Workflow) abort(res *Result, cause AbortCause, logger *slog.Logger) *Result {
	res.State = StateAborted
	res.Cause = cause
	res.FinishedAt = w.now()
	w.observeRun(res)
	logger.Error("audit run aborted",
		"cause", string(cause),
		"findings", len(res.Findings),
	)
	return res
}

func (w *Workflow) observeRun(res *Result) {
	if w.metrics != nil {
		w.metrics.RecordRun(res.State.String(), res.FinishedAt.Sub(res.StartedAt).Seconds())
	}
}
