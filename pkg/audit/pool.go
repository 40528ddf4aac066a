package audit

import (
	"context"
	"log/slog"
	"sync"

	"ledgerhawk-hq/ledgerhawk/pkg/findings/storage"
	"ledgerhawk-hq/ledgerhawk/pkg/record"
)

// Outcome pairs one record with its run result. Err is set when the run
// could not execute at all (sequencing bug or pool cancellation);
// operational aborts are inside Result.
type Outcome struct {
	Record *record.Record
	Result *Result
	Err    error
}

// Pool executes independent audit runs concurrently on a bounded number
// of workers. Runs share the workflow's read-only corpus; each run's
// state is exclusively owned, so no locking is needed between them.
type Pool struct {
	workflow *Workflow
	store    storage.Store
	workers  int
	logger   *slog.Logger
}

// NewPool creates a pool over workflow. A nil store disables
// persistence. Workers below 1 are clamped to 1.
func NewPool(workflow *Workflow, workers int, store storage.Store) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workflow: workflow,
		store:    store,
		workers:  workers,
		logger:   slog.Default().With("component", "audit.pool"),
	}
}

// RunAll audits every record and returns outcomes in input order.
// Terminal results are persisted to the store when one is configured;
// a persistence failure is logged, not propagated, because the findings
// have already been reported to the caller.
func (p *Pool) RunAll(ctx context.Context, recs []*record.Record) []Outcome {
	outcomes := make([]Outcome, len(recs))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, rec := range recs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			outcomes[i] = Outcome{Record: rec, Err: ctx.Err()}
			continue
		}

		wg.Add(1)
		go func(i int, rec *record.Record) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = p.runOne(ctx, rec)
		}(i, rec)
	}

	wg.Wait()
	return outcomes
}

// Run audits a single record through the pool, persisting the result.
func (p *Pool) Run(ctx context.Context, rec *record.Record) (*Result, error) {
	out := p.runOne(ctx, rec)
	return out.Result, out.Err
}

func (p *Pool) runOne(ctx context.Context, rec *record.Record) Outcome {
	res, err := p.workflow.Run(ctx, rec)
	if err != nil {
		return Outcome{Record: rec, Err: err}
	}

	if p.store != nil {
		if err := p.store.SaveRun(ctx, res.Persisted()); err != nil {
			p.logger.Error("failed to persist run",
				"run_id", res.RunID,
				"error", err,
			)
		}
	}
	return Outcome{Record: rec, Result: res}
}
