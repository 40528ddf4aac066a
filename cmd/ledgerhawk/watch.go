package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ledgerhawk-hq/ledgerhawk/pkg/audit"
	"ledgerhawk-hq/ledgerhawk/pkg/corpus"
	"ledgerhawk-hq/ledgerhawk/pkg/findings/retention"
	"ledgerhawk-hq/ledgerhawk/pkg/providers"
	"ledgerhawk-hq/ledgerhawk/pkg/record"
	"ledgerhawk-hq/ledgerhawk/pkg/retrieval"
)

var watchRecordsDir string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the rulebook and re-audit records on change",
	Long: `Watch runs as a long-lived process. It audits every record in
--records-dir, then watches the rulebook file; whenever the rulebook
changes, the rule index is rebuilt and the records are re-audited
against the new rules. Results are persisted to the configured store,
aged runs are pruned on the retention schedule, and Prometheus metrics
are served when enabled.

A rulebook edit that fails to load keeps the previous index in service.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRecordsDir, "records-dir", "", "directory of record JSON files (required)")
	watchCmd.MarkFlagRequired("records-dir")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()
	logger := slog.Default().With("component", "watch")

	if eng.cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", eng.metrics.Handler())
		server := &http.Server{
			Addr:              eng.cfg.Telemetry.Metrics.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics listener started", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
		defer server.Close()
	}

	pruner := retention.NewPruner(eng.store, retention.Config{
		RetentionDays: eng.cfg.Storage.RetentionDays,
		Schedule:      eng.cfg.Storage.RetentionSchedule,
	})
	scheduler := retention.NewScheduler(pruner)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	if err := auditDirectory(ctx, eng, logger); err != nil {
		return err
	}

	watcher, err := corpus.NewWatcher(&corpus.WatcherConfig{
		Path:             eng.cfg.Rulebook.Path,
		DebounceInterval: eng.cfg.Rulebook.DebounceInterval,
	})
	if err != nil {
		return err
	}

	return watcher.Watch(ctx, func() error {
		if err := reloadEngine(ctx, eng); err != nil {
			return err
		}
		return auditDirectory(ctx, eng, logger)
	})
}

// reloadEngine rebuilds the rule index and the audit pool in place.
// On failure the engine keeps serving the previous index.
func reloadEngine(ctx context.Context, eng *engine) error {
	rules, err := corpus.LoadRules(eng.cfg.Rulebook.Path)
	if err != nil {
		return fmt.Errorf("failed to reload rulebook: %w", err)
	}

	c, err := corpus.Build(ctx, rules, eng.embed, evaluatorOptions(eng.cfg))
	if err != nil {
		return fmt.Errorf("failed to rebuild rule index: %w", err)
	}

	ranker, err := retrieval.NewRanker(c, eng.embed, &retrieval.Config{
		Alpha:         eng.cfg.Retrieval.Alpha,
		Threshold:     eng.cfg.Retrieval.Threshold,
		TopK:          eng.cfg.Retrieval.TopK,
		MaxQueryRunes: eng.cfg.Retrieval.MaxQueryRunes,
	})
	if err != nil {
		return err
	}

	var judge audit.Judge
	if eng.cfg.Audit.UseJudge {
		judge = audit.NewLLMJudge(providers.NewChatClient(eng.cfg.Providers.Chat))
	}

	workflow, err := audit.New(c, ranker, eng.cfg.Audit, &audit.Options{
		Judge:   judge,
		Metrics: eng.metrics,
	})
	if err != nil {
		return err
	}

	eng.rules = rules
	eng.corpus = c
	eng.pool = audit.NewPool(workflow, eng.cfg.Audit.Workers, eng.store)
	return nil
}

// auditDirectory audits every .json record in the watched directory.
func auditDirectory(ctx context.Context, eng *engine, logger *slog.Logger) error {
	paths, err := filepath.Glob(filepath.Join(watchRecordsDir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		logger.Warn("no record files found", "dir", watchRecordsDir)
		return nil
	}

	recs := make([]*record.Record, 0, len(paths))
	for _, path := range paths {
		rec, err := record.Load(path)
		if err != nil {
			logger.Error("skipping unreadable record", "path", path, "error", err)
			continue
		}
		recs = append(recs, rec)
	}

	outcomes := eng.pool.RunAll(ctx, recs)
	for _, out := range outcomes {
		if out.Err != nil {
			logger.Error("audit failed", "record", out.Record.Name, "error", out.Err)
			continue
		}
		logger.Info("audit finished",
			"record", out.Result.RecordName,
			"state", out.Result.State.String(),
			"findings", len(out.Result.Findings),
		)
	}
	return nil
}
