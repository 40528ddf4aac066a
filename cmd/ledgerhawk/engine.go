package main

import (
	"context"
	"fmt"

	"ledgerhawk-hq/ledgerhawk/pkg/audit"
	"ledgerhawk-hq/ledgerhawk/pkg/config"
	"ledgerhawk-hq/ledgerhawk/pkg/corpus"
	"ledgerhawk-hq/ledgerhawk/pkg/expr"
	"ledgerhawk-hq/ledgerhawk/pkg/findings/storage"
	"ledgerhawk-hq/ledgerhawk/pkg/providers"
	"ledgerhawk-hq/ledgerhawk/pkg/retrieval"
	"ledgerhawk-hq/ledgerhawk/pkg/rule"
	"ledgerhawk-hq/ledgerhawk/pkg/telemetry/logging"
	"ledgerhawk-hq/ledgerhawk/pkg/telemetry/metrics"
)

// engine wires the configured components of a full audit setup.
type engine struct {
	cfg     *config.Config
	rules   []*rule.Rule
	corpus  *corpus.Corpus
	embed   *providers.EmbeddingClient
	metrics *metrics.Metrics
	store   storage.Store
	pool    *audit.Pool
}

// loadConfigAndLogging reads the configuration and installs the logger.
// Split from buildEngine so validation-only commands skip the gateway
// and index setup.
func loadConfigAndLogging() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if _, err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// evaluatorOptions converts the evaluator config section.
func evaluatorOptions(cfg *config.Config) *expr.Options {
	return &expr.Options{
		Epsilon:   cfg.Evaluator.Epsilon,
		MaxLength: cfg.Evaluator.MaxLength,
		MaxDepth:  cfg.Evaluator.MaxDepth,
	}
}

// buildEngine loads the rulebook, builds the retrieval index, and wires
// the workflow pool. Building embeds every rule, so it needs the
// embedding gateway reachable.
func buildEngine(ctx context.Context) (*engine, error) {
	cfg, err := loadConfigAndLogging()
	if err != nil {
		return nil, err
	}

	rules, err := corpus.LoadRules(cfg.Rulebook.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load rulebook: %w", err)
	}

	embed := providers.NewEmbeddingClient(cfg.Providers.Embedding)
	c, err := corpus.Build(ctx, rules, embed, evaluatorOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to build rule index: %w", err)
	}

	ranker, err := retrieval.NewRanker(c, embed, &retrieval.Config{
		Alpha:         cfg.Retrieval.Alpha,
		Threshold:     cfg.Retrieval.Threshold,
		TopK:          cfg.Retrieval.TopK,
		MaxQueryRunes: cfg.Retrieval.MaxQueryRunes,
	})
	if err != nil {
		return nil, err
	}

	var judge audit.Judge
	if cfg.Audit.UseJudge {
		judge = audit.NewLLMJudge(providers.NewChatClient(cfg.Providers.Chat))
	}

	m := metrics.New()
	workflow, err := audit.New(c, ranker, cfg.Audit, &audit.Options{
		Judge:   judge,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	return &engine{
		cfg:     cfg,
		rules:   rules,
		corpus:  c,
		embed:   embed,
		metrics: m,
		store:   store,
		pool:    audit.NewPool(workflow, cfg.Audit.Workers, store),
	}, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		return storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Close releases the engine's resources.
func (e *engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
