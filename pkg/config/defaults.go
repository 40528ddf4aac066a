package config

import "time"

// Default values for configuration fields.
const (
	// Rulebook defaults
	DefaultRulebookPath     = "./rules.jsonl"
	DefaultDebounceInterval = 250 * time.Millisecond

	// Retrieval defaults. Alpha weights keywords at 0.3, leaving 0.7
	// for the semantic score.
	DefaultRetrievalAlpha     = 0.3
	DefaultRetrievalThreshold = 0.35
	DefaultRetrievalTopK      = 20
	DefaultMaxQueryRunes      = 1000

	// Evaluator defaults
	DefaultEvaluatorEpsilon = 1e-6
	DefaultConditionLength  = 4096
	DefaultConditionDepth   = 32

	// Audit defaults
	DefaultRetrievalRetries = 3
	DefaultRetryBackoff     = 500 * time.Millisecond
	DefaultJudgeTimeout     = 120 * time.Second
	DefaultAuditWorkers     = 4

	// Storage defaults
	DefaultStorageBackend   = "sqlite"
	DefaultSQLitePath       = "data/findings.db"
	DefaultRetentionDays    = 90
	DefaultRetentionCron    = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsListenAddress = "127.0.0.1:9464"
)

// ApplyDefaults fills zero-valued fields in cfg with default values.
// Explicit values in the configuration file are never overwritten.
func ApplyDefaults(cfg *Config) {
	if cfg.Rulebook.Path == "" {
		cfg.Rulebook.Path = DefaultRulebookPath
	}
	if cfg.Rulebook.DebounceInterval == 0 {
		cfg.Rulebook.DebounceInterval = DefaultDebounceInterval
	}

	if cfg.Retrieval.Alpha == 0 {
		cfg.Retrieval.Alpha = DefaultRetrievalAlpha
	}
	if cfg.Retrieval.Threshold == 0 {
		cfg.Retrieval.Threshold = DefaultRetrievalThreshold
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultRetrievalTopK
	}
	if cfg.Retrieval.MaxQueryRunes == 0 {
		cfg.Retrieval.MaxQueryRunes = DefaultMaxQueryRunes
	}

	if cfg.Evaluator.Epsilon == 0 {
		cfg.Evaluator.Epsilon = DefaultEvaluatorEpsilon
	}
	if cfg.Evaluator.MaxLength == 0 {
		cfg.Evaluator.MaxLength = DefaultConditionLength
	}
	if cfg.Evaluator.MaxDepth == 0 {
		cfg.Evaluator.MaxDepth = DefaultConditionDepth
	}

	if cfg.Audit.RetrievalRetries == 0 {
		cfg.Audit.RetrievalRetries = DefaultRetrievalRetries
	}
	if cfg.Audit.RetryBackoff == 0 {
		cfg.Audit.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Audit.JudgeTimeout == 0 {
		cfg.Audit.JudgeTimeout = DefaultJudgeTimeout
	}
	if cfg.Audit.Workers == 0 {
		cfg.Audit.Workers = DefaultAuditWorkers
	}

	if cfg.Providers.Chat.Name == "" {
		cfg.Providers.Chat.Name = "chat"
	}
	cfg.Providers.Chat.ApplyDefaults()
	if cfg.Providers.Embedding.Name == "" {
		cfg.Providers.Embedding.Name = "embedding"
	}
	cfg.Providers.Embedding.ApplyDefaults()

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = DefaultSQLitePath
	}
	if cfg.Storage.RetentionDays == 0 {
		cfg.Storage.RetentionDays = DefaultRetentionDays
	}
	if cfg.Storage.RetentionSchedule == "" {
		cfg.Storage.RetentionSchedule = DefaultRetentionCron
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
}
