package config

import (
	"time"

	"ledgerhawk-hq/ledgerhawk/pkg/providers"
)

// Config is the root configuration for the audit engine.
type Config struct {
	// Rulebook configures where rules are loaded from.
	Rulebook RulebookConfig `yaml:"rulebook"`

	// Retrieval configures the hybrid ranker.
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Evaluator configures the condition expression engine.
	Evaluator EvaluatorConfig `yaml:"evaluator"`

	// Audit configures workflow behavior during a run.
	Audit AuditConfig `yaml:"audit"`

	// Providers configures the model gateways.
	Providers ProvidersConfig `yaml:"providers"`

	// Storage configures findings persistence.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulebookConfig locates the rule corpus.
type RulebookConfig struct {
	// Path is the rulebook JSONL file, one rule per line.
	Path string `yaml:"path"`

	// Watch enables hot reload of the rulebook on file change.
	Watch bool `yaml:"watch"`

	// DebounceInterval coalesces rapid file events into one reload.
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// RetrievalConfig tunes the hybrid keyword and semantic ranker.
type RetrievalConfig struct {
	// Alpha is the keyword weight in the blended score. The semantic
	// weight is 1 - Alpha.
	Alpha float64 `yaml:"alpha"`

	// Threshold is the minimum blended score for a candidate to surface.
	Threshold float64 `yaml:"threshold"`

	// TopK caps the number of candidates returned.
	TopK int `yaml:"top_k"`

	// MaxQueryRunes truncates record search text before embedding.
	MaxQueryRunes int `yaml:"max_query_runes"`
}

// EvaluatorConfig tunes the condition expression engine.
type EvaluatorConfig struct {
	// Epsilon is the tolerance for float equality comparisons.
	Epsilon float64 `yaml:"epsilon"`

	// MaxLength rejects condition source longer than this many bytes.
	MaxLength int `yaml:"max_length"`

	// MaxDepth rejects conditions nested deeper than this.
	MaxDepth int `yaml:"max_depth"`
}

// AuditConfig tunes workflow behavior.
type AuditConfig struct {
	// RetrievalRetries is the number of retries after a failed
	// retrieval phase before the run aborts.
	RetrievalRetries int `yaml:"retrieval_retries"`

	// RetryBackoff is the base delay for exponential backoff between
	// retrieval attempts.
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// JudgeTimeout bounds a single model judgment call.
	JudgeTimeout time.Duration `yaml:"judge_timeout"`

	// UseJudge enables model judgments for rules without a machine
	// condition. When false those rules yield indeterminate findings.
	UseJudge bool `yaml:"use_judge"`

	// Workers is the number of concurrent audit runs the pool accepts.
	Workers int `yaml:"workers"`
}

// ProvidersConfig holds the chat and embedding gateway settings.
type ProvidersConfig struct {
	// Chat backs the audit judge.
	Chat providers.Config `yaml:"chat"`

	// Embedding backs the retrieval index.
	Embedding providers.Config `yaml:"embedding"`
}

// StorageConfig configures findings persistence.
type StorageConfig struct {
	// Backend selects the store: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays prunes runs older than this. Zero disables pruning.
	RetentionDays int `yaml:"retention_days"`

	// RetentionSchedule is the cron expression for the pruning job.
	RetentionSchedule string `yaml:"retention_schedule"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics listener on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the host:port for the /metrics endpoint.
	ListenAddress string `yaml:"listen_address"`
}
