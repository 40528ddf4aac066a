package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "retrieval.alpha").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. All validation errors are
// collected and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRulebook(&cfg.Rulebook)...)
	errs = append(errs, validateRetrieval(&cfg.Retrieval)...)
	errs = append(errs, validateEvaluator(&cfg.Evaluator)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateProviders(cfg)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateRulebook(cfg *RulebookConfig) []FieldError {
	var errs []FieldError
	if cfg.Path == "" {
		errs = append(errs, FieldError{"rulebook.path", "must not be empty"})
	}
	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{"rulebook.debounce_interval", "must be non-negative"})
	}
	return errs
}

func validateRetrieval(cfg *RetrievalConfig) []FieldError {
	var errs []FieldError
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		errs = append(errs, FieldError{"retrieval.alpha",
			fmt.Sprintf("must be in [0, 1], got %g", cfg.Alpha)})
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		errs = append(errs, FieldError{"retrieval.threshold",
			fmt.Sprintf("must be in [0, 1], got %g", cfg.Threshold)})
	}
	if cfg.TopK < 1 {
		errs = append(errs, FieldError{"retrieval.top_k", "must be at least 1"})
	}
	if cfg.MaxQueryRunes < 1 {
		errs = append(errs, FieldError{"retrieval.max_query_runes", "must be at least 1"})
	}
	return errs
}

func validateEvaluator(cfg *EvaluatorConfig) []FieldError {
	var errs []FieldError
	if cfg.Epsilon <= 0 {
		errs = append(errs, FieldError{"evaluator.epsilon", "must be positive"})
	}
	if cfg.MaxLength < 1 {
		errs = append(errs, FieldError{"evaluator.max_length", "must be at least 1"})
	}
	if cfg.MaxDepth < 1 {
		errs = append(errs, FieldError{"evaluator.max_depth", "must be at least 1"})
	}
	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError
	if cfg.RetrievalRetries < 0 {
		errs = append(errs, FieldError{"audit.retrieval_retries", "must be non-negative"})
	}
	if cfg.RetryBackoff < 0 {
		errs = append(errs, FieldError{"audit.retry_backoff", "must be non-negative"})
	}
	if cfg.JudgeTimeout <= 0 {
		errs = append(errs, FieldError{"audit.judge_timeout", "must be positive"})
	}
	if cfg.Workers < 1 {
		errs = append(errs, FieldError{"audit.workers", "must be at least 1"})
	}
	return errs
}

func validateProviders(cfg *Config) []FieldError {
	var errs []FieldError

	// The retrieval index cannot build without an embedding gateway.
	if err := cfg.Providers.Embedding.Validate(); err != nil {
		errs = append(errs, FieldError{"providers.embedding", err.Error()})
	}

	// The chat gateway is only needed when model judgments are enabled.
	if cfg.Audit.UseJudge {
		if err := cfg.Providers.Chat.Validate(); err != nil {
			errs = append(errs, FieldError{"providers.chat", err.Error()})
		}
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError
	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{"storage.backend",
			fmt.Sprintf("must be %q or %q, got %q", "memory", "sqlite", cfg.Backend)})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{"storage.sqlite_path", "must not be empty for sqlite backend"})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{"storage.retention_days", "must be non-negative"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level",
			fmt.Sprintf("must be one of debug, info, warn, error; got %q", cfg.Logging.Level)})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format",
			fmt.Sprintf("must be %q or %q, got %q", "json", "text", cfg.Logging.Format)})
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		errs = append(errs, FieldError{"telemetry.metrics.listen_address",
			"must not be empty when metrics are enabled"})
	}
	return errs
}
