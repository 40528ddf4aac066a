package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns
// any errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention LEDGERHAWK_SECTION_FIELD and always take precedence over
// file values.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like LoadConfigWithEnvOverrides when path
// exists, and otherwise starts from defaults, so a config file is not
// required when environment variables carry the gateway settings.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadConfigWithEnvOverrides(path)
	}

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a configuration with all defaults applied and no
// file input. Useful for tests and for running against a local gateway.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	// Rulebook overrides
	if val := os.Getenv("LEDGERHAWK_RULEBOOK_PATH"); val != "" {
		cfg.Rulebook.Path = val
	}
	if val := os.Getenv("LEDGERHAWK_RULEBOOK_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rulebook.Watch = b
		}
	}

	// Retrieval overrides
	if val := os.Getenv("LEDGERHAWK_RETRIEVAL_ALPHA"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Retrieval.Alpha = f
		}
	}
	if val := os.Getenv("LEDGERHAWK_RETRIEVAL_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Retrieval.Threshold = f
		}
	}
	if val := os.Getenv("LEDGERHAWK_RETRIEVAL_TOP_K"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Retrieval.TopK = n
		}
	}

	// Audit overrides
	if val := os.Getenv("LEDGERHAWK_AUDIT_USE_JUDGE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.UseJudge = b
		}
	}
	if val := os.Getenv("LEDGERHAWK_AUDIT_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Workers = n
		}
	}

	// Provider overrides. API keys are the common case for env config.
	if val := os.Getenv("LEDGERHAWK_CHAT_BASE_URL"); val != "" {
		cfg.Providers.Chat.BaseURL = val
	}
	if val := os.Getenv("LEDGERHAWK_CHAT_API_KEY"); val != "" {
		cfg.Providers.Chat.APIKey = val
	}
	if val := os.Getenv("LEDGERHAWK_CHAT_MODEL"); val != "" {
		cfg.Providers.Chat.Model = val
	}
	if val := os.Getenv("LEDGERHAWK_CHAT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Providers.Chat.Timeout = d
		}
	}
	if val := os.Getenv("LEDGERHAWK_EMBEDDING_BASE_URL"); val != "" {
		cfg.Providers.Embedding.BaseURL = val
	}
	if val := os.Getenv("LEDGERHAWK_EMBEDDING_API_KEY"); val != "" {
		cfg.Providers.Embedding.APIKey = val
	}
	if val := os.Getenv("LEDGERHAWK_EMBEDDING_MODEL"); val != "" {
		cfg.Providers.Embedding.EmbeddingModel = val
	}

	// Storage overrides
	if val := os.Getenv("LEDGERHAWK_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("LEDGERHAWK_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLitePath = val
	}
	if val := os.Getenv("LEDGERHAWK_STORAGE_RETENTION_DAYS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Storage.RetentionDays = n
		}
	}

	// Telemetry overrides
	if val := os.Getenv("LEDGERHAWK_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("LEDGERHAWK_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("LEDGERHAWK_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("LEDGERHAWK_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}
