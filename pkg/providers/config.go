package providers

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the connection settings for an OpenAI-compatible gateway.
type Config struct {
	// Name identifies the provider in logs and errors
	Name string `yaml:"name"`

	// BaseURL is the gateway root, e.g. "https://api.deepseek.com/v1"
	// or "http://localhost:11434/v1" for Ollama
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token. May be empty for local gateways.
	APIKey string `yaml:"api_key"`

	// Model is the chat model identifier, e.g. "deepseek-chat"
	Model string `yaml:"model"`

	// EmbeddingModel is the embeddings model identifier,
	// e.g. "text-embedding-3-small" or "nomic-embed-text"
	EmbeddingModel string `yaml:"embedding_model"`

	// Temperature is the sampling temperature for chat completions.
	// Audit judgments want near-deterministic output, so this defaults low.
	Temperature float64 `yaml:"temperature"`

	// Timeout is the per-request timeout
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries for transient failures
	MaxRetries int `yaml:"max_retries"`

	// Connection pool settings.
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "gateway"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("provider %q: base_url is required", c.Name)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("provider %q: base_url must start with http:// or https://", c.Name)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("provider %q: temperature must be in [0, 2], got %g", c.Name, c.Temperature)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("provider %q: max_retries must be non-negative", c.Name)
	}
	return nil
}

// endpoint joins the base URL with a path, tolerating a trailing slash.
func (c *Config) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}
