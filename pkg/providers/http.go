package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// httpBase is the shared transport for the chat and embedding clients.
// It provides connection pooling, retry logic, and timeout handling.
type httpBase struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

func newHTTPBase(config Config) *httpBase {
	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &httpBase{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "providers", "provider", config.Name),
	}
}

// doJSON performs a POST with a JSON body and decodes the JSON response.
// Transient errors (network failures, 5xx) are retried with exponential
// backoff. Authentication, rate limit, and client errors are returned
// immediately as typed errors.
func (b *httpBase) doJSON(ctx context.Context, url string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= b.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			b.logger.Debug("retrying request",
				"attempt", attempt,
				"max_retries", b.config.MaxRetries,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if b.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+b.config.APIKey)
		}

		resp, err := b.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &TimeoutError{Provider: b.config.Name, Timeout: b.config.Timeout}
			}
			lastErr = &ProviderError{Provider: b.config.Name, Message: err.Error(), Cause: err}
			b.logger.Warn("request failed, will retry", "attempt", attempt+1, "error", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = &ProviderError{Provider: b.config.Name, Message: readErr.Error(), Cause: readErr}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if err := json.Unmarshal(body, respBody); err != nil {
				return &ParseError{
					Provider:    b.config.Name,
					RawResponse: string(body),
					Cause:       err,
				}
			}
			return nil
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{Provider: b.config.Name, Message: string(body)}

		case http.StatusTooManyRequests:
			return &RateLimitError{
				Provider:   b.config.Name,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    string(body),
			}

		case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
			return &ProviderError{
				Provider:   b.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(body),
			}

		default:
			lastErr = &ProviderError{
				Provider:   b.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(body),
			}
			b.logger.Warn("request returned error status, will retry",
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	return lastErr
}
