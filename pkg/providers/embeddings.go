package providers

import (
	"context"
	"sync"
)

// EmbeddingClient talks to the /embeddings endpoint of an
// OpenAI-compatible gateway. Vectors are memoized by input text, so
// embedding the same rule or record search text twice within a process
// returns the identical vector without a second request.
type EmbeddingClient struct {
	base *httpBase

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewEmbeddingClient creates an embeddings client. Call
// config.ApplyDefaults first.
func NewEmbeddingClient(config Config) *EmbeddingClient {
	return &EmbeddingClient{
		base:  newHTTPBase(config),
		cache: make(map[string][]float32),
	}
}

// Name returns the configured provider name.
func (c *EmbeddingClient) Name() string {
	return c.base.config.Name
}

type wireEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type wireEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage Usage `json:"usage"`
}

// Embed returns the embedding vector for text, from cache when available.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.RLock()
	vec, ok := c.cache[text]
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	wire := wireEmbeddingRequest{
		Model: c.base.config.EmbeddingModel,
		Input: []string{text},
	}

	var resp wireEmbeddingResponse
	if err := c.base.doJSON(ctx, c.base.config.endpoint("/embeddings"), &wire, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &ParseError{
			Provider: c.base.config.Name,
			Cause:    errNoEmbedding,
		}
	}

	vec = resp.Data[0].Embedding

	c.mu.Lock()
	c.cache[text] = vec
	c.mu.Unlock()

	return vec, nil
}

// CacheSize returns the number of memoized vectors.
func (c *EmbeddingClient) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
