// Package providers implements clients for OpenAI-compatible model
// gateways such as DeepSeek, Ollama, and vLLM.
//
// Two capabilities are exposed. Chat completions back the audit judge,
// which reasons about a rule against an accounting record. Embeddings
// back the retrieval index and ranker.
//
// Both clients share an HTTP base with connection pooling, exponential
// backoff on transient failures, and typed errors (AuthError,
// RateLimitError, TimeoutError, ProviderError) so callers can tell
// permanent failures from retryable ones.
//
// # Basic Usage
//
//	config := providers.Config{
//	    Name:    "deepseek",
//	    BaseURL: "https://api.deepseek.com/v1",
//	    APIKey:  os.Getenv("DEEPSEEK_API_KEY"),
//	    Model:   "deepseek-chat",
//	}
//	config.ApplyDefaults()
//
//	chat := providers.NewChatClient(config)
//	resp, err := chat.Complete(ctx, &providers.ChatRequest{
//	    Messages: []providers.Message{{Role: "user", Content: "..."}},
//	})
//
// The embeddings client additionally memoizes vectors by input text, so
// repeated retrievals over the same rulebook do not re-embed identical
// search text and stay deterministic within a process:
//
//	emb := providers.NewEmbeddingClient(config)
//	vec, err := emb.Embed(ctx, "流动比率 货币资金 短期借款")
package providers
