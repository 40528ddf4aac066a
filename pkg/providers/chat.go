package providers

import (
	"context"
)

// Message is a single turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	// Messages is the conversation so far, system prompt included.
	Messages []Message

	// MaxTokens caps the completion length. Zero means gateway default.
	MaxTokens int

	// Temperature overrides the configured sampling temperature when
	// non-nil.
	Temperature *float64
}

// ChatResponse is a completed chat turn.
type ChatResponse struct {
	// Content is the assistant's reply text.
	Content string

	// Model is the model that produced the reply, as reported by the
	// gateway.
	Model string

	// FinishReason is the gateway's stop reason, e.g. "stop" or "length".
	FinishReason string

	// Usage reports token consumption.
	Usage Usage
}

// Usage reports token counts for a single request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatClient talks to the /chat/completions endpoint of an
// OpenAI-compatible gateway.
type ChatClient struct {
	base *httpBase
}

// NewChatClient creates a chat client. Call config.ApplyDefaults first.
func NewChatClient(config Config) *ChatClient {
	return &ChatClient{base: newHTTPBase(config)}
}

// Name returns the configured provider name.
func (c *ChatClient) Name() string {
	return c.base.config.Name
}

type wireChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type wireChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Complete sends a chat request and returns the first choice.
func (c *ChatClient) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	temperature := c.base.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	wire := wireChatRequest{
		Model:       c.base.config.Model,
		Messages:    req.Messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}

	var resp wireChatResponse
	if err := c.base.doJSON(ctx, c.base.config.endpoint("/chat/completions"), &wire, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, &ParseError{
			Provider: c.base.config.Name,
			Cause:    errNoChoices,
		}
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Usage:        resp.Usage,
	}, nil
}
