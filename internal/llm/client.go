package llm

import (
	"context"
	"encoding/json"
)

// Message is one turn of the prompt sent to the inference provider.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Completion is the provider's answer to a prompt. Raw carries the
// provider's message payload verbatim so callers can extract a reply
// defensively when Text is empty or the shape is unexpected.
type Completion struct {
	Text             string
	Raw              json.RawMessage
	PromptTokens     int
	CompletionTokens int
}

// Client is the inference collaborator boundary. Implementations are
// opaque request/response services; retry policy belongs to them, not to
// callers.
type Client interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
	Model() string
}

// Config holds inference client configuration.
type Config struct {
	APIKey    string
	BaseURL   string // Optional: custom API endpoint
	Model     string
	MaxTokens int
}
