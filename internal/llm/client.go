// Package llm talks to the language model behind the analysis stage.
package llm

import "context"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the consumed model surface. Invoke returns the raw response
// value; its shape depends on the backend, so callers normalize it
// themselves before use.
type Client interface {
	Invoke(ctx context.Context, messages []Message) (any, error)
	Ping(ctx context.Context) error
}
