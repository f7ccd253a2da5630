package llm

import (
	"context"
	"errors"
)

// ErrGenerationUnavailable wraps any failure to reach or get a response
// from the language model backend. Retrieval does not depend on it;
// callers can still serve raw search results when generation is down.
var ErrGenerationUnavailable = errors.New("generation backend unavailable")

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// Client is a chat-capable language model backend.
type Client interface {
	// Chat sends the conversation and returns the assistant's reply.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Complete answers a bare prompt with no additional context.
	Complete(ctx context.Context, prompt string) (string, error)

	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Name returns the name of this backend.
	Name() string
}
