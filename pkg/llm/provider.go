// Package llm provides a pluggable interface for text generation providers.
package llm

import "context"

// Provider generates LLM completions.
//
// Implementations return failures as errors; callers higher up decide how
// those are presented. Stream producers must stop sending and release their
// transport once ctx is cancelled.
type Provider interface {
	// Complete generates a response for the given messages (non-streaming).
	Complete(ctx context.Context, messages []Message) (string, error)

	// Stream generates a streaming response.
	// The returned channel receives events until the response is complete or an error occurs.
	// The channel is closed when streaming is done.
	Stream(ctx context.Context, messages []Message) (<-chan StreamEvent, error)

	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// ModelSelector is implemented by providers that can serve more than one
// model. WithModel returns a provider bound to model; the receiver is not
// modified.
type ModelSelector interface {
	WithModel(model string) Provider
}

// Role constants for Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a conversation message.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// StreamEvent represents a chunk of streaming response.
type StreamEvent struct {
	Content string // text chunk (may be empty for final event)
	Done    bool   // true if this is the final event
	Error   error  // non-nil if an error occurred
}

// send delivers ev on ch unless ctx is cancelled first.
// It reports whether the event was delivered.
func send(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// lastUserMessage returns the content of the final user message, if any.
func lastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
