package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaURL is the address of a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaConfig holds configuration for the native Ollama provider.
type OllamaConfig struct {
	BaseURL string        // e.g., "http://localhost:11434"
	Model   string        // e.g., "llama3.2"
	Timeout time.Duration // zero means no client-side timeout
}

// OllamaProvider connects to Ollama through its native /api/chat endpoint.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg OllamaConfig) (*OllamaProvider, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultOllamaURL
	}
	// The native client appends /api itself.
	raw = strings.TrimSuffix(strings.TrimSuffix(raw, "/"), "/v1")

	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url %q: %w", raw, err)
	}

	return &OllamaProvider{
		client: api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
	}, nil
}

// WithModel returns a copy of the provider bound to model.
func (p *OllamaProvider) WithModel(model string) Provider {
	cp := *p
	cp.model = model
	return &cp
}

// Complete generates a non-streaming response.
func (p *OllamaProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	slog.Debug("ollama complete request", "model", p.model, "message_count", len(messages))

	stream := false
	req := p.chatRequest(messages, &stream)

	var content strings.Builder
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		slog.Error("ollama request failed", "err", err)
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	return content.String(), nil
}

// Stream generates a streaming response.
func (p *OllamaProvider) Stream(ctx context.Context, messages []Message) (<-chan StreamEvent, error) {
	slog.Debug("ollama stream request", "model", p.model, "message_count", len(messages))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stream := true
	req := p.chatRequest(messages, &stream)

	ch := make(chan StreamEvent)

	go func() {
		defer close(ch)

		err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				if !send(ctx, ch, StreamEvent{Content: resp.Message.Content}) {
					return ctx.Err()
				}
			}
			if resp.Done {
				send(ctx, ch, StreamEvent{Done: true})
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			send(ctx, ch, StreamEvent{Error: fmt.Errorf("ollama chat: %w", err), Done: true})
		}
	}()

	return ch, nil
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

func (p *OllamaProvider) chatRequest(messages []Message, stream *bool) *api.ChatRequest {
	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: m.Role, Content: m.Content}
	}
	return &api.ChatRequest{
		Model:    p.model,
		Messages: msgs,
		Stream:   stream,
	}
}

var (
	_ Provider      = (*OllamaProvider)(nil)
	_ ModelSelector = (*OllamaProvider)(nil)
)
