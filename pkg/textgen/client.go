// Package textgen performs single generation exchanges against an llm.Provider
// and normalizes provider failures into marked error text.
//
// A Client never retries and never returns an error value: callers either
// read the final text or range over fragments, and failures arrive in-band
// as text starting with ErrorPrefix.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/shanemcd/alchemy/pkg/llm"
	"github.com/shanemcd/alchemy/pkg/stream"
)

var (
	// ErrNoSystemPrompt is reported when Generate is called without a system prompt.
	ErrNoSystemPrompt = errors.New("system prompt is required")

	// ErrNoMessages is reported when Chat is called with an empty conversation.
	ErrNoMessages = errors.New("at least one message is required")
)

// Request is one generation exchange. It is not modified once issued.
type Request struct {
	ID       uuid.UUID
	Messages []llm.Message
	Model    string
	Stream   bool
}

// Client issues generation requests against a provider.
type Client struct {
	provider llm.Provider
	model    string
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model requested from providers that implement
// llm.ModelSelector. Other providers use their configured model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for provider.
func New(provider llm.Provider, opts ...Option) *Client {
	c := &Client{provider: provider, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends a system prompt and an optional user prompt. An empty
// userPrompt is omitted from the conversation.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, streaming bool) *Result {
	req := c.newRequest(nil, streaming)
	if systemPrompt == "" {
		return c.fail(req, ErrNoSystemPrompt)
	}

	req.Messages = []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}
	if userPrompt != "" {
		req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Content: userPrompt})
	}
	return c.Do(ctx, req)
}

// Chat sends a whole conversation. The messages are copied.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, streaming bool) *Result {
	req := c.newRequest(slices.Clone(messages), streaming)
	if len(messages) == 0 {
		return c.fail(req, ErrNoMessages)
	}
	return c.Do(ctx, req)
}

// Do performs req with exactly one provider call.
func (c *Client) Do(ctx context.Context, req Request) *Result {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	provider := c.providerFor(req.Model)

	c.logger.Debug("generation request",
		"request_id", req.ID,
		"provider", provider.Name(),
		"model", req.Model,
		"stream", req.Stream,
		"message_count", len(req.Messages),
	)

	if !req.Stream {
		text, err := provider.Complete(ctx, req.Messages)
		if err != nil {
			return c.fail(req, fmt.Errorf("%s complete: %w", provider.Name(), err))
		}
		return &Result{kind: KindComplete, text: text, id: req.ID, logger: c.logger}
	}

	sctx, cancel := context.WithCancel(ctx)
	events, err := provider.Stream(sctx, req.Messages)
	if err != nil {
		cancel()
		return c.fail(req, fmt.Errorf("%s stream: %w", provider.Name(), err))
	}
	return &Result{kind: KindStream, frags: stream.New(events, cancel), id: req.ID, logger: c.logger}
}

func (c *Client) newRequest(messages []llm.Message, streaming bool) Request {
	return Request{ID: uuid.New(), Messages: messages, Model: c.model, Stream: streaming}
}

func (c *Client) providerFor(model string) llm.Provider {
	if model == "" {
		return c.provider
	}
	if ms, ok := c.provider.(llm.ModelSelector); ok {
		return ms.WithModel(model)
	}
	return c.provider
}

// fail builds a failure with the shape req asked for.
func (c *Client) fail(req Request, err error) *Result {
	c.logger.Error("generation failed", "request_id", req.ID, "stream", req.Stream, "err", err)

	if req.Stream {
		return &Result{kind: KindStream, err: err, frags: stream.FromText(ErrorText(err)), id: req.ID, logger: c.logger}
	}
	return &Result{kind: KindFailed, err: err, id: req.ID, logger: c.logger}
}
