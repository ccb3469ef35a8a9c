// Package tools implements the generation tools: summarizer, translator,
// proofreader, content repurposer, ASCII artist, IELTS examiner and resume
// matcher, plus a chat passthrough.
//
// Text tools return a *textgen.Result whose failures are in-band. Structured
// tools parse the model's JSON answer with retries and return
// extract.ErrRetriesExhausted when the model never produced usable output.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shanemcd/alchemy/pkg/extract"
	"github.com/shanemcd/alchemy/pkg/llm"
	"github.com/shanemcd/alchemy/pkg/textgen"
)

var (
	// ErrEmptyInput is returned when a tool is given blank input.
	ErrEmptyInput = errors.New("input is required")

	// ErrUnknownSkill is returned by Run for an unrecognized skill id.
	ErrUnknownSkill = errors.New("unknown skill")

	// ErrInvalidArgument is returned for unsupported platforms or tones.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Toolkit runs the tools against one text generation client.
type Toolkit struct {
	client    *textgen.Client
	attempts  int
	retryOpts []extract.RetryOption
	logger    *slog.Logger
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithAttempts sets the attempt budget for structured tools.
func WithAttempts(n int) Option {
	return func(t *Toolkit) { t.attempts = n }
}

// WithRetryBackoff sets the backoff between structured attempts.
func WithRetryBackoff(base, maxDelay time.Duration) Option {
	return func(t *Toolkit) {
		t.retryOpts = append(t.retryOpts, extract.WithBackoff(base, maxDelay))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Toolkit) { t.logger = logger }
}

// New creates a Toolkit.
func New(client *textgen.Client, opts ...Option) *Toolkit {
	t := &Toolkit{
		client:   client,
		attempts: extract.DefaultAttempts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.retryOpts = append(t.retryOpts, extract.WithLogger(t.logger))
	return t
}

// Chat continues a conversation, streaming the assistant's reply.
func (t *Toolkit) Chat(ctx context.Context, history []llm.Message) (*textgen.Result, error) {
	if len(history) == 0 {
		return nil, ErrEmptyInput
	}
	return t.client.Chat(ctx, history, true), nil
}

// Summarize streams a summary of text.
func (t *Toolkit) Summarize(ctx context.Context, text string) (*textgen.Result, error) {
	if isBlank(text) {
		return nil, ErrEmptyInput
	}
	return t.client.Generate(ctx, summarizeSystem, summarizeUser(text), true), nil
}

// Translate streams text translated into language.
func (t *Toolkit) Translate(ctx context.Context, text, language string) (*textgen.Result, error) {
	if isBlank(text) {
		return nil, ErrEmptyInput
	}
	if isBlank(language) {
		return nil, fmt.Errorf("%w: target language is required", ErrInvalidArgument)
	}
	return t.client.Generate(ctx, translateSystem(language), translateUser(text, language), true), nil
}

// Proofread streams a corrected version of text. Models often wrap the
// answer in a code fence; extract.StripFences removes it from the
// collected text.
func (t *Toolkit) Proofread(ctx context.Context, text string) (*textgen.Result, error) {
	if isBlank(text) {
		return nil, ErrEmptyInput
	}
	return t.client.Generate(ctx, proofreadSystem, proofreadUser(text), true), nil
}

// Repurpose rewrites content as a social media post.
func (t *Toolkit) Repurpose(ctx context.Context, content string, platform Platform, tone Tone) (*textgen.Result, error) {
	if isBlank(content) {
		return nil, ErrEmptyInput
	}
	return t.client.Generate(ctx, repurposeSystem(platform, tone), content, false), nil
}

// ASCIIArt draws subject as ASCII art.
func (t *Toolkit) ASCIIArt(ctx context.Context, subject string) (*textgen.Result, error) {
	if isBlank(subject) {
		return nil, ErrEmptyInput
	}
	return t.client.Generate(ctx, asciiSystem, subject, false), nil
}

// structured generates until the answer parses, then decodes it into out.
func (t *Toolkit) structured(ctx context.Context, tool, system, user string, out any) error {
	generate := func(ctx context.Context) string {
		return t.client.Generate(ctx, system, user, false).Text()
	}

	rec, err := extract.ParseRecordWithRetry(ctx, generate, t.attempts, t.retryOpts...)
	if err != nil {
		t.logger.Error("structured tool failed", "tool", tool, "err", err)
		return fmt.Errorf("%s: %w", tool, err)
	}
	if err := extract.Decode(rec, out); err != nil {
		return fmt.Errorf("%s: %w", tool, err)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
