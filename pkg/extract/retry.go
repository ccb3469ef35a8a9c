package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultAttempts is used when ParseRecordWithRetry is given no budget.
const DefaultAttempts = 3

// ErrRetriesExhausted is returned when every attempt produced unparseable
// output. It wraps the last ParseFailure.
var ErrRetriesExhausted = errors.New("structured output retries exhausted")

type retryConfig struct {
	base   time.Duration
	max    time.Duration
	logger *slog.Logger
}

// RetryOption configures ParseRecordWithRetry.
type RetryOption func(*retryConfig)

// WithBackoff sets the exponential backoff between attempts. A zero base
// retries immediately.
func WithBackoff(base, maxDelay time.Duration) RetryOption {
	return func(c *retryConfig) {
		c.base = base
		c.max = maxDelay
	}
}

// WithLogger sets the logger used for failed attempts.
func WithLogger(logger *slog.Logger) RetryOption {
	return func(c *retryConfig) { c.logger = logger }
}

// ParseRecordWithRetry calls generate and parses its output, up to
// maxAttempts times, stopping at the first output that parses. Attempts
// are sequential. maxAttempts <= 0 means DefaultAttempts.
//
// When no attempt parses the error is ErrRetriesExhausted; when ctx ends
// first it is the context error.
func ParseRecordWithRetry(ctx context.Context, generate func(context.Context) string, maxAttempts int, opts ...RetryOption) (Record, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultAttempts
	}

	cfg := retryConfig{
		base:   200 * time.Millisecond,
		max:    2 * time.Second,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		rec      Record
		lastErr  error
		attempts int
	)
	err := retry.Do(ctx, cfg.backoff(maxAttempts), func(ctx context.Context) error {
		attempts++

		raw := generate(ctx)
		parsed, err := Parse(raw)
		if err != nil {
			lastErr = err
			cfg.logger.Warn("structured output attempt failed", "attempt", attempts, "max_attempts", maxAttempts, "err", err)
			cfg.logger.Debug("unparsed output", "attempt", attempts, "raw", raw)
			return retry.RetryableError(err)
		}

		rec = parsed
		return nil
	})
	if err == nil {
		return rec, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("parse record with retry: %w", ctxErr)
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}

func (c retryConfig) backoff(attempts int) retry.Backoff {
	var b retry.Backoff
	if c.base <= 0 {
		b = retry.NewConstant(time.Nanosecond)
	} else {
		b = retry.NewExponential(c.base)
		if c.max > 0 {
			b = retry.WithCappedDuration(c.max, b)
		}
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}
