package textgen

import (
	"iter"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shanemcd/alchemy/pkg/stream"
)

// Kind identifies the shape of a Result.
type Kind int

const (
	// KindComplete is a finished non-streaming response.
	KindComplete Kind = iota
	// KindFailed is a non-streaming call that failed; Text holds the marked error.
	KindFailed
	// KindStream is a streaming response, successful or not.
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindComplete:
		return "complete"
	case KindFailed:
		return "failed"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Result is the outcome of one generation call. Its kind depends only on
// whether streaming was requested: non-streaming calls give KindComplete or
// KindFailed, streaming calls always give KindStream.
type Result struct {
	kind  Kind
	text  string
	err   error
	frags *stream.Fragments

	id     uuid.UUID
	logger *slog.Logger
}

// Completed returns a KindComplete result holding text that was produced
// without a provider call, such as a rendered structured answer.
func Completed(text string) *Result {
	return &Result{kind: KindComplete, text: text, id: uuid.New(), logger: slog.Default()}
}

// Kind returns the result shape.
func (r *Result) Kind() Kind { return r.kind }

// RequestID returns the id of the request that produced r.
func (r *Result) RequestID() uuid.UUID { return r.id }

// Err returns the failure behind the marked text, if any. For streams it
// is only complete once the fragments have been consumed.
func (r *Result) Err() error {
	if r.err == nil && r.frags != nil {
		return r.frags.Err()
	}
	return r.err
}

// Text returns the response text. Failures come back as marked error text.
// For streams it consumes the fragments and returns their concatenation.
func (r *Result) Text() string {
	if r.kind == KindStream {
		return stream.Collect(r.Fragments(), nil)
	}
	if r.err != nil {
		return ErrorText(r.err)
	}
	return r.text
}

// Fragments returns the response as text deltas. A provider error that
// interrupts a stream is delivered as one final marked fragment after the
// deltas already received. Non-streaming results yield their text as a
// single fragment.
//
// Stream fragments may be consumed once; stopping early releases the
// provider.
func (r *Result) Fragments() iter.Seq[string] {
	if r.kind != KindStream {
		return stream.FromText(r.Text()).All()
	}

	return func(yield func(string) bool) {
		for delta := range r.frags.All() {
			if !yield(delta) {
				return
			}
		}
		if err := r.frags.Err(); err != nil {
			r.logger.Error("stream interrupted", "request_id", r.id, "err", err)
			yield(ErrorText(err))
		}
	}
}

// Close releases a stream that will not be consumed. It is a no-op for
// other kinds.
func (r *Result) Close() {
	if r.frags != nil {
		r.frags.Close()
	}
}
