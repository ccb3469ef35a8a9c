// Package stream turns provider stream events into plain text deltas for
// progressive display.
package stream

import (
	"context"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/shanemcd/alchemy/pkg/llm"
)

// Aggregate returns the non-empty text deltas carried by events, in arrival
// order. The sequence ends when the channel closes or an event reports Done
// or an error; errors are dropped; use Fragments to observe them.
//
// The sequence may be ranged once.
func Aggregate(events <-chan llm.StreamEvent) iter.Seq[string] {
	return New(events, nil).All()
}

// Fragments is a single-use sequence of text deltas backed by a producer
// channel. Stopping iteration early, or calling Close, cancels the producer.
type Fragments struct {
	events <-chan llm.StreamEvent
	cancel context.CancelFunc
	used   atomic.Bool
	err    error
}

// New wraps a producer channel. cancel, which may be nil, is called once
// the sequence is exhausted, abandoned or closed.
func New(events <-chan llm.StreamEvent, cancel context.CancelFunc) *Fragments {
	return &Fragments{events: events, cancel: cancel}
}

// FromText returns a sequence holding text as its only delta. Empty text
// yields an empty sequence.
func FromText(text string) *Fragments {
	ch := make(chan llm.StreamEvent, 1)
	if text != "" {
		ch <- llm.StreamEvent{Content: text}
	}
	close(ch)
	return New(ch, nil)
}

// All returns the deltas. Only the first range sees them; later ranges
// yield nothing.
func (f *Fragments) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		if f.used.Swap(true) {
			return
		}
		defer f.release()

		for ev := range f.events {
			if ev.Error != nil {
				f.err = ev.Error
				return
			}
			if ev.Content != "" && !yield(ev.Content) {
				return
			}
			if ev.Done {
				return
			}
		}
	}
}

// Err reports the producer error that ended iteration, if any.
// It is only meaningful after All has finished.
func (f *Fragments) Err() error {
	return f.err
}

// Close releases the producer without consuming the remaining deltas.
func (f *Fragments) Close() {
	f.used.Store(true)
	f.release()
}

func (f *Fragments) release() {
	if f.cancel != nil {
		f.cancel()
	}
}

// Collect forwards every delta of seq to onDelta, which may be nil, and
// returns their concatenation.
func Collect(seq iter.Seq[string], onDelta func(string)) string {
	var sb strings.Builder
	for delta := range seq {
		if onDelta != nil {
			onDelta(delta)
		}
		sb.WriteString(delta)
	}
	return sb.String()
}
