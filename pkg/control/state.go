// Package control tracks a tool server's lifecycle and publishes it over
// the standard gRPC health service.
package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// Phase is a server lifecycle phase.
type Phase int32

const (
	Starting Phase = iota
	Ready
	Busy
	Draining
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Busy:
		return "busy"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Serving reports whether new requests are accepted in this phase.
func (p Phase) Serving() bool {
	return p == Ready || p == Busy
}

// State tracks the runtime state of a server.
type State struct {
	phase       atomic.Int32
	startTime   time.Time
	activeTasks atomic.Int32
	identity    string

	mu       sync.RWMutex
	metadata map[string]string
	watchers []func(Phase)
}

// NewState creates a new State in the Starting phase.
func NewState(identity string) *State {
	return &State{
		startTime: time.Now(),
		identity:  identity,
		metadata:  make(map[string]string),
	}
}

// Watch registers fn to be called after every phase change.
func (s *State) Watch(fn func(Phase)) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

// SetReady transitions to Ready.
func (s *State) SetReady() { s.set(Ready) }

// SetDraining transitions to Draining.
func (s *State) SetDraining() { s.set(Draining) }

// SetStopped transitions to Stopped.
func (s *State) SetStopped() { s.set(Stopped) }

func (s *State) set(p Phase) {
	if Phase(s.phase.Swap(int32(p))) != p {
		s.notify(p)
	}
}

func (s *State) swap(from, to Phase) {
	if s.phase.CompareAndSwap(int32(from), int32(to)) {
		s.notify(to)
	}
}

func (s *State) notify(p Phase) {
	s.mu.RLock()
	watchers := s.watchers
	s.mu.RUnlock()
	for _, fn := range watchers {
		fn(p)
	}
}

// TaskStarted counts a task and moves Ready to Busy.
func (s *State) TaskStarted() {
	s.activeTasks.Add(1)
	s.swap(Ready, Busy)
}

// TaskDone uncounts a task and moves Busy to Ready once none are left.
func (s *State) TaskDone() {
	if s.activeTasks.Add(-1) == 0 {
		s.swap(Busy, Ready)
	}
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	return Phase(s.phase.Load())
}

// ActiveTasks returns the current active task count.
func (s *State) ActiveTasks() int32 {
	return s.activeTasks.Load()
}

// Uptime returns the time since the state was created.
func (s *State) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Identity returns the server name.
func (s *State) Identity() string {
	return s.identity
}

// SetMetadata sets a metadata key-value pair.
func (s *State) SetMetadata(key, value string) {
	s.mu.Lock()
	s.metadata[key] = value
	s.mu.Unlock()
}

// Metadata returns a copy of the metadata map.
func (s *State) Metadata() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]string, len(s.metadata))
	for k, v := range s.metadata {
		result[k] = v
	}
	return result
}
