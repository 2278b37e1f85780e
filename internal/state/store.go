package state

import (
	"fmt"
	"sync"
	"time"
)

// Phase is the controller's connection and search lifecycle position.
type Phase int

const (
	Uninitialized Phase = iota
	Connecting
	Connected
	Searching
	Error
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Searching:
		return "searching"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Busy reports whether the phase has work in flight.
func (p Phase) Busy() bool {
	return p == Connecting || p == Searching
}

var transitions = map[Phase][]Phase{
	Uninitialized: {Connecting},
	Connecting:    {Connected, Error},
	Connected:     {Searching},
	Searching:     {Connected},
	Error:         {Connecting},
}

// CanAdvance reports whether from → to is an allowed transition.
func CanAdvance(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Snapshot represents the latest controller state available to the UI.
type Snapshot struct {
	Phase               Phase
	ConsecutiveFailures int       // Number of consecutive failed searches
	LastFailure         time.Time // Zero until a search fails
}

// Store coordinates concurrent access to the controller state. The phase is
// advanced by the worker goroutine while the UI reads snapshots, and the
// session event callback records authentication failures from wherever it
// runs.
type Store struct {
	mu          sync.RWMutex
	snapshot    Snapshot
	authFailure string
	authFailed  bool
}

// Advance moves to phase to, rejecting transitions the lifecycle does not allow.
func (s *Store) Advance(to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.snapshot.Phase
	if !CanAdvance(from, to) {
		return fmt.Errorf("invalid phase transition %s -> %s", from, to)
	}
	s.snapshot.Phase = to
	return nil
}

// RecordResult stores the outcome of a finished search. A failure grows the
// streak and stamps its time; a success resets the streak.
func (s *Store) RecordResult(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.ConsecutiveFailures++
		s.snapshot.LastFailure = time.Now()
		return
	}
	s.snapshot.ConsecutiveFailures = 0
}

// RecordAuthFailure remembers an authentication failure reported by the
// session. It is safe to call from any goroutine.
func (s *Store) RecordAuthFailure(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFailure = msg
	s.authFailed = true
}

// TakeAuthFailure returns and clears the recorded authentication failure.
func (s *Store) TakeAuthFailure() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.authFailure, s.authFailed
	s.authFailure = ""
	s.authFailed = false
	return msg, ok
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
