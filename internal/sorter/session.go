// Package sorter drives a full sorting run: scan, dedupe, taxonomy
// resolution, classification and movement, with pause and cancellation
// honored at every stage boundary and between files.
package sorter

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State names the pipeline's lifecycle phases.
type State string

const (
	StateIdle              State = "idle"
	StateScanning          State = "scanning"
	StateDeduplicating     State = "deduplicating"
	StateResolvingTaxonomy State = "resolving-taxonomy"
	StateProcessing        State = "processing"
	StateCompleted         State = "completed"
	StateCancelled         State = "cancelled"
	StateFailed            State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}

// Session holds the run-scoped control surface and counters. Workers block
// in Checkpoint while the session is paused; cancellation always wins over
// pause.
type Session struct {
	runID string

	mu     sync.Mutex
	paused bool
	resume chan struct{}
	state  State

	scannedTotal atomic.Int64

	processed  atomic.Int64
	cacheHits  atomic.Int64
	fallbacks  atomic.Int64
	skipped    atomic.Int64
	duplicates atomic.Int64

	categoriesMu sync.Mutex
	categories   map[string]struct{}
}

// NewSession creates a session with a fresh run identifier.
func NewSession() *Session {
	return &Session{
		runID:      uuid.NewString(),
		state:      StateIdle,
		categories: make(map[string]struct{}),
	}
}

// RunID returns the session identifier.
func (s *Session) RunID() string { return s.runID }

// State returns the current pipeline state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Pause stops workers at their next checkpoint. Pausing an already paused
// session is a no-op.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.paused = true
	s.resume = make(chan struct{})
}

// Resume releases all workers blocked in Checkpoint.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	close(s.resume)
	s.resume = nil
}

// TogglePause flips the pause state and reports whether the session is now
// paused.
func (s *Session) TogglePause() bool {
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()
	if paused {
		s.Resume()
		return false
	}
	s.Pause()
	return true
}

// Paused reports whether the session is paused.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Checkpoint blocks while the session is paused and returns the context
// error once the run is cancelled. Workers call this between units of work;
// no busy waiting is involved.
func (s *Session) Checkpoint(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.Lock()
		if !s.paused {
			s.mu.Unlock()
			return nil
		}
		resume := s.resume
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resume:
		}
	}
}

func (s *Session) recordCategory(category string) {
	s.categoriesMu.Lock()
	s.categories[category] = struct{}{}
	s.categoriesMu.Unlock()
}

func (s *Session) categoriesUsed() int {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	return len(s.categories)
}
