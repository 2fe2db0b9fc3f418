package search

import (
	"sync"
	"time"
)

// Status tracks whether the search engine answered its most recent call.
// It is advisory only: health checks and operators read it, but no request
// path ever skips a real call (or its error handling) based on it.
type Status struct {
	mu        sync.RWMutex
	available bool
	checkedAt time.Time
}

// StatusSnapshot is a point-in-time copy of the availability state.
type StatusSnapshot struct {
	Available bool      `json:"available"`
	CheckedAt time.Time `json:"checked_at"`
}

func (s *Status) markUp() {
	s.mu.Lock()
	s.available = true
	s.checkedAt = time.Now().UTC()
	s.mu.Unlock()
}

func (s *Status) markDown() {
	s.mu.Lock()
	s.available = false
	s.checkedAt = time.Now().UTC()
	s.mu.Unlock()
}

// Available reports the outcome of the last engine call.
func (s *Status) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// Snapshot returns the availability state and when it was last updated.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusSnapshot{Available: s.available, CheckedAt: s.checkedAt}
}
