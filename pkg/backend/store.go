package backend

import (
	"sync"
	"sync/atomic"

	"github.com/sitsense/go-sitsense/pkg/posture"
)

// Store holds the current settings snapshot. Reads are lock-free so the
// pipeline can consult it per frame; writers replace the whole snapshot.
type Store struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[posture.Settings]
}

// NewStore creates a store seeded with the given defaults.
func NewStore(defaults posture.Settings) *Store {
	s := &Store{}
	s.current.Store(&defaults)
	return s
}

// Current returns the latest settings snapshot.
func (s *Store) Current() posture.Settings {
	return *s.current.Load()
}

// Update replaces the whole settings snapshot.
func (s *Store) Update(settings posture.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(&settings)
}

// SetActiveSession flips only the session flag, keeping the other fields.
func (s *Store) SetActiveSession(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.current.Load()
	next.HasActiveSession = active
	s.current.Store(&next)
}
