package providers

import (
	"maps"
	"sync"
)

// Set is a concurrency-safe collection of providers keyed by name. The
// whole collection is swapped at once when the configuration changes.
type Set struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewSet creates a Set holding m
func NewSet(m map[string]Provider) *Set {
	s := &Set{}
	s.Replace(m)
	return s
}

// Get returns the provider called name
func (s *Set) Get(name string) (Provider, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[name]
	return p, ok
}

// Snapshot returns a copy of the current providers
func (s *Set) Snapshot() map[string]Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.providers)
}

// Replace swaps in m and returns the providers it replaced
func (s *Set) Replace(m map[string]Provider) map[string]Provider {
	next := maps.Clone(m)
	if next == nil {
		next = make(map[string]Provider)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.providers
	s.providers = next
	return old
}
