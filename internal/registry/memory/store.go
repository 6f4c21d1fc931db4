// Package memory holds a registry in-memory for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/edgefleet/fleetctl/internal/registry"
)

// Store keeps registry snapshots in-memory. Load and Save exchange deep
// copies so callers cannot alias the stored state.
type Store struct {
	mu    sync.Mutex
	reg   *registry.Registry
	saves int
}

// NewStore creates an empty in-memory registry store.
func NewStore() *Store {
	return &Store{}
}

// Seed replaces the stored registry, bypassing Save accounting. Intended
// for test setup.
func (s *Store) Seed(reg *registry.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg = clone(reg)
}

// Load returns a copy of the stored registry, initializing an empty one on
// first use.
func (s *Store) Load(_ context.Context) (*registry.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reg == nil {
		s.reg = registry.New()
	}
	return clone(s.reg), nil
}

// Save overwrites the stored registry with a copy of reg.
func (s *Store) Save(_ context.Context, reg *registry.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg = clone(reg)
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func clone(reg *registry.Registry) *registry.Registry {
	cp := registry.New()
	cp.Workers = append(cp.Workers[:0], reg.Workers...)
	return cp
}
