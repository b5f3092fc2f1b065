/*
Package memory provides an in-memory StateStore, primarily for tests and
single-process deployments.
*/
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Store implements ports.StateStore in memory. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]domain.State
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string]domain.State)}
}

// Save persists a deep copy of the state, simulating serialization so
// callers cannot alias stored slices.
func (s *Store) Save(_ context.Context, sessionID string, state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copyState(state)
	return nil
}

// Load retrieves a copy of the stored state.
func (s *Store) Load(_ context.Context, sessionID string) (domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copyState(state), nil
}

// Delete removes the session.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns all session IDs in sorted order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func copyState(state domain.State) domain.State {
	out := make(domain.State, len(state))
	for name, sl := range state {
		copied := make(domain.Slice, len(sl))
		for k, v := range sl {
			copied[k] = v
		}
		out[name] = copied
	}
	return out
}
