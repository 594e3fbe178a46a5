// Package memory provides an in-memory implementation of the durable
// key-value store used for tests and ephemeral environments.
package memory

import (
	"context"
	"sync"

	"heritagecore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.KeyValueStore = (*Store)(nil)

// Store keeps values in process memory. Values are copied on the way in and out
// so callers cannot alias stored bytes.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

// Put stores a copy of value at key.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = clone(value)
	return nil
}

// Delete removes key if present.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
