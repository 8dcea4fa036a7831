// Package memory implements an in-memory kv.Store for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bodgit/pixeloverlay/kv"
)

// Store implements kv.Store backed by process memory.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New returns an empty store.
func New() *Store { return &Store{values: make(map[string]string)} }

// Driver returns the driver identifier.
func (s *Store) Driver() kv.Driver { return kv.DriverMemory }

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", kv.ErrNotFound, key)
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
