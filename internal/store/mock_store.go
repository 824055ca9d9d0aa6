// ABOUTME: In-memory KV implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
)

// MockStore is an in-memory KV implementation for testing.
type MockStore struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		values: make(map[string]string),
	}
}

// Get returns the value for key or ErrNotFound.
func (m *MockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// SetIfAbsent stores value when key is unset and returns the stored value.
func (m *MockStore) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.values[key]; ok {
		return existing, nil
	}
	m.values[key] = value
	return value, nil
}

// Close marks the store closed.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Ensure MockStore implements KV
var _ KV = (*MockStore)(nil)
