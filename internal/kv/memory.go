package kv

import (
	"context"
	"maps"
	"sync"
)

// MemoryAdapter is an in-memory Adapter used by tests and as the backing for
// two store instances sharing one adapter to exercise cross-context sync.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string][]byte
	notifier
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *MemoryAdapter {
	return &MemoryAdapter{data: make(map[string][]byte)}
}

// Get retrieves a value by key.
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	value, ok := a.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a value and notifies subscribers with the previous value.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte) error {
	a.mu.Lock()
	old := a.data[key]
	stored := make([]byte, len(value))
	copy(stored, value)
	a.data[key] = stored
	a.mu.Unlock()

	a.notify(Change{Key: key, OldValue: old, NewValue: value})
	return nil
}

// Remove deletes a key. Removing a missing key is a no-op and emits no change.
func (a *MemoryAdapter) Remove(_ context.Context, key string) error {
	a.mu.Lock()
	old, existed := a.data[key]
	delete(a.data, key)
	a.mu.Unlock()

	if existed {
		a.notify(Change{Key: key, OldValue: old})
	}
	return nil
}

// Snapshot returns a copy of the stored data, for test assertions.
func (a *MemoryAdapter) Snapshot() map[string][]byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return maps.Clone(a.data)
}

// Close is a no-op.
func (a *MemoryAdapter) Close() error { return nil }
