// Package kv provides the key-value persistence adapter behind the durable
// stores, with pluggable backends and change notification.
package kv

import (
	"context"
	"sync"

	"github.com/echotab/echotab-server/internal/errors"
)

// ErrKeyNotFound is returned by Get for missing keys.
var ErrKeyNotFound = errors.NotFound("key not found")

// Change is a raw storage change event. OldValue is nil for inserts,
// NewValue is nil for removals.
type Change struct {
	Key      string
	OldValue []byte
	NewValue []byte
}

// Adapter is the persistence contract. Set and Remove fan a Change out to
// subscribers after the write commits; callers treat write failures as
// non-fatal (logged, not durable).
type Adapter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error

	// Subscribe registers a change listener and returns an unsubscribe
	// function. Listeners run synchronously after commit, in subscription
	// order.
	Subscribe(fn func(Change)) (unsubscribe func())

	Close() error
}

// notifier implements subscriber fan-out shared by all adapter backends.
type notifier struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Change)
}

func (n *notifier) Subscribe(fn func(Change)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]func(Change))
	}
	id := n.next
	n.next++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify(c Change) {
	n.mu.RLock()
	fns := make([]func(Change), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}
