// Package durable implements the debounced durable store: one instance per
// logical store key, wrapping the kv adapter with instance-tagged envelopes,
// write coalescing, and cross-context change notification that never echoes
// a context's own writes back to it.
package durable

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/kv"
)

// DefaultDebounce is the write coalescing window. Rapid saves inside the
// window collapse into one underlying write carrying the latest payload.
const DefaultDebounce = 300 * time.Millisecond

// envelope wraps every persisted payload with the writing instance's id so
// subscribers can drop their own echoes.
type envelope struct {
	Data       string `json:"data"`
	InstanceID string `json:"instanceId"`
}

// Options configures a durable store.
type Options struct {
	Adapter  kv.Adapter
	Key      string        // Fixed storage key for this logical store
	Debounce time.Duration // Zero means DefaultDebounce
	Logger   *slog.Logger  // Uses slog.Default if nil
}

// Store is a debounced durable store for a single logical store key.
// All methods are safe for concurrent use.
type Store struct {
	adapter    kv.Adapter
	key        string
	instanceID string
	debounce   time.Duration
	logger     *slog.Logger

	mu          sync.Mutex
	lastPayload string // Last payload written by us or observed from storage
	seen        bool   // Whether lastPayload is meaningful
	pending     string
	hasPending  bool
	timer       *time.Timer

	subMu sync.RWMutex
	subs  []func(data, origin string)
	unsub func()
}

// New creates a durable store. Each instance gets a random id; two contexts
// sharing one storage key must each hold their own instance.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}

	s := &Store{
		adapter:    opts.Adapter,
		key:        opts.Key,
		instanceID: uuid.NewString(),
		debounce:   debounce,
		logger:     logger,
	}
	s.unsub = opts.Adapter.Subscribe(s.onAdapterChange)
	return s
}

// InstanceID returns this instance's random identifier. Surfaces pass it
// when connecting to the change stream so broadcasts skip the originator.
func (s *Store) InstanceID() string {
	return s.instanceID
}

// Key returns the fixed storage key.
func (s *Store) Key() string {
	return s.key
}

// Load reads the persisted payload. A missing key yields ok=false. The raw
// value is unwrapped from its envelope; bare legacy payloads (pre-envelope)
// are accepted as-is. The result becomes the cached last-known payload.
func (s *Store) Load(ctx context.Context) (data string, ok bool, err error) {
	raw, err := s.adapter.Get(ctx, s.key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	data = unwrap(raw)

	s.mu.Lock()
	s.lastPayload = data
	s.seen = true
	s.mu.Unlock()

	return data, true, nil
}

// Save schedules a debounced write of serialized. Saving the last known
// payload again is a no-op, which prevents a remote change that was just
// applied locally from being written straight back out.
func (s *Store) Save(serialized string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen && serialized == s.lastPayload {
		return
	}
	s.lastPayload = serialized
	s.seen = true
	s.pending = serialized
	s.hasPending = true

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushPending)
}

// Flush writes any pending debounced payload immediately. Called at
// shutdown so a write sitting in the debounce window is not lost.
func (s *Store) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.flushPending()
}

func (s *Store) flushPending() {
	s.mu.Lock()
	if !s.hasPending {
		s.mu.Unlock()
		return
	}
	payload := s.pending
	s.hasPending = false
	s.mu.Unlock()

	raw, err := json.Marshal(envelope{Data: payload, InstanceID: s.instanceID})
	if err != nil {
		s.logger.Error("marshal store envelope failed", "key", s.key, "error", err)
		return
	}
	// Write failures are logged, not surfaced: callers must not assume
	// durability of any single write.
	if err := s.adapter.Set(context.Background(), s.key, raw); err != nil {
		s.logger.Error("durable store write failed", "key", s.key, "error", err)
	}
}

// Subscribe registers a callback for payloads written by other instances of
// the same logical store. The callback receives the payload and the writing
// instance's id; it never fires for this instance's own writes.
func (s *Store) Subscribe(fn func(data, origin string)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

// Close detaches from the adapter, flushing any pending write first.
func (s *Store) Close() {
	s.Flush()
	if s.unsub != nil {
		s.unsub()
	}
}

// onAdapterChange filters raw kv changes down to foreign writes of our key.
func (s *Store) onAdapterChange(c kv.Change) {
	if c.Key != s.key || c.NewValue == nil {
		return
	}

	var env envelope
	if err := json.Unmarshal(c.NewValue, &env); err != nil || env.Data == "" {
		// Legacy or hand-written value without an envelope.
		env = envelope{Data: string(c.NewValue)}
	}
	if env.InstanceID == s.instanceID {
		return // Our own write echoing back
	}

	s.mu.Lock()
	s.lastPayload = env.Data
	s.seen = true
	s.mu.Unlock()

	s.subMu.RLock()
	subs := make([]func(string, string), len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(env.Data, env.InstanceID)
	}
}

// unwrap extracts the data payload from a raw stored value, tolerating
// values written before envelopes existed.
func unwrap(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == "" {
		return string(raw)
	}
	return env.Data
}
