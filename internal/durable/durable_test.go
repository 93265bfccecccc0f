package durable_test

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/echotab/echotab-server/internal/durable"
	"github.com/echotab/echotab-server/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 20 * time.Millisecond

func newTestStore(adapter kv.Adapter, key string) *durable.Store {
	return durable.New(durable.Options{
		Adapter:  adapter,
		Key:      key,
		Debounce: testDebounce,
	})
}

func TestLoad_MissingKey(t *testing.T) {
	s := newTestStore(kv.NewMemory(), "echotab-tags-store-1")
	defer s.Close()

	data, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, data)
}

func TestLoad_LegacyUnwrappedPayload(t *testing.T) {
	adapter := kv.NewMemory()
	// A payload written before envelopes existed.
	require.NoError(t, adapter.Set(context.Background(), "k", []byte(`{"tags":[]}`)))

	s := newTestStore(adapter, "k")
	defer s.Close()

	data, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"tags":[]}`, data)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	adapter := kv.NewMemory()
	s := newTestStore(adapter, "k")
	defer s.Close()

	s.Save(`{"n":1}`)
	s.Flush()

	// A fresh instance sees the saved payload through the envelope.
	other := newTestStore(adapter, "k")
	defer other.Close()

	data, ok, err := other.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"n":1}`, data)
}

func TestSave_DebounceCoalescing(t *testing.T) {
	adapter := kv.NewMemory()
	var writes atomic.Int32
	adapter.Subscribe(func(kv.Change) { writes.Add(1) })

	s := newTestStore(adapter, "k")
	defer s.Close()

	for i := range 10 {
		s.Save(fmt.Sprintf(`{"n":%d}`, i))
	}

	// Exactly one write lands, carrying the latest payload.
	require.Eventually(t, func() bool {
		return writes.Load() == 1
	}, time.Second, 5*time.Millisecond)

	raw := adapter.Snapshot()["k"]
	var env struct {
		Data string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, `{"n":9}`, env.Data)

	// Still one write after the window has fully passed.
	time.Sleep(3 * testDebounce)
	assert.Equal(t, int32(1), writes.Load())
}

func TestSave_RedundantPayloadSuppressed(t *testing.T) {
	adapter := kv.NewMemory()
	var writes atomic.Int32
	adapter.Subscribe(func(kv.Change) { writes.Add(1) })

	s := newTestStore(adapter, "k")
	defer s.Close()

	s.Save(`{"n":1}`)
	s.Flush()
	require.Equal(t, int32(1), writes.Load())

	// Same payload again: no new write even after a flush.
	s.Save(`{"n":1}`)
	s.Flush()
	assert.Equal(t, int32(1), writes.Load())
}

func TestSubscribe_SelfEchoSuppressed(t *testing.T) {
	adapter := kv.NewMemory()

	a := newTestStore(adapter, "k")
	defer a.Close()
	b := newTestStore(adapter, "k")
	defer b.Close()

	var aGot, bGot, bOrigins []string
	a.Subscribe(func(data, _ string) { aGot = append(aGot, data) })
	b.Subscribe(func(data, origin string) {
		bGot = append(bGot, data)
		bOrigins = append(bOrigins, origin)
	})

	a.Save(`{"n":1}`)
	a.Flush()

	// The other context observes the write attributed to the writer; the
	// writer itself does not.
	assert.Equal(t, []string{`{"n":1}`}, bGot)
	assert.Equal(t, []string{a.InstanceID()}, bOrigins)
	assert.Empty(t, aGot)
}

func TestSubscribe_RemoteChangeUpdatesCache(t *testing.T) {
	adapter := kv.NewMemory()
	var writes atomic.Int32

	a := newTestStore(adapter, "k")
	defer a.Close()
	b := newTestStore(adapter, "k")
	defer b.Close()

	adapter.Subscribe(func(kv.Change) { writes.Add(1) })

	a.Save(`{"n":1}`)
	a.Flush()
	require.Equal(t, int32(1), writes.Load())

	// b observed a's write; saving the identical payload from b must be
	// suppressed by the updated cache.
	b.Save(`{"n":1}`)
	b.Flush()
	assert.Equal(t, int32(1), writes.Load())
}

func TestInstanceID_UniquePerInstance(t *testing.T) {
	adapter := kv.NewMemory()
	a := newTestStore(adapter, "k")
	defer a.Close()
	b := newTestStore(adapter, "k")
	defer b.Close()

	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
}
