package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/echotab/echotab-server/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// adapterUnderTest builds each backend against a temp location so the same
// contract suite runs across all of them.
func adaptersUnderTest(t *testing.T) map[string]kv.Adapter {
	t.Helper()

	badger, err := kv.NewBadger(filepath.Join(t.TempDir(), "badger"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = badger.Close() })

	sqlite, err := kv.NewSQLite(filepath.Join(t.TempDir(), "kv.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]kv.Adapter{
		"memory": kv.NewMemory(),
		"badger": badger,
		"sqlite": sqlite,
	}
}

func TestAdapter_GetSetRemove(t *testing.T) {
	for name, a := range adaptersUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := a.Get(ctx, "missing")
			assert.ErrorIs(t, err, kv.ErrKeyNotFound)

			require.NoError(t, a.Set(ctx, "k", []byte("v1")))
			got, err := a.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), got)

			require.NoError(t, a.Set(ctx, "k", []byte("v2")))
			got, err = a.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)

			require.NoError(t, a.Remove(ctx, "k"))
			_, err = a.Get(ctx, "k")
			assert.ErrorIs(t, err, kv.ErrKeyNotFound)

			// Removing a missing key is idempotent.
			require.NoError(t, a.Remove(ctx, "k"))
		})
	}
}

func TestAdapter_ChangeNotification(t *testing.T) {
	for name, a := range adaptersUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var changes []kv.Change
			unsub := a.Subscribe(func(c kv.Change) {
				changes = append(changes, c)
			})

			require.NoError(t, a.Set(ctx, "k", []byte("v1")))
			require.NoError(t, a.Set(ctx, "k", []byte("v2")))
			require.NoError(t, a.Remove(ctx, "k"))

			require.Len(t, changes, 3)

			assert.Nil(t, changes[0].OldValue)
			assert.Equal(t, []byte("v1"), changes[0].NewValue)

			assert.Equal(t, []byte("v1"), changes[1].OldValue)
			assert.Equal(t, []byte("v2"), changes[1].NewValue)

			assert.Equal(t, []byte("v2"), changes[2].OldValue)
			assert.Nil(t, changes[2].NewValue)

			// Removing a missing key emits nothing.
			require.NoError(t, a.Remove(ctx, "k"))
			assert.Len(t, changes, 3)

			// After unsubscribe no further changes arrive.
			unsub()
			require.NoError(t, a.Set(ctx, "k", []byte("v3")))
			assert.Len(t, changes, 3)
		})
	}
}
