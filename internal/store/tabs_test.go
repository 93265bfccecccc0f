package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTabs(t *testing.T, f *fixture, urls ...string) []int {
	t.Helper()

	ids := make([]int, 0, len(urls))
	for _, url := range urls {
		ids = append(ids, f.browser.Open(domain.ActiveTab{Title: url, URL: url, WindowID: 1}))
	}
	require.NoError(t, f.store.Tabs.Sync(context.Background()))
	return ids
}

func TestTabs_SyncMirrorsBrowser(t *testing.T) {
	f := newFixture(t)

	ids := openTabs(t, f, "https://a.example.com", "https://b.example.com")

	tabs := f.store.Tabs.All()
	require.Len(t, tabs, 2)
	assert.Equal(t, ids[0], tabs[0].ID)
	assert.Equal(t, ids[1], tabs[1].ID)
}

func TestTabs_CloseBatch(t *testing.T) {
	f := newFixture(t)

	ids := openTabs(t, f, "https://a.example.com", "https://b.example.com", "https://c.example.com")

	result, err := f.store.Tabs.Close(context.Background(), ids[:2])
	require.NoError(t, err)
	assert.Equal(t, ids[:2], result.Closed)
	assert.Empty(t, result.Failed)

	assert.Len(t, f.store.Tabs.All(), 1)
	assert.Equal(t, 1, f.browser.OpenCount())
}

func TestTabs_CloseFallsBackToSequential(t *testing.T) {
	f := newFixture(t)
	f.browser.BatchUnsupported = true

	ids := openTabs(t, f, "https://a.example.com", "https://b.example.com", "https://c.example.com")
	f.browser.FailRemove = []int{ids[1]}

	result, err := f.store.Tabs.Close(context.Background(), ids)
	require.NoError(t, err)

	// Partial outcome: the failing tab is reported, the rest are closed.
	assert.Equal(t, []int{ids[0], ids[2]}, result.Closed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, ids[1], result.Failed[0].ID)
	assert.NotEmpty(t, result.Failed[0].Reason)

	assert.Len(t, f.store.Tabs.All(), 1)
}

func TestTabs_CloseRejectsEmptyRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Tabs.Close(context.Background(), nil)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestTabs_UndoReopensLastBatch(t *testing.T) {
	f := newFixture(t)

	ids := openTabs(t, f, "https://a.example.com", "https://b.example.com")

	_, err := f.store.Tabs.Close(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, 0, f.browser.OpenCount())

	reopened, err := f.store.Tabs.UndoClose(context.Background())
	require.NoError(t, err)
	require.Len(t, reopened, 2)
	assert.Equal(t, 2, f.browser.OpenCount())

	// Reopened tabs carry fresh browser ids.
	for _, tab := range reopened {
		assert.NotContains(t, ids, tab.ID)
	}

	// The buffer is one-shot.
	_, err = f.store.Tabs.UndoClose(context.Background())
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTabs_UndoBufferFilledDespiteRemovalEvents(t *testing.T) {
	f := newFixture(t)

	// The fake delivers removal events synchronously inside Close, pruning
	// the mirror before Close returns. The undo buffer must survive that.
	ids := openTabs(t, f, "https://a.example.com", "https://b.example.com")

	_, err := f.store.Tabs.Close(context.Background(), ids)
	require.NoError(t, err)
	assert.Empty(t, f.store.Tabs.All())

	reopened, err := f.store.Tabs.UndoClose(context.Background())
	require.NoError(t, err)
	require.Len(t, reopened, 2)
	assert.Equal(t, "https://a.example.com", reopened[0].URL)
	assert.Equal(t, "https://b.example.com", reopened[1].URL)
}

func TestTabs_UndoReopensOnlyClosedTabs(t *testing.T) {
	f := newFixture(t)
	f.browser.BatchUnsupported = true

	ids := openTabs(t, f, "https://a.example.com", "https://b.example.com", "https://c.example.com")
	f.browser.FailRemove = []int{ids[1]}

	result, err := f.store.Tabs.Close(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, []int{ids[0], ids[2]}, result.Closed)

	// Only the tabs that actually closed come back.
	reopened, err := f.store.Tabs.UndoClose(context.Background())
	require.NoError(t, err)
	require.Len(t, reopened, 2)
	assert.Equal(t, "https://a.example.com", reopened[0].URL)
	assert.Equal(t, "https://c.example.com", reopened[1].URL)
}

func TestTabs_UndoExpiresAfterWindow(t *testing.T) {
	f := newFixture(t)

	ids := openTabs(t, f, "https://a.example.com")
	_, err := f.store.Tabs.Close(context.Background(), ids)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)

	_, err = f.store.Tabs.UndoClose(context.Background())
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTabs_BrowserEventsKeepMirrorCurrent(t *testing.T) {
	f := newFixture(t)

	id := f.browser.Open(domain.ActiveTab{Title: "a", URL: "https://a.example.com", WindowID: 1})

	// The created event lands without an explicit sync.
	got, err := f.store.Tabs.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)

	require.NoError(t, f.browser.Remove(context.Background(), id))
	_, err = f.store.Tabs.Get(id)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestTabs_BrowserRemovalPrunesSelection(t *testing.T) {
	f := newFixture(t)

	id := f.browser.Open(domain.ActiveTab{Title: "a", URL: "https://a.example.com", WindowID: 1})
	f.store.Selection.Replace("active", []string{"1"})

	require.NoError(t, f.browser.Remove(context.Background(), id))
	assert.Empty(t, f.store.Selection.Selected("active"))
}

func TestTabs_SetPinned(t *testing.T) {
	f := newFixture(t)

	ids := openTabs(t, f, "https://a.example.com")

	require.NoError(t, f.store.Tabs.SetPinned(context.Background(), ids[0], true))
	got, err := f.store.Tabs.Get(ids[0])
	require.NoError(t, err)
	assert.True(t, got.Pinned)

	assert.ErrorIs(t, f.store.Tabs.SetPinned(context.Background(), 999, true), errors.ErrNotFound)
}

func TestTabs_ReloadMoveFocus(t *testing.T) {
	f := newFixture(t)

	ids := openTabs(t, f, "https://a.example.com")

	require.NoError(t, f.store.Tabs.Reload(context.Background(), ids[0]))
	require.NoError(t, f.store.Tabs.Move(context.Background(), ids[0], 0))
	require.NoError(t, f.store.Tabs.FocusWindow(context.Background(), 1))

	assert.ErrorIs(t, f.store.Tabs.Reload(context.Background(), 999), errors.ErrNotFound)
	assert.ErrorIs(t, f.store.Tabs.Move(context.Background(), 999, 0), errors.ErrNotFound)
}
