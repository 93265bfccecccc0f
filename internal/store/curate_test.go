package store_test

import (
	"testing"
	"time"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurate_SameDayAccumulates(t *testing.T) {
	f := newFixture(t)

	first, err := f.store.Curate.Record(3, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Kept)
	assert.Equal(t, 1, first.Deleted)

	f.clock.Advance(2 * time.Hour)

	second, err := f.store.Curate.Record(2, 4)
	require.NoError(t, err)
	assert.Equal(t, first.Date, second.Date)
	assert.Equal(t, 5, second.Kept)
	assert.Equal(t, 5, second.Deleted)

	require.Len(t, f.store.Curate.Sessions(), 1)
}

func TestCurate_NewDayNewSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Curate.Record(1, 0)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	_, err = f.store.Curate.Record(1, 0)
	require.NoError(t, err)

	sessions := f.store.Curate.Sessions()
	require.Len(t, sessions, 2)
	// Newest first.
	assert.Greater(t, sessions[0].Date, sessions[1].Date)
}

func TestCurate_RejectsNegativeCounts(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Curate.Record(-1, 0)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestCurate_Streak(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, 0, f.store.Curate.Streak())

	for range 3 {
		_, err := f.store.Curate.Record(1, 0)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}

	// Three consecutive days ending yesterday.
	assert.Equal(t, 3, f.store.Curate.Streak())

	// A gap breaks it.
	f.clock.Advance(48 * time.Hour)
	assert.Equal(t, 0, f.store.Curate.Streak())
}

func TestBuildQueue_ReasonPriorityOrdering(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tags := map[int]domain.Tag{
		0: {ID: 0, Name: "Untagged"},
		1: {ID: 1, Name: "reading"},
		2: {ID: 2, Name: "suggested", AI: true},
		3: {ID: 3, Name: "Quick Jun 14, 2025", Quick: true},
	}

	fresh := now.Add(-time.Hour)
	old := now.Add(-60 * 24 * time.Hour)
	tabs := []domain.SavedTab{
		{ID: "aged", TagIDs: []int{1}, SavedAt: old},
		{ID: "quick", TagIDs: []int{3}, SavedAt: fresh},
		{ID: "ai", TagIDs: []int{2}, SavedAt: fresh},
		{ID: "untagged", TagIDs: []int{0}, SavedAt: fresh},
		{ID: "settled", TagIDs: []int{1}, SavedAt: fresh},
	}

	queue := store.BuildQueue(tabs, tags, store.QueueOptions{Now: now})

	got := make([]string, 0, len(queue))
	for _, e := range queue {
		got = append(got, e.Tab.ID)
	}
	assert.Equal(t, []string{"untagged", "ai", "quick", "aged"}, got)
}

func TestBuildQueue_TieBreaksOnSaveTimeOldestFirst(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tags := map[int]domain.Tag{0: {ID: 0, Name: "Untagged"}}

	tabs := []domain.SavedTab{
		{ID: "newer", TagIDs: []int{0}, SavedAt: now.Add(-time.Hour)},
		{ID: "older", TagIDs: []int{0}, SavedAt: now.Add(-48 * time.Hour)},
	}

	queue := store.BuildQueue(tabs, tags, store.QueueOptions{Now: now})
	require.Len(t, queue, 2)
	assert.Equal(t, "older", queue[0].Tab.ID)
	assert.Equal(t, "newer", queue[1].Tab.ID)
}

func TestBuildQueue_CooldownExcludesRecentlyCurated(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tags := map[int]domain.Tag{0: {ID: 0, Name: "Untagged"}}

	tabs := []domain.SavedTab{
		{ID: "fresh-review", TagIDs: []int{0}, SavedAt: now.Add(-time.Hour), LastCuratedAt: now.Add(-24 * time.Hour)},
		{ID: "stale-review", TagIDs: []int{0}, SavedAt: now.Add(-time.Hour), LastCuratedAt: now.Add(-30 * 24 * time.Hour)},
	}

	queue := store.BuildQueue(tabs, tags, store.QueueOptions{Now: now})
	require.Len(t, queue, 1)
	assert.Equal(t, "stale-review", queue[0].Tab.ID)
}

func TestBuildQueue_MultipleReasonsRankAboveSingle(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tags := map[int]domain.Tag{
		0: {ID: 0, Name: "Untagged"},
		2: {ID: 2, Name: "suggested", AI: true},
	}

	old := now.Add(-60 * 24 * time.Hour)
	tabs := []domain.SavedTab{
		{ID: "ai-only", TagIDs: []int{2}, SavedAt: now.Add(-time.Hour)},
		{ID: "ai-and-aged", TagIDs: []int{2}, SavedAt: old},
	}

	queue := store.BuildQueue(tabs, tags, store.QueueOptions{Now: now})
	require.Len(t, queue, 2)
	// Equal on the AI reason; the aged reason breaks the tie.
	assert.Equal(t, "ai-and-aged", queue[0].Tab.ID)
	assert.Equal(t, []domain.CurateReason{domain.ReasonAITagged, domain.ReasonAged}, queue[0].Reasons)
}

func TestCurate_MarkCuratedRemovesFromQueue(t *testing.T) {
	f := newFixture(t)

	saved := saveTab(t, f.store, "https://example.com/a") // untagged

	queue := f.store.CurateQueue(store.QueueOptions{Now: f.clock.Now()})
	require.Len(t, queue, 1)

	require.NoError(t, f.store.Bookmarks.MarkCurated([]string{saved.ID}))

	queue = f.store.CurateQueue(store.QueueOptions{Now: f.clock.Now()})
	assert.Empty(t, queue)
}
