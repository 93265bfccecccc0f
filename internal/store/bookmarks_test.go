package store_test

import (
	"testing"
	"time"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarks_SaveAssignsIdentityAndSentinel(t *testing.T) {
	f := newFixture(t)

	saved := saveTab(t, f.store, "https://example.com/article")
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, f.clock.Now(), saved.SavedAt)
	assert.Equal(t, []int{domain.UntaggedID}, saved.TagIDs)
}

func TestBookmarks_SaveMergesOnCanonicalURL(t *testing.T) {
	f := newFixture(t)

	tag, err := f.store.Tags.Create(domain.Tag{Name: "reading"})
	require.NoError(t, err)
	other, err := f.store.Tags.Create(domain.Tag{Name: "work"})
	require.NoError(t, err)

	first := saveTab(t, f.store, "https://example.com/article?utm_source=tw", tag.ID)

	// Same page, different tracking decoration: merges, unions tags.
	second := saveTab(t, f.store, "https://example.com/article?fbclid=xyz#frag", other.ID)

	assert.Equal(t, first.ID, second.ID)
	assert.ElementsMatch(t, []int{tag.ID, other.ID}, second.TagIDs)
	assert.Len(t, f.store.Bookmarks.All(), 1)
}

func TestBookmarks_MergeKeepsOriginalSaveTime(t *testing.T) {
	f := newFixture(t)

	first := saveTab(t, f.store, "https://example.com/a")
	f.clock.Advance(48 * time.Hour)

	second := saveTab(t, f.store, "https://example.com/a?utm_medium=mail")
	assert.Equal(t, first.SavedAt, second.SavedAt)
}

func TestBookmarks_MergeDropsSentinelWhenTagArrives(t *testing.T) {
	f := newFixture(t)

	tag, err := f.store.Tags.Create(domain.Tag{Name: "reading"})
	require.NoError(t, err)

	saveTab(t, f.store, "https://example.com/a") // untagged
	merged := saveTab(t, f.store, "https://example.com/a", tag.ID)

	assert.Equal(t, []int{tag.ID}, merged.TagIDs)
}

func TestBookmarks_RemoveTagsFallsBackToSentinel(t *testing.T) {
	f := newFixture(t)

	tag, err := f.store.Tags.Create(domain.Tag{Name: "reading"})
	require.NoError(t, err)
	saved := saveTab(t, f.store, "https://example.com/a", tag.ID)

	require.NoError(t, f.store.Bookmarks.RemoveTagsFromTabs([]string{saved.ID}, []int{tag.ID}))

	got, err := f.store.Bookmarks.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{domain.UntaggedID}, got.TagIDs)
}

func TestBookmarks_SaveRejectsEmptyRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Bookmarks.SaveTabs(nil)
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = f.store.Bookmarks.SaveTabs([]domain.SavedTab{{URL: "   "}})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestBookmarks_FindByURLUsesCanonicalIdentity(t *testing.T) {
	f := newFixture(t)

	saved := saveTab(t, f.store, "https://example.com/a?utm_source=tw")

	got, ok := f.store.Bookmarks.FindByURL("https://example.com/a#section")
	require.True(t, ok)
	assert.Equal(t, saved.ID, got.ID)

	_, ok = f.store.Bookmarks.FindByURL("https://example.com/other")
	assert.False(t, ok)
}

func TestBookmarks_RemoveStripsListReferences(t *testing.T) {
	f := newFixture(t)

	a := saveTab(t, f.store, "https://a.example.com")
	b := saveTab(t, f.store, "https://b.example.com")

	list, err := f.store.Bookmarks.CreateList("inbox", "", []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, list.TabIDs, 2)

	_, err = f.store.Bookmarks.RemoveTabs([]string{a.ID})
	require.NoError(t, err)

	got, err := f.store.Bookmarks.GetList(list.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, got.TabIDs)
}

func TestBookmarks_ListLifecycle(t *testing.T) {
	f := newFixture(t)

	a := saveTab(t, f.store, "https://a.example.com")

	list, err := f.store.Bookmarks.CreateList("  inbox  ", "<p>notes</p>", []string{a.ID, "unknown"})
	require.NoError(t, err)
	assert.Equal(t, "inbox", list.Title)
	assert.Equal(t, []string{a.ID}, list.TabIDs) // unknown refs dropped

	_, err = f.store.Bookmarks.CreateList("  ", "", nil)
	assert.ErrorIs(t, err, errors.ErrValidation)

	updated, err := f.store.Bookmarks.UpdateList(list.ID, "renamed", "<p>more</p>")
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	require.NoError(t, f.store.Bookmarks.DeleteList(list.ID))
	assert.ErrorIs(t, f.store.Bookmarks.DeleteList(list.ID), errors.ErrNotFound)

	// Deleting the list never deletes the tabs it referenced.
	_, err = f.store.Bookmarks.Get(a.ID)
	assert.NoError(t, err)
}

func TestBookmarks_NoteAndPinnedAndVisited(t *testing.T) {
	f := newFixture(t)

	saved := saveTab(t, f.store, "https://example.com/a")

	require.NoError(t, f.store.Bookmarks.SetNote(saved.ID, "read later"))
	require.NoError(t, f.store.Bookmarks.TogglePinned(saved.ID))
	require.NoError(t, f.store.Bookmarks.MarkVisited(saved.ID))

	got, err := f.store.Bookmarks.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "read later", got.Note)
	assert.True(t, got.Pinned)
	assert.Equal(t, f.clock.Now(), got.VisitedAt)

	assert.ErrorIs(t, f.store.Bookmarks.SetNote("unknown", "x"), errors.ErrNotFound)
}
