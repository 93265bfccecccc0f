package view_test

import (
	"context"
	"testing"
	"time"

	"github.com/echotab/echotab-server/internal/browser"
	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/kv"
	"github.com/echotab/echotab-server/internal/store"
	"github.com/echotab/echotab-server/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *store.Store
	views   *view.Views
	browser *browser.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{browser: browser.NewFake()}
	f.store = store.New(store.Options{
		Adapter:  kv.NewMemory(),
		Browser:  f.browser,
		Debounce: time.Millisecond,
	})
	require.NoError(t, f.store.Init(context.Background()))
	f.views = view.New(f.store, nil)
	t.Cleanup(func() {
		f.views.Close()
		f.store.Close()
	})
	return f
}

func (f *fixture) openTab(t *testing.T, title, url string, windowID int) int {
	t.Helper()
	return f.browser.Open(domain.ActiveTab{Title: title, URL: url, WindowID: windowID})
}

func (f *fixture) save(t *testing.T, title, url string, tagIDs ...int) domain.SavedTab {
	t.Helper()
	saved, err := f.store.Bookmarks.SaveTabs([]domain.SavedTab{{Title: title, URL: url, TagIDs: tagIDs}})
	require.NoError(t, err)
	return saved[0]
}

func TestFilterActive_EmptyQueryReturnsAll(t *testing.T) {
	f := newFixture(t)
	f.openTab(t, "Go blog", "https://go.dev/blog", 1)
	f.openTab(t, "News", "https://news.example.com", 1)

	got, err := f.views.FilterActive(context.Background(), "  ")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFilterActive_MatchesTitleAndURL(t *testing.T) {
	f := newFixture(t)
	f.openTab(t, "Go blog", "https://go.dev/blog/slices", 1)
	f.openTab(t, "Cooking recipes", "https://food.example.com", 1)

	got, err := f.views.FilterActive(context.Background(), "slices")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Go blog", got[0].Title)
}

func TestFilterActive_RecomputesAfterStoreChange(t *testing.T) {
	f := newFixture(t)
	f.openTab(t, "Go blog", "https://go.dev/blog", 1)

	got, err := f.views.FilterActive(context.Background(), "blog")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Closing the tab invalidates the cached index.
	_, err = f.store.CloseTabs(context.Background(), []int{got[0].ID})
	require.NoError(t, err)

	got, err = f.views.FilterActive(context.Background(), "blog")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterSaved_ByTagOnly(t *testing.T) {
	f := newFixture(t)

	tag, err := f.store.Tags.Create(domain.Tag{Name: "reading"})
	require.NoError(t, err)

	tagged := f.save(t, "Tagged", "https://a.example.com", tag.ID)
	f.save(t, "Untagged", "https://b.example.com")

	got, err := f.views.FilterSaved(context.Background(), "", []int{tag.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tagged.ID, got[0].ID)
}

func TestFilterSaved_KeywordsAndTagsIntersect(t *testing.T) {
	f := newFixture(t)

	tag, err := f.store.Tags.Create(domain.Tag{Name: "reading"})
	require.NoError(t, err)

	f.save(t, "Go generics proposal", "https://a.example.com", tag.ID)
	f.save(t, "Go release notes", "https://b.example.com") // untagged

	got, err := f.views.FilterSaved(context.Background(), "go", []int{tag.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Go generics proposal", got[0].Title)
}

func TestFilterSaved_MatchesNotes(t *testing.T) {
	f := newFixture(t)

	saved := f.save(t, "Article", "https://a.example.com")
	require.NoError(t, f.store.Bookmarks.SetNote(saved.ID, "kubernetes migration notes"))

	got, err := f.views.FilterSaved(context.Background(), "kubernetes", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, saved.ID, got[0].ID)
}

func TestDuplicates_GroupsByCanonicalURL(t *testing.T) {
	f := newFixture(t)

	f.openTab(t, "a", "https://example.com/page?utm_source=x", 1)
	f.openTab(t, "b", "https://example.com/page#section", 1)
	f.openTab(t, "c", "https://example.com/other", 1)
	require.NoError(t, f.store.Tabs.Sync(context.Background()))

	groups := f.views.Duplicates()
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 2)
}

func TestStale_OldTabsOnly(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.browser.Open(domain.ActiveTab{Title: "old", URL: "https://a.example.com", WindowID: 1, LastAccessed: now.Add(-8 * 24 * time.Hour)})
	f.browser.Open(domain.ActiveTab{Title: "fresh", URL: "https://b.example.com", WindowID: 1, LastAccessed: now.Add(-time.Hour)})
	f.browser.Open(domain.ActiveTab{Title: "unknown", URL: "https://c.example.com", WindowID: 1}) // no timestamp
	require.NoError(t, f.store.Tabs.Sync(context.Background()))

	stale := f.views.Stale(now)
	require.Len(t, stale, 1)
	assert.Equal(t, "old", stale[0].Title)
}

func TestAlreadySaved_PairsOpenTabsWithBookmarks(t *testing.T) {
	f := newFixture(t)

	saved := f.save(t, "Article", "https://example.com/page")
	f.openTab(t, "Article", "https://example.com/page?utm_source=x", 1)
	f.openTab(t, "Other", "https://example.com/other", 1)
	require.NoError(t, f.store.Tabs.Sync(context.Background()))

	matches := f.views.AlreadySaved()
	require.Len(t, matches, 1)
	assert.Equal(t, saved.ID, matches[0].Saved.ID)
}

func TestGroupActiveByWindow(t *testing.T) {
	f := newFixture(t)

	f.openTab(t, "a", "https://a.example.com", 2)
	f.openTab(t, "b", "https://b.example.com", 1)
	f.openTab(t, "c", "https://c.example.com", 2)
	require.NoError(t, f.store.Tabs.Sync(context.Background()))

	groups := f.views.GroupActiveByWindow()
	require.Len(t, groups, 2)
	assert.Equal(t, "1", groups[0].Key)
	assert.Len(t, groups[0].Tabs, 1)
	assert.Equal(t, "2", groups[1].Key)
	assert.Len(t, groups[1].Tabs, 2)
}

func TestGroupActiveByDomain_CollapsesSingletons(t *testing.T) {
	f := newFixture(t)

	f.openTab(t, "a", "https://github.com/a", 1)
	f.openTab(t, "b", "https://github.com/b", 1)
	f.openTab(t, "c", "https://www.github.com/c", 1) // www. folds in
	f.openTab(t, "d", "https://lonely.example.com", 1)
	f.openTab(t, "e", "https://solo.example.org", 1)
	require.NoError(t, f.store.Tabs.Sync(context.Background()))

	groups := f.views.GroupActiveByDomain()
	require.Len(t, groups, 2)

	assert.Equal(t, "github.com", groups[0].Key)
	assert.Len(t, groups[0].Tabs, 3)

	// Single-member domains collapse into the trailing catch-all.
	assert.Equal(t, view.OtherGroupKey, groups[1].Key)
	assert.Len(t, groups[1].Tabs, 2)
}

func TestGroupSavedByTag_FavoritesFirstSentinelLast(t *testing.T) {
	f := newFixture(t)

	work, err := f.store.Tags.Create(domain.Tag{Name: "work"})
	require.NoError(t, err)
	reading, err := f.store.Tags.Create(domain.Tag{Name: "reading", Favorite: true})
	require.NoError(t, err)

	f.save(t, "a", "https://a.example.com", work.ID)
	f.save(t, "b", "https://b.example.com", reading.ID)
	f.save(t, "c", "https://c.example.com") // sentinel
	multi := f.save(t, "d", "https://d.example.com", work.ID, reading.ID)

	groups := f.views.GroupSavedByTag()
	require.Len(t, groups, 3)
	assert.Equal(t, "reading", groups[0].Tag.Name)
	assert.Equal(t, "work", groups[1].Tag.Name)
	assert.Equal(t, domain.UntaggedID, groups[2].Tag.ID)

	// Multi-tagged tabs appear in each of their groups.
	assert.Len(t, groups[0].Tabs, 2)
	assert.Len(t, groups[1].Tabs, 2)
	_ = multi
}

func TestSortTags(t *testing.T) {
	tags := []domain.Tag{
		{ID: 0, Name: "Untagged"},
		{ID: 1, Name: "zeta"},
		{ID: 2, Name: "Alpha"},
		{ID: 3, Name: "beta", Favorite: true},
		{ID: 4, Name: "Amber", Favorite: true},
	}

	sorted := view.SortTags(tags)
	names := make([]string, len(sorted))
	for i, tag := range sorted {
		names[i] = tag.Name
	}
	assert.Equal(t, []string{"Amber", "beta", "Alpha", "zeta", "Untagged"}, names)
}

func TestSortSaved_PinnedAlwaysLead(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tabs := []domain.SavedTab{
		{ID: "b", Title: "Bravo", SavedAt: base.Add(2 * time.Hour)},
		{ID: "a", Title: "Alpha", SavedAt: base.Add(time.Hour)},
		{ID: "p", Title: "Zulu", SavedAt: base, Pinned: true},
	}

	recent := view.SortSaved(tabs, view.SortRecent)
	assert.Equal(t, "p", recent[0].ID)
	assert.Equal(t, "b", recent[1].ID)
	assert.Equal(t, "a", recent[2].ID)

	byTitle := view.SortSaved(tabs, view.SortTitle)
	assert.Equal(t, "p", byTitle[0].ID)
	assert.Equal(t, "a", byTitle[1].ID)
	assert.Equal(t, "b", byTitle[2].ID)
}
