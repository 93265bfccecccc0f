package view

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/store"
)

// Views computes derived read models over the store container. All methods
// are safe for concurrent use; results are recomputed only when the
// underlying store versions have moved.
type Views struct {
	store  *store.Store
	logger *slog.Logger

	mu               sync.Mutex
	index            bleve.Index
	indexTabsVer     uint64
	indexSavedVer    uint64
	indexInitialized bool
}

// New creates the view layer over a store container.
func New(s *store.Store, logger *slog.Logger) *Views {
	if logger == nil {
		logger = slog.Default()
	}
	return &Views{store: s, logger: logger}
}

// Close releases the filter index.
func (v *Views) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.index != nil {
		_ = v.index.Close()
		v.index = nil
	}
}

// ensureIndex rebuilds the filter index when either backing store has
// changed since the last build.
func (v *Views) ensureIndex() error {
	tabsVer := v.store.Tabs.Version()
	savedVer := v.store.Bookmarks.Version()
	if v.indexInitialized && tabsVer == v.indexTabsVer && savedVer == v.indexSavedVer {
		return nil
	}

	if err := v.rebuildIndex(v.store.Tabs.All(), v.store.Bookmarks.All()); err != nil {
		return err
	}
	v.indexTabsVer = tabsVer
	v.indexSavedVer = savedVer
	v.indexInitialized = true
	return nil
}

// FilterActive returns active tabs matching the keyword query, best match
// first. An empty query returns every tab in id order.
func (v *Views) FilterActive(ctx context.Context, keywords string) ([]domain.ActiveTab, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return v.store.Tabs.All(), nil
	}

	ids, err := v.search(ctx, keywords, kindActive, nil)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ActiveTab, 0, len(ids))
	for _, raw := range ids {
		tabID, convErr := strconv.Atoi(raw)
		if convErr != nil {
			continue
		}
		if t, getErr := v.store.Tabs.Get(tabID); getErr == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

// FilterSaved returns saved tabs matching the keyword query and tag
// filter, best match first. Both filters are optional; tag filtering alone
// preserves save order.
func (v *Views) FilterSaved(ctx context.Context, keywords string, tagIDs []int) ([]domain.SavedTab, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" && len(tagIDs) == 0 {
		return v.store.Bookmarks.All(), nil
	}
	if keywords == "" {
		return filterByTags(v.store.Bookmarks.All(), tagIDs), nil
	}

	ids, err := v.search(ctx, keywords, kindSaved, tagIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SavedTab, 0, len(ids))
	for _, tabID := range ids {
		if t, getErr := v.store.Bookmarks.Get(tabID); getErr == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

// search runs the keyword query against one document kind and returns the
// bare entity ids in relevance order.
func (v *Views) search(ctx context.Context, keywords, kind string, tagIDs []int) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureIndex(); err != nil {
		return nil, err
	}

	searchQuery := buildFilterQuery(keywords, kind, tagIDs)
	req := bleve.NewSearchRequestOptions(searchQuery, 500, 0, false)
	req.SortBy([]string{"-_score"})

	result, err := v.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "execute filter query")
	}

	prefix := kind + ":"
	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, strings.TrimPrefix(hit.ID, prefix))
	}
	return ids, nil
}

// buildFilterQuery combines the text match with kind and tag constraints.
// Active tabs boost the URL (users hunt open tabs by address); saved tabs
// boost the title.
func buildFilterQuery(keywords, kind string, tagIDs []int) query.Query {
	titleBoost, urlBoost := 3.0, 1.5
	if kind == kindActive {
		titleBoost, urlBoost = 1.5, 3.0
	}

	textQueries := []query.Query{}

	titleMatch := bleve.NewMatchQuery(keywords)
	titleMatch.SetField("title")
	titleMatch.SetBoost(titleBoost)
	textQueries = append(textQueries, titleMatch)

	urlMatch := bleve.NewMatchQuery(keywords)
	urlMatch.SetField("url")
	urlMatch.SetBoost(urlBoost)
	textQueries = append(textQueries, urlMatch)

	noteMatch := bleve.NewMatchQuery(keywords)
	noteMatch.SetField("note")
	textQueries = append(textQueries, noteMatch)

	fuzzy := bleve.NewFuzzyQuery(keywords)
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title")
	fuzzy.SetBoost(0.8)
	textQueries = append(textQueries, fuzzy)

	if len(keywords) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(keywords))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		textQueries = append(textQueries, prefix)
	}

	queries := []query.Query{bleve.NewDisjunctionQuery(textQueries...)}

	kindQuery := bleve.NewTermQuery(kind)
	kindQuery.SetField("kind")
	queries = append(queries, kindQuery)

	if len(tagIDs) > 0 {
		tagQueries := make([]query.Query, len(tagIDs))
		for i, id := range tagIDs {
			tq := bleve.NewTermQuery(strconv.Itoa(id))
			tq.SetField("tag_ids")
			tagQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(tagQueries...))
	}

	return bleve.NewConjunctionQuery(queries...)
}

func filterByTags(tabs []domain.SavedTab, tagIDs []int) []domain.SavedTab {
	out := make([]domain.SavedTab, 0, len(tabs))
	for _, t := range tabs {
		for _, id := range tagIDs {
			if t.HasTag(id) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Duplicates returns groups of active tabs sharing a canonical URL, one
// group per duplicated page, ordered by group size descending.
func (v *Views) Duplicates() [][]domain.ActiveTab {
	byCanonical := make(map[string][]domain.ActiveTab)
	order := []string{}
	for _, t := range v.store.Tabs.All() {
		canonical := t.CanonicalURL()
		if _, seen := byCanonical[canonical]; !seen {
			order = append(order, canonical)
		}
		byCanonical[canonical] = append(byCanonical[canonical], t)
	}

	var groups [][]domain.ActiveTab
	for _, canonical := range order {
		if group := byCanonical[canonical]; len(group) > 1 {
			groups = append(groups, group)
		}
	}
	sortGroupsBySize(groups)
	return groups
}

// Stale returns active tabs unaccessed for longer than domain.StaleAfter,
// oldest first.
func (v *Views) Stale(now time.Time) []domain.ActiveTab {
	var out []domain.ActiveTab
	for _, t := range v.store.Tabs.All() {
		if t.Stale(now) {
			out = append(out, t)
		}
	}
	sortByLastAccessed(out)
	return out
}

// AlreadySaved returns the active tabs whose canonical URL is already
// bookmarked, paired with the saved record.
func (v *Views) AlreadySaved() []SavedMatch {
	var out []SavedMatch
	for _, t := range v.store.Tabs.All() {
		if saved, ok := v.store.Bookmarks.FindByURL(t.URL); ok {
			out = append(out, SavedMatch{Active: t, Saved: saved})
		}
	}
	return out
}

// SavedMatch pairs an open tab with its existing bookmark.
type SavedMatch struct {
	Active domain.ActiveTab `json:"active"`
	Saved  domain.SavedTab  `json:"saved"`
}
