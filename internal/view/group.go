package view

import (
	"slices"
	"strconv"
	"strings"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/normalize"
)

// OtherGroupKey collects domains too small to stand alone.
const OtherGroupKey = "other"

// ActiveGroup is one bucket of active tabs.
type ActiveGroup struct {
	Key   string             `json:"key"`
	Label string             `json:"label"`
	Tabs  []domain.ActiveTab `json:"tabs"`
}

// TagGroup is one bucket of saved tabs sharing a tag. A multi-tagged tab
// appears in every group it belongs to.
type TagGroup struct {
	Tag  domain.Tag        `json:"tag"`
	Tabs []domain.SavedTab `json:"tabs"`
}

// GroupActiveByWindow buckets active tabs per browser window, windows in
// id order, tabs in id order within each.
func (v *Views) GroupActiveByWindow() []ActiveGroup {
	byWindow := make(map[int][]domain.ActiveTab)
	for _, t := range v.store.Tabs.All() {
		byWindow[t.WindowID] = append(byWindow[t.WindowID], t)
	}

	windowIDs := make([]int, 0, len(byWindow))
	for id := range byWindow {
		windowIDs = append(windowIDs, id)
	}
	slices.Sort(windowIDs)

	groups := make([]ActiveGroup, 0, len(windowIDs))
	for _, id := range windowIDs {
		key := strconv.Itoa(id)
		groups = append(groups, ActiveGroup{
			Key:   key,
			Label: "Window " + key,
			Tabs:  byWindow[id],
		})
	}
	return groups
}

// GroupActiveByDomain buckets active tabs by registrable domain. Domains
// with a single tab collapse into one trailing "other" group so the view
// is not a wall of one-entry sections. Real groups order by size
// descending, ties alphabetically.
func (v *Views) GroupActiveByDomain() []ActiveGroup {
	byDomain := make(map[string][]domain.ActiveTab)
	for _, t := range v.store.Tabs.All() {
		d := normalize.Domain(t.URL)
		if d == "" {
			d = OtherGroupKey
		}
		byDomain[d] = append(byDomain[d], t)
	}

	var groups []ActiveGroup
	var other []domain.ActiveTab
	for d, tabs := range byDomain {
		if d == OtherGroupKey || len(tabs) < 2 {
			other = append(other, tabs...)
			continue
		}
		groups = append(groups, ActiveGroup{Key: d, Label: d, Tabs: tabs})
	}

	slices.SortFunc(groups, func(a, b ActiveGroup) int {
		if len(a.Tabs) != len(b.Tabs) {
			return len(b.Tabs) - len(a.Tabs)
		}
		return strings.Compare(a.Key, b.Key)
	})

	if len(other) > 0 {
		slices.SortFunc(other, func(a, b domain.ActiveTab) int { return a.ID - b.ID })
		groups = append(groups, ActiveGroup{Key: OtherGroupKey, Label: "Other", Tabs: other})
	}
	return groups
}

// GroupSavedByTag buckets saved tabs per tag in display order: favorite
// tags first (alphabetically), then the rest alphabetically, the Untagged
// sentinel always last. Tags with no tabs are omitted.
func (v *Views) GroupSavedByTag() []TagGroup {
	tags := SortTags(v.store.Tags.List())

	byTag := make(map[int][]domain.SavedTab)
	for _, t := range v.store.Bookmarks.All() {
		for _, tagID := range t.TagIDs {
			byTag[tagID] = append(byTag[tagID], t)
		}
	}

	groups := make([]TagGroup, 0, len(tags))
	for _, tag := range tags {
		if tabs := byTag[tag.ID]; len(tabs) > 0 {
			groups = append(groups, TagGroup{Tag: tag, Tabs: tabs})
		}
	}
	return groups
}

func sortGroupsBySize(groups [][]domain.ActiveTab) {
	slices.SortStableFunc(groups, func(a, b []domain.ActiveTab) int {
		return len(b) - len(a)
	})
}

func sortByLastAccessed(tabs []domain.ActiveTab) {
	slices.SortFunc(tabs, func(a, b domain.ActiveTab) int {
		return a.LastAccessed.Compare(b.LastAccessed)
	})
}
