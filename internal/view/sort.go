package view

import (
	"slices"
	"strings"

	"github.com/echotab/echotab-server/internal/domain"
)

// SavedSort selects the ordering for saved tab listings.
type SavedSort string

// Recognized saved tab orderings. Pinned tabs always lead regardless of
// the chosen ordering.
const (
	SortRecent SavedSort = "recent"
	SortOldest SavedSort = "oldest"
	SortTitle  SavedSort = "title"
)

// SortTags orders tags for display: favorites first alphabetically, then
// the rest alphabetically, the Untagged sentinel always last.
func SortTags(tags []domain.Tag) []domain.Tag {
	out := slices.Clone(tags)
	slices.SortStableFunc(out, func(a, b domain.Tag) int {
		if a.IsSentinel() != b.IsSentinel() {
			if a.IsSentinel() {
				return 1
			}
			return -1
		}
		if a.Favorite != b.Favorite {
			if a.Favorite {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

// SortSaved orders saved tabs for display, pinned first.
func SortSaved(tabs []domain.SavedTab, by SavedSort) []domain.SavedTab {
	out := slices.Clone(tabs)
	slices.SortStableFunc(out, func(a, b domain.SavedTab) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		switch by {
		case SortTitle:
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case SortOldest:
			return a.SavedAt.Compare(b.SavedAt)
		default:
			return b.SavedAt.Compare(a.SavedAt)
		}
	})
	return out
}
