package domain

import (
	"slices"
	"time"

	"github.com/echotab/echotab-server/internal/normalize"
)

// SavedTab is a bookmarked page. Identity for deduplication is the
// canonicalized URL, not the raw URL: saving a page twice with different
// tracking decorations merges into one record.
type SavedTab struct {
	ID            string    `json:"id"` // UUID
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	TagIDs        []int     `json:"tagIds"` // Never empty; falls back to [UntaggedID]
	SavedAt       time.Time `json:"savedAt"`
	Pinned        bool      `json:"pinned,omitempty"`
	VisitedAt     time.Time `json:"visitedAt,omitzero"`
	LastCuratedAt time.Time `json:"lastCuratedAt,omitzero"`
	Note          string    `json:"note,omitempty"`
}

// CanonicalURL returns the deduplication identity of this tab.
func (t *SavedTab) CanonicalURL() string {
	return normalize.CanonicalURL(t.URL)
}

// HasTag reports whether the tab references the given tag id.
func (t *SavedTab) HasTag(tagID int) bool {
	return slices.Contains(t.TagIDs, tagID)
}

// AddTags unions tagIDs into the tab's tag set, dropping the Untagged
// sentinel once a real tag is present.
func (t *SavedTab) AddTags(tagIDs []int) {
	for _, id := range tagIDs {
		if !slices.Contains(t.TagIDs, id) {
			t.TagIDs = append(t.TagIDs, id)
		}
	}
	t.stripSentinelIfTagged()
	t.EnsureTagged()
}

// RemoveTags removes tagIDs from the tab's tag set, falling back to the
// sentinel when the set would become empty.
func (t *SavedTab) RemoveTags(tagIDs []int) {
	t.TagIDs = slices.DeleteFunc(t.TagIDs, func(id int) bool {
		return slices.Contains(tagIDs, id)
	})
	t.EnsureTagged()
}

// EnsureTagged restores the invariant that TagIDs is never empty.
func (t *SavedTab) EnsureTagged() {
	if len(t.TagIDs) == 0 {
		t.TagIDs = []int{UntaggedID}
	}
}

func (t *SavedTab) stripSentinelIfTagged() {
	if len(t.TagIDs) < 2 {
		return
	}
	t.TagIDs = slices.DeleteFunc(t.TagIDs, func(id int) bool {
		return id == UntaggedID
	})
}
