package domain

import (
	"time"

	"github.com/echotab/echotab-server/internal/normalize"
)

// ActiveTab mirrors a live browser tab. The id is browser-assigned; the
// store only reflects the browser's tab lifecycle, it never originates ids.
type ActiveTab struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	WindowID     int       `json:"windowId"`
	Pinned       bool      `json:"pinned,omitempty"`
	Audible      bool      `json:"audible,omitempty"`
	Muted        bool      `json:"muted,omitempty"`
	LastAccessed time.Time `json:"lastAccessed,omitzero"`
}

// StaleAfter is how long a tab can go unaccessed before it counts as stale.
const StaleAfter = 7 * 24 * time.Hour

// Stale reports whether the tab has not been accessed within StaleAfter.
// Tabs without access timestamps are never considered stale.
func (t *ActiveTab) Stale(now time.Time) bool {
	if t.LastAccessed.IsZero() {
		return false
	}
	return now.Sub(t.LastAccessed) > StaleAfter
}

// CanonicalURL returns the deduplication identity of this tab.
func (t *ActiveTab) CanonicalURL() string {
	return normalize.CanonicalURL(t.URL)
}
