package domain

import (
	"slices"
	"time"
)

// List is a curated, shareable collection of saved tabs with rich-text
// commentary. Content holds the serialized editor output (HTML); the editor
// itself lives in the client.
type List struct {
	ID        string    `json:"id"` // UUID
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	TabIDs    []string  `json:"tabIds"`
	SavedAt   time.Time `json:"savedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Touch updates the UpdatedAt timestamp.
func (l *List) Touch() {
	l.UpdatedAt = time.Now()
}

// AddTab appends a tab reference if not already present.
func (l *List) AddTab(tabID string) bool {
	if slices.Contains(l.TabIDs, tabID) {
		return false
	}
	l.TabIDs = append(l.TabIDs, tabID)
	return true
}

// RemoveTab drops a tab reference. Returns whether anything was removed.
func (l *List) RemoveTab(tabID string) bool {
	before := len(l.TabIDs)
	l.TabIDs = slices.DeleteFunc(l.TabIDs, func(id string) bool {
		return id == tabID
	})
	return len(l.TabIDs) != before
}
