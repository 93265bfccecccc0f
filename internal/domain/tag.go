package domain

// UntaggedID is the reserved sentinel tag id. Every saved tab references at
// least one tag; tabs with no user-assigned tags reference this one. The
// sentinel can never be deleted or remapped.
const UntaggedID = 0

// Tag categorizes saved tabs. Ids are small integers allocated
// monotonically within a store (max existing id + 1, floor 1).
type Tag struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	Favorite bool   `json:"favorite,omitempty"`
	Quick    bool   `json:"isQuick,omitempty"` // Created by the quick-save flow
	AI       bool   `json:"isAI,omitempty"`    // Assigned by an AI suggestion
}

// IsSentinel reports whether this is the reserved Untagged tag.
func (t *Tag) IsSentinel() bool {
	return t.ID == UntaggedID
}

// NewUntagged returns the reserved sentinel tag.
func NewUntagged() *Tag {
	return &Tag{ID: UntaggedID, Name: "Untagged", Color: "#64748b"}
}
