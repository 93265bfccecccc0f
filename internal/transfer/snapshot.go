// Package transfer implements snapshot export and import with
// reconciliation: tag name and id collisions are remapped, existing tag
// attributes win, and tabs merge on canonical URL so importing the same
// snapshot twice changes nothing.
package transfer

import (
	"time"

	"github.com/echotab/echotab-server/internal/domain"
)

// SnapshotVersion is the current export format version.
const SnapshotVersion = 1

// Snapshot is the export wire format: the full tag, saved tab, and list
// state of one installation.
type Snapshot struct {
	Version    int               `json:"version" validate:"gte=0,lte=1"`
	ExportedAt time.Time         `json:"exportedAt,omitzero"`
	Tags       []SnapshotTag     `json:"tags" validate:"dive"`
	Tabs       []SnapshotTab     `json:"tabs" validate:"dive"`
	Lists      []SnapshotList    `json:"lists,omitempty" validate:"dive"`
	Sessions   []domain.CurateSession `json:"sessions,omitempty"`
}

// SnapshotTag is a tag as exported. Ids are only meaningful inside the
// snapshot; import remaps them into the local id space.
type SnapshotTag struct {
	ID       int    `json:"id" validate:"gte=0"`
	Name     string `json:"name" validate:"required,max=120"`
	Color    string `json:"color,omitempty" validate:"omitempty,max=32"`
	Favorite bool   `json:"favorite,omitempty"`
	Quick    bool   `json:"isQuick,omitempty"`
	AI       bool   `json:"isAI,omitempty"`
}

// SnapshotTab is a saved tab as exported.
type SnapshotTab struct {
	ID            string    `json:"id,omitempty"`
	Title         string    `json:"title" validate:"max=2048"`
	URL           string    `json:"url" validate:"required,url"`
	TagIDs        []int     `json:"tagIds" validate:"dive,gte=0"`
	SavedAt       time.Time `json:"savedAt,omitzero"`
	Pinned        bool      `json:"pinned,omitempty"`
	VisitedAt     time.Time `json:"visitedAt,omitzero"`
	LastCuratedAt time.Time `json:"lastCuratedAt,omitzero"`
	Note          string    `json:"note,omitempty"`
}

// SnapshotList is a list as exported. Tab references use snapshot tab ids
// and are rewritten to local ids on import.
type SnapshotList struct {
	ID      string   `json:"id,omitempty"`
	Title   string   `json:"title" validate:"required,max=512"`
	Content string   `json:"content,omitempty"`
	TabIDs  []string `json:"tabIds"`
}

// ImportResult summarizes what an import changed.
type ImportResult struct {
	TagsCreated  int         `json:"tagsCreated"`
	TagsMerged   int         `json:"tagsMerged"`
	TabsCreated  int         `json:"tabsCreated"`
	TabsMerged   int         `json:"tabsMerged"`
	ListsCreated int         `json:"listsCreated"`
	TagRemap     map[int]int `json:"tagRemap,omitempty"` // snapshot tag id -> local tag id
}

// BookmarkNode is one node of a browser bookmark tree: either a folder
// (children, no URL) or a bookmark (URL, no children).
type BookmarkNode struct {
	Title    string         `json:"title"`
	URL      string         `json:"url,omitempty"`
	Children []BookmarkNode `json:"children,omitempty"`
}

// Folder reports whether the node is a folder rather than a bookmark.
func (n *BookmarkNode) Folder() bool {
	return n.URL == "" && len(n.Children) > 0
}
