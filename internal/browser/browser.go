// Package browser defines the tab API collaborator contract. The extension
// host implements it for real; tests use the in-memory Fake. The stores only
// mirror browser-owned tab state, they never originate tab ids.
package browser

import (
	"context"
	"errors"

	"github.com/echotab/echotab-server/internal/domain"
)

// ErrBatchUnsupported is returned by RemoveBatch on hosts without a batched
// close call. Callers fall back to sequential removal.
var ErrBatchUnsupported = errors.New("batch tab removal unsupported")

// TabEventKind discriminates tab lifecycle events.
type TabEventKind string

// Tab lifecycle event kinds.
const (
	TabCreated TabEventKind = "created"
	TabUpdated TabEventKind = "updated"
	TabRemoved TabEventKind = "removed"
	TabMoved   TabEventKind = "moved"
)

// TabEvent is a browser-originated tab lifecycle notification.
type TabEvent struct {
	Kind TabEventKind
	Tab  domain.ActiveTab // Zero except ID for removals
}

// TabAPI is the browser tab surface consumed by the stores.
type TabAPI interface {
	// Query returns all open tabs across windows.
	Query(ctx context.Context) ([]domain.ActiveTab, error)

	// Remove closes a single tab.
	Remove(ctx context.Context, tabID int) error

	// RemoveBatch closes several tabs in one call, all-or-nothing.
	// Returns ErrBatchUnsupported where the host lacks the call.
	RemoveBatch(ctx context.Context, tabIDs []int) error

	// Update mutates mutable tab fields (pinned, muted).
	Update(ctx context.Context, tabID int, pinned, muted bool) error

	// Move repositions a tab within its window.
	Move(ctx context.Context, tabID, index int) error

	// Reload reloads a tab.
	Reload(ctx context.Context, tabID int) error

	// Create opens a URL in a new tab and returns the browser-assigned tab.
	Create(ctx context.Context, url string) (domain.ActiveTab, error)

	// FocusWindow brings a window to the foreground.
	FocusWindow(ctx context.Context, windowID int) error

	// Events registers a tab lifecycle listener and returns an
	// unsubscribe function.
	Events(fn func(TabEvent)) (unsubscribe func())
}
