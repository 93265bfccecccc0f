package browser

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/echotab/echotab-server/internal/domain"
)

// Fake is an in-memory TabAPI for tests. Tab ids are allocated sequentially
// the way a real browser would.
type Fake struct {
	mu     sync.Mutex
	nextID int
	tabs   map[int]domain.ActiveTab

	// BatchUnsupported makes RemoveBatch return ErrBatchUnsupported,
	// forcing callers onto the sequential path.
	BatchUnsupported bool

	// FailRemove lists tab ids whose individual removal fails.
	FailRemove []int

	subMu sync.Mutex
	next  int
	subs  map[int]func(TabEvent)
}

// NewFake creates an empty fake browser.
func NewFake() *Fake {
	return &Fake{
		nextID: 1,
		tabs:   make(map[int]domain.ActiveTab),
		subs:   make(map[int]func(TabEvent)),
	}
}

// Open seeds a tab and returns its assigned id.
func (f *Fake) Open(tab domain.ActiveTab) int {
	f.mu.Lock()
	tab.ID = f.nextID
	f.nextID++
	f.tabs[tab.ID] = tab
	f.mu.Unlock()

	f.emit(TabEvent{Kind: TabCreated, Tab: tab})
	return tab.ID
}

// OpenCount returns the number of open tabs.
func (f *Fake) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tabs)
}

// Query implements TabAPI.
func (f *Fake) Query(_ context.Context) ([]domain.ActiveTab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.ActiveTab, 0, len(f.tabs))
	for _, t := range f.tabs {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b domain.ActiveTab) int { return a.ID - b.ID })
	return out, nil
}

// Remove implements TabAPI.
func (f *Fake) Remove(_ context.Context, tabID int) error {
	if slices.Contains(f.FailRemove, tabID) {
		return fmt.Errorf("tab %d cannot be closed", tabID)
	}

	f.mu.Lock()
	_, ok := f.tabs[tabID]
	delete(f.tabs, tabID)
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("no tab with id %d", tabID)
	}
	f.emit(TabEvent{Kind: TabRemoved, Tab: domain.ActiveTab{ID: tabID}})
	return nil
}

// RemoveBatch implements TabAPI. All-or-nothing: if any tab is marked
// failing, nothing is removed.
func (f *Fake) RemoveBatch(ctx context.Context, tabIDs []int) error {
	if f.BatchUnsupported {
		return ErrBatchUnsupported
	}
	for _, id := range tabIDs {
		if slices.Contains(f.FailRemove, id) {
			return fmt.Errorf("batch close failed at tab %d", id)
		}
	}
	for _, id := range tabIDs {
		if err := f.Remove(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Update implements TabAPI.
func (f *Fake) Update(_ context.Context, tabID int, pinned, muted bool) error {
	f.mu.Lock()
	t, ok := f.tabs[tabID]
	if ok {
		t.Pinned = pinned
		t.Muted = muted
		f.tabs[tabID] = t
	}
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("no tab with id %d", tabID)
	}
	f.emit(TabEvent{Kind: TabUpdated, Tab: t})
	return nil
}

// Move implements TabAPI. The fake does not model ordering; it only emits
// the event.
func (f *Fake) Move(_ context.Context, tabID, _ int) error {
	f.mu.Lock()
	t, ok := f.tabs[tabID]
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("no tab with id %d", tabID)
	}
	f.emit(TabEvent{Kind: TabMoved, Tab: t})
	return nil
}

// Reload implements TabAPI as a no-op.
func (f *Fake) Reload(_ context.Context, tabID int) error {
	f.mu.Lock()
	_, ok := f.tabs[tabID]
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("no tab with id %d", tabID)
	}
	return nil
}

// Create implements TabAPI.
func (f *Fake) Create(_ context.Context, url string) (domain.ActiveTab, error) {
	f.mu.Lock()
	tab := domain.ActiveTab{ID: f.nextID, URL: url}
	f.nextID++
	f.tabs[tab.ID] = tab
	f.mu.Unlock()

	f.emit(TabEvent{Kind: TabCreated, Tab: tab})
	return tab, nil
}

// FocusWindow implements TabAPI as a no-op.
func (f *Fake) FocusWindow(context.Context, int) error { return nil }

// Events implements TabAPI.
func (f *Fake) Events(fn func(TabEvent)) func() {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	id := f.next
	f.next++
	f.subs[id] = fn

	return func() {
		f.subMu.Lock()
		defer f.subMu.Unlock()
		delete(f.subs, id)
	}
}

func (f *Fake) emit(ev TabEvent) {
	f.subMu.Lock()
	fns := make([]func(TabEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
