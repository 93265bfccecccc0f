package store

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/echotab/echotab-server/internal/browser"
	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/durable"
	"github.com/echotab/echotab-server/internal/errors"
)

// DefaultUndoWindow is how long a batch close can be undone.
const DefaultUndoWindow = 15 * time.Second

// TabFailure reports one tab that could not be closed.
type TabFailure struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// CloseResult reports the outcome of a batch close. Partial failure is
// normal: the closed tabs stay closed.
type CloseResult struct {
	Closed []int        `json:"closed"`
	Failed []TabFailure `json:"failed,omitempty"`
}

// TabStore mirrors the browser's open tabs. The browser owns the tab
// lifecycle; this store reflects it, persists the mirror for other
// surfaces, and layers batch close with a short undo window on top.
type TabStore struct {
	base
	browser browser.TabAPI
	now     func() time.Time

	tabs map[int]*domain.ActiveTab

	undoDeadline time.Time
	undoBuffer   []domain.ActiveTab

	unsubEvents func()

	// onRemoved is set by the container to prune the selection when the
	// browser closes tabs out from under us.
	onRemoved func(ids []int)
}

func newTabStore(d *durable.Store, logger *slog.Logger, emitter EventEmitter, b browser.TabAPI, now func() time.Time) *TabStore {
	return &TabStore{
		base:    newBase("tabs", d, logger, emitter),
		browser: b,
		now:     now,
		tabs:    make(map[int]*domain.ActiveTab),
	}
}

// Init loads the persisted mirror, then refreshes it from the browser when
// one is attached. The stale mirror still renders while the query runs.
func (s *TabStore) Init(ctx context.Context) error {
	data, ok, err := s.durable.Load(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "load tab store")
	}

	tabs := make(map[int]*domain.ActiveTab)
	if ok {
		var list []*domain.ActiveTab
		if err := json.Unmarshal([]byte(data), &list); err != nil {
			s.logger.Warn("corrupt tab store payload, starting fresh", "error", err)
		} else {
			for _, t := range list {
				tabs[t.ID] = t
			}
		}
	}

	s.mu.Lock()
	s.tabs = tabs
	s.mu.Unlock()

	s.durable.Subscribe(s.applyRemote)
	s.initialized.Store(true)
	s.bump()

	if s.browser != nil {
		s.unsubEvents = s.browser.Events(s.handleBrowserEvent)
		if err := s.Sync(ctx); err != nil {
			s.logger.Warn("initial tab sync failed", "error", err)
		}
	}
	return nil
}

// Sync replaces the mirror with the browser's current tab set.
func (s *TabStore) Sync(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.browser == nil {
		return errors.Internal("no browser attached")
	}

	live, err := s.browser.Query(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "query browser tabs")
	}

	s.mu.Lock()
	s.tabs = make(map[int]*domain.ActiveTab, len(live))
	for _, t := range live {
		s.tabs[t.ID] = &t
	}
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("tabs.synced", len(live))
	return nil
}

// All returns copies of the mirrored tabs ordered by id.
func (s *TabStore) All() []domain.ActiveTab {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ActiveTab, 0, len(s.tabs))
	for _, id := range slices.Sorted(maps.Keys(s.tabs)) {
		out = append(out, *s.tabs[id])
	}
	return out
}

// Get returns the mirrored tab with the given browser id.
func (s *TabStore) Get(tabID int) (domain.ActiveTab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tabs[tabID]
	if !ok {
		return domain.ActiveTab{}, errors.NotFoundf("no active tab with id %d", tabID)
	}
	return *t, nil
}

// Close closes tabs through the browser, batch first. Hosts without a
// batch call fall back to per-tab removal; individual failures land in the
// result instead of aborting. Closed tabs enter the undo buffer.
func (s *TabStore) Close(ctx context.Context, tabIDs []int) (CloseResult, error) {
	if err := s.ready(); err != nil {
		return CloseResult{}, err
	}
	if s.browser == nil {
		return CloseResult{}, errors.Internal("no browser attached")
	}
	if len(tabIDs) == 0 {
		return CloseResult{}, errors.Validation("no tab ids given")
	}

	// Snapshot before touching the browser: removal events arrive while the
	// close call is still in flight and prune the mirror, so reading it
	// afterwards would leave nothing to undo.
	s.mu.Lock()
	snapshot := make(map[int]domain.ActiveTab, len(tabIDs))
	for _, tabID := range tabIDs {
		if t, ok := s.tabs[tabID]; ok {
			snapshot[tabID] = *t
		}
	}
	s.mu.Unlock()

	var result CloseResult
	switch err := s.browser.RemoveBatch(ctx, tabIDs); {
	case err == nil:
		result.Closed = slices.Clone(tabIDs)
	case errors.Is(err, browser.ErrBatchUnsupported):
		for _, tabID := range tabIDs {
			if rmErr := s.browser.Remove(ctx, tabID); rmErr != nil {
				result.Failed = append(result.Failed, TabFailure{ID: tabID, Reason: rmErr.Error()})
				continue
			}
			result.Closed = append(result.Closed, tabID)
		}
	default:
		for _, tabID := range tabIDs {
			result.Failed = append(result.Failed, TabFailure{ID: tabID, Reason: err.Error()})
		}
	}

	if len(result.Closed) == 0 {
		return result, nil
	}

	s.mu.Lock()
	buffer := make([]domain.ActiveTab, 0, len(result.Closed))
	for _, tabID := range result.Closed {
		if t, ok := snapshot[tabID]; ok {
			buffer = append(buffer, t)
		}
		delete(s.tabs, tabID)
	}
	s.undoBuffer = buffer
	s.undoDeadline = s.now().Add(DefaultUndoWindow)
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("tabs.closed", result)
	return result, nil
}

// UndoClose reopens the most recently closed batch. Only the last batch is
// undoable and only inside the undo window; reopened tabs get fresh
// browser ids.
func (s *TabStore) UndoClose(ctx context.Context) ([]domain.ActiveTab, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.browser == nil {
		return nil, errors.Internal("no browser attached")
	}

	s.mu.Lock()
	if len(s.undoBuffer) == 0 || s.now().After(s.undoDeadline) {
		s.undoBuffer = nil
		s.mu.Unlock()
		return nil, errors.NotFound("nothing to undo")
	}
	buffer := s.undoBuffer
	s.undoBuffer = nil
	s.mu.Unlock()

	reopened := make([]domain.ActiveTab, 0, len(buffer))
	for _, old := range buffer {
		tab, err := s.browser.Create(ctx, old.URL)
		if err != nil {
			s.logger.Warn("reopen tab failed", "url", old.URL, "error", err)
			continue
		}
		reopened = append(reopened, tab)
	}

	if len(reopened) == 0 {
		return nil, errors.Internal("could not reopen any closed tab")
	}
	s.emit("tabs.reopened", reopened)
	return reopened, nil
}

// SetPinned updates a tab's pinned state through the browser.
func (s *TabStore) SetPinned(ctx context.Context, tabID int, pinned bool) error {
	return s.updateTab(ctx, tabID, func(t *domain.ActiveTab) { t.Pinned = pinned })
}

// SetMuted updates a tab's muted state through the browser.
func (s *TabStore) SetMuted(ctx context.Context, tabID int, muted bool) error {
	return s.updateTab(ctx, tabID, func(t *domain.ActiveTab) { t.Muted = muted })
}

// Reload reloads a tab. The mirror is updated through the browser's own
// event stream, not here.
func (s *TabStore) Reload(ctx context.Context, tabID int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.browser == nil {
		return errors.Internal("no browser attached")
	}
	if _, err := s.Get(tabID); err != nil {
		return err
	}
	if err := s.browser.Reload(ctx, tabID); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "reload browser tab")
	}
	return nil
}

// Move repositions a tab within its window.
func (s *TabStore) Move(ctx context.Context, tabID, index int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.browser == nil {
		return errors.Internal("no browser attached")
	}
	if _, err := s.Get(tabID); err != nil {
		return err
	}
	if err := s.browser.Move(ctx, tabID, index); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "move browser tab")
	}
	return nil
}

// FocusWindow brings a window to the foreground.
func (s *TabStore) FocusWindow(ctx context.Context, windowID int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.browser == nil {
		return errors.Internal("no browser attached")
	}
	if err := s.browser.FocusWindow(ctx, windowID); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "focus browser window")
	}
	return nil
}

func (s *TabStore) updateTab(ctx context.Context, tabID int, fn func(*domain.ActiveTab)) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.browser == nil {
		return errors.Internal("no browser attached")
	}

	s.mu.Lock()
	t, ok := s.tabs[tabID]
	if !ok {
		s.mu.Unlock()
		return errors.NotFoundf("no active tab with id %d", tabID)
	}
	fn(t)
	pinned, muted := t.Pinned, t.Muted
	out := *t
	s.mu.Unlock()

	if err := s.browser.Update(ctx, tabID, pinned, muted); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "update browser tab")
	}
	s.persist(s.serialize)
	s.bump()
	s.emit("tabs.updated", out)
	return nil
}

// handleBrowserEvent keeps the mirror current as the browser creates,
// mutates, and removes tabs outside our control.
func (s *TabStore) handleBrowserEvent(ev browser.TabEvent) {
	if !s.initialized.Load() {
		return
	}

	switch ev.Kind {
	case browser.TabCreated, browser.TabUpdated, browser.TabMoved:
		s.mu.Lock()
		t := ev.Tab
		s.tabs[t.ID] = &t
		s.mu.Unlock()
	case browser.TabRemoved:
		s.mu.Lock()
		_, existed := s.tabs[ev.Tab.ID]
		delete(s.tabs, ev.Tab.ID)
		s.mu.Unlock()
		if existed && s.onRemoved != nil {
			s.onRemoved([]int{ev.Tab.ID})
		}
	default:
		return
	}

	s.persist(s.serialize)
	s.bump()
	s.emit("tabs.changed", ev.Kind)
}

func (s *TabStore) serialize() (string, error) {
	s.mu.RLock()
	list := make([]*domain.ActiveTab, 0, len(s.tabs))
	for _, id := range slices.Sorted(maps.Keys(s.tabs)) {
		list = append(list, s.tabs[id])
	}
	s.mu.RUnlock()

	raw, err := json.Marshal(list)
	return string(raw), err
}

func (s *TabStore) applyRemote(data, origin string) {
	var list []*domain.ActiveTab
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		s.logger.Warn("ignoring corrupt remote tab payload", "error", err)
		return
	}

	tabs := make(map[int]*domain.ActiveTab, len(list))
	for _, t := range list {
		tabs[t.ID] = t
	}

	s.mu.Lock()
	s.tabs = tabs
	s.mu.Unlock()

	s.bump()
	s.emitFrom(origin, "tabs.replaced", nil)
}

func (s *TabStore) close() {
	if s.unsubEvents != nil {
		s.unsubEvents()
	}
	s.base.close()
}
