// Package store implements the reactive entity stores: tags, bookmarks,
// active tabs, curate sessions, settings, and the transient selection. Each
// persisted store owns a durable.Store keyed by entity name and schema
// version, loads its state on Init, and reacts to writes from other contexts
// through the durable change stream.
package store

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/echotab/echotab-server/internal/browser"
	"github.com/echotab/echotab-server/internal/durable"
	"github.com/echotab/echotab-server/internal/kv"
)

// schemaVersion is baked into every storage key. Bumping it orphans old
// payloads instead of corrupting them.
const schemaVersion = "v1"

// Selection panel names.
const (
	PanelActive = "active"
	PanelSaved  = "saved"
)

func storageKey(name string) string {
	return "echotab-" + name + "-store-" + schemaVersion
}

// ChangeEvent describes a store mutation for the change stream.
type ChangeEvent struct {
	Store  string `json:"store"`
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

// EventEmitter receives store change events. The SSE manager implements it
// for real; NoopEmitter serves tests. Local mutations go through Emit with
// no origin; changes replayed from another context's durable write go
// through EmitFrom carrying that context's instance id, so the surface that
// wrote them is not echoed its own change.
type EventEmitter interface {
	Emit(event ChangeEvent)
	EmitFrom(origin string, event ChangeEvent)
}

// NoopEmitter discards all events.
type NoopEmitter struct{}

// Emit implements EventEmitter.
func (NoopEmitter) Emit(ChangeEvent) {}

// EmitFrom implements EventEmitter.
func (NoopEmitter) EmitFrom(string, ChangeEvent) {}

// Options configures the store container.
type Options struct {
	Adapter  kv.Adapter
	Browser  browser.TabAPI // Optional; active tab operations fail without it
	Logger   *slog.Logger
	Emitter  EventEmitter
	Debounce time.Duration    // Durable write coalescing window
	Now      func() time.Time // Clock override for tests
}

// Store is the container owning every entity store. Cross-entity operations
// (tag deletion repair, selection pruning) live here so the individual
// stores stay independent.
type Store struct {
	logger *slog.Logger

	Tags      *TagStore
	Bookmarks *BookmarkStore
	Tabs      *TabStore
	Curate    *CurateStore
	Settings  *SettingsStore
	Selection *SelectionStore
}

// New builds the container. Nothing touches storage until Init.
func New(opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	mkDurable := func(name string) *durable.Store {
		return durable.New(durable.Options{
			Adapter:  opts.Adapter,
			Key:      storageKey(name),
			Debounce: opts.Debounce,
			Logger:   log,
		})
	}

	s := &Store{
		logger:    log,
		Tags:      newTagStore(mkDurable("tags"), log, emitter),
		Bookmarks: newBookmarkStore(mkDurable("bookmarks"), log, emitter, now),
		Tabs:      newTabStore(mkDurable("tabs"), log, emitter, opts.Browser, now),
		Curate:    newCurateStore(mkDurable("curate"), log, emitter, now),
		Settings:  newSettingsStore(mkDurable("settings"), log, emitter),
		Selection: newSelectionStore(emitter),
	}

	// Browser-originated removals prune the selection like local closes do.
	s.Tabs.onRemoved = func(ids []int) {
		s.Selection.Remove(PanelActive, formatTabIDs(ids)...)
	}
	return s
}

// Init loads persisted state into every store and wires cross-context
// change subscriptions. Mutations fail with a NOT_INITIALIZED error until
// this returns.
func (s *Store) Init(ctx context.Context) error {
	if err := s.Tags.Init(ctx); err != nil {
		return err
	}
	if err := s.Bookmarks.Init(ctx); err != nil {
		return err
	}
	if err := s.Tabs.Init(ctx); err != nil {
		return err
	}
	if err := s.Curate.Init(ctx); err != nil {
		return err
	}
	return s.Settings.Init(ctx)
}

// Close flushes pending durable writes and detaches subscriptions.
func (s *Store) Close() {
	s.Tags.close()
	s.Bookmarks.close()
	s.Tabs.close()
	s.Curate.close()
	s.Settings.close()
}

// InstanceIDs returns the durable instance id of every persisted store,
// keyed by store name. Surfaces send these when connecting to the change
// stream so their own writes are not echoed back.
func (s *Store) InstanceIDs() map[string]string {
	return map[string]string{
		"tags":      s.Tags.durable.InstanceID(),
		"bookmarks": s.Bookmarks.durable.InstanceID(),
		"tabs":      s.Tabs.durable.InstanceID(),
		"curate":    s.Curate.durable.InstanceID(),
		"settings":  s.Settings.durable.InstanceID(),
	}
}

// RemoveTags deletes tags and repairs every saved tab that referenced them.
// Orphaned tabs fall back to the Untagged sentinel.
func (s *Store) RemoveTags(ids []int) ([]int, error) {
	removed, err := s.Tags.Delete(ids)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.Bookmarks.repairTagRefs(removed)
	}
	return removed, nil
}

// RemoveSavedTabs deletes bookmarks, strips them from lists, and prunes
// them from the selection.
func (s *Store) RemoveSavedTabs(ids []string) ([]string, error) {
	removed, err := s.Bookmarks.RemoveTabs(ids)
	if err != nil {
		return nil, err
	}
	s.Selection.Remove(PanelSaved, removed...)
	return removed, nil
}

// CloseTabs closes active tabs through the browser and prunes them from the
// selection. Partial failure is reported per tab, not as an error.
func (s *Store) CloseTabs(ctx context.Context, ids []int) (CloseResult, error) {
	result, err := s.Tabs.Close(ctx, ids)
	if err != nil {
		return CloseResult{}, err
	}
	s.Selection.Remove(PanelActive, formatTabIDs(result.Closed)...)
	return result, nil
}

// CurateQueue builds the curation queue from the current bookmark and tag
// state.
func (s *Store) CurateQueue(opts QueueOptions) []QueueEntry {
	return BuildQueue(s.Bookmarks.All(), s.Tags.Map(), opts)
}

func formatTabIDs(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.Itoa(id)
	}
	return out
}
