package store

import (
	"slices"
	"sync"
	"sync/atomic"
)

// SelectionStore tracks which items are selected in each panel. Selection
// is transient UI state: it is never persisted and never crosses contexts,
// so this store has no durable backing and no init gate.
type SelectionStore struct {
	emitter EventEmitter

	mu      sync.RWMutex
	version atomic.Uint64
	panels  map[string]map[string]struct{}
}

func newSelectionStore(emitter EventEmitter) *SelectionStore {
	return &SelectionStore{
		emitter: emitter,
		panels:  make(map[string]map[string]struct{}),
	}
}

// Version returns the selection change counter.
func (s *SelectionStore) Version() uint64 {
	return s.version.Load()
}

// Toggle flips one item's selection and reports its new state.
func (s *SelectionStore) Toggle(panel, itemID string) bool {
	s.mu.Lock()
	set := s.panelLocked(panel)
	_, selected := set[itemID]
	if selected {
		delete(set, itemID)
	} else {
		set[itemID] = struct{}{}
	}
	s.mu.Unlock()

	s.changed(panel)
	return !selected
}

// Replace swaps a panel's selection wholesale, the select-all flow: the
// caller passes the ids of the currently visible (filtered) items.
func (s *SelectionStore) Replace(panel string, itemIDs []string) {
	s.mu.Lock()
	set := make(map[string]struct{}, len(itemIDs))
	for _, itemID := range itemIDs {
		set[itemID] = struct{}{}
	}
	s.panels[panel] = set
	s.mu.Unlock()

	s.changed(panel)
}

// Clear empties a panel's selection.
func (s *SelectionStore) Clear(panel string) {
	s.mu.Lock()
	had := len(s.panels[panel]) > 0
	delete(s.panels, panel)
	s.mu.Unlock()

	if had {
		s.changed(panel)
	}
}

// ClearAll empties every panel.
func (s *SelectionStore) ClearAll() {
	s.mu.Lock()
	had := false
	for _, set := range s.panels {
		had = had || len(set) > 0
	}
	s.panels = make(map[string]map[string]struct{})
	s.mu.Unlock()

	if had {
		s.changed("")
	}
}

// Selected returns a panel's selected ids, sorted for stable output.
func (s *SelectionStore) Selected(panel string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.panels[panel]
	out := make([]string, 0, len(set))
	for itemID := range set {
		out = append(out, itemID)
	}
	slices.Sort(out)
	return out
}

// Count returns how many items a panel has selected.
func (s *SelectionStore) Count(panel string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.panels[panel])
}

// IsSelected reports one item's selection state.
func (s *SelectionStore) IsSelected(panel, itemID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.panels[panel][itemID]
	return ok
}

// Remove prunes ids from a panel after the underlying entities are gone.
// A selection never references a removed entity.
func (s *SelectionStore) Remove(panel string, itemIDs ...string) {
	s.mu.Lock()
	set := s.panels[panel]
	pruned := false
	for _, itemID := range itemIDs {
		if _, ok := set[itemID]; ok {
			delete(set, itemID)
			pruned = true
		}
	}
	s.mu.Unlock()

	if pruned {
		s.changed(panel)
	}
}

func (s *SelectionStore) panelLocked(panel string) map[string]struct{} {
	set, ok := s.panels[panel]
	if !ok {
		set = make(map[string]struct{})
		s.panels[panel] = set
	}
	return set
}

func (s *SelectionStore) changed(panel string) {
	s.version.Add(1)
	s.emitter.Emit(ChangeEvent{Store: "selection", Action: "selection.changed", Data: panel})
}
