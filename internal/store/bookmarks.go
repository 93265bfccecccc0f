package store

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/durable"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/id"
	"github.com/echotab/echotab-server/internal/normalize"
)

// bookmarkState is the persisted shape of the bookmark store: the saved
// tabs plus the lists that reference them.
type bookmarkState struct {
	Tabs  []*domain.SavedTab `json:"tabs"`
	Lists []*domain.List     `json:"lists"`
}

// BookmarkStore holds saved tabs and lists. Saved tab identity is the
// canonicalized URL: saving an already-known page merges into the existing
// record instead of creating a duplicate.
type BookmarkStore struct {
	base
	now func() time.Time

	tabs        []*domain.SavedTab // insertion order
	byCanonical map[string]*domain.SavedTab
	lists       map[string]*domain.List
}

func newBookmarkStore(d *durable.Store, logger *slog.Logger, emitter EventEmitter, now func() time.Time) *BookmarkStore {
	return &BookmarkStore{
		base:        newBase("bookmarks", d, logger, emitter),
		now:         now,
		byCanonical: make(map[string]*domain.SavedTab),
		lists:       make(map[string]*domain.List),
	}
}

// Init loads persisted bookmarks. Corrupt payloads are logged and replaced
// with an empty store.
func (s *BookmarkStore) Init(ctx context.Context) error {
	data, ok, err := s.durable.Load(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "load bookmark store")
	}

	var state bookmarkState
	if ok {
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			s.logger.Warn("corrupt bookmark store payload, starting fresh", "error", err)
			state = bookmarkState{}
		}
	}

	s.mu.Lock()
	s.applyStateLocked(state)
	s.mu.Unlock()

	s.durable.Subscribe(s.applyRemote)
	s.initialized.Store(true)
	s.bump()
	return nil
}

// All returns copies of every saved tab in insertion order.
func (s *BookmarkStore) All() []domain.SavedTab {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SavedTab, 0, len(s.tabs))
	for _, t := range s.tabs {
		out = append(out, *t)
	}
	return out
}

// Get returns the saved tab with the given id.
func (s *BookmarkStore) Get(tabID string) (domain.SavedTab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tabs {
		if t.ID == tabID {
			return *t, nil
		}
	}
	return domain.SavedTab{}, errors.NotFoundf("no saved tab with id %s", tabID)
}

// FindByURL returns the saved tab whose canonical URL matches the given
// raw URL, if any.
func (s *BookmarkStore) FindByURL(rawURL string) (domain.SavedTab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byCanonical[normalize.CanonicalURL(rawURL)]
	if !ok {
		return domain.SavedTab{}, false
	}
	return *t, true
}

// SaveTabs saves pages, merging each into an existing record when its
// canonical URL is already known. Merging unions tags, keeps the original
// id and save time, and refreshes the title. Returns the resulting records
// in input order.
func (s *BookmarkStore) SaveTabs(incoming []domain.SavedTab) ([]domain.SavedTab, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]domain.SavedTab, 0, len(incoming))

	s.mu.Lock()
	for _, in := range incoming {
		if strings.TrimSpace(in.URL) == "" {
			continue
		}
		canonical := normalize.CanonicalURL(in.URL)

		if existing, ok := s.byCanonical[canonical]; ok {
			existing.AddTags(in.TagIDs)
			if in.Title != "" {
				existing.Title = in.Title
			}
			if existing.Note == "" {
				existing.Note = in.Note
			}
			existing.Pinned = existing.Pinned || in.Pinned
			out = append(out, *existing)
			continue
		}

		tab := in
		if tab.ID == "" {
			tab.ID = id.NewUUID()
		}
		if tab.SavedAt.IsZero() {
			tab.SavedAt = now
		}
		tab.EnsureTagged()
		s.tabs = append(s.tabs, &tab)
		s.byCanonical[canonical] = &tab
		out = append(out, tab)
	}
	s.mu.Unlock()

	if len(out) == 0 {
		return nil, errors.Validation("no saveable tabs in request")
	}
	s.persist(s.serialize)
	s.bump()
	s.emit("bookmarks.saved", out)
	return out, nil
}

// RemoveTabs deletes saved tabs and strips their references from every
// list. Unknown ids are skipped; returns the ids actually removed.
func (s *BookmarkStore) RemoveTabs(tabIDs []string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	var removed []string
	s.tabs = slices.DeleteFunc(s.tabs, func(t *domain.SavedTab) bool {
		if !slices.Contains(tabIDs, t.ID) {
			return false
		}
		delete(s.byCanonical, t.CanonicalURL())
		removed = append(removed, t.ID)
		return true
	})
	for _, rm := range removed {
		for _, l := range s.lists {
			l.RemoveTab(rm)
		}
	}
	s.mu.Unlock()

	if len(removed) == 0 {
		return nil, nil
	}
	s.persist(s.serialize)
	s.bump()
	s.emit("bookmarks.removed", removed)
	return removed, nil
}

// AddTags unions tag ids into each listed tab.
func (s *BookmarkStore) AddTags(tabIDs []string, tagIDs []int) error {
	return s.mutateTabs(tabIDs, "bookmarks.tagged", func(t *domain.SavedTab) {
		t.AddTags(tagIDs)
	})
}

// RemoveTagsFromTabs removes tag ids from each listed tab, falling back to
// the sentinel when a tab would end up with no tags.
func (s *BookmarkStore) RemoveTagsFromTabs(tabIDs []string, tagIDs []int) error {
	return s.mutateTabs(tabIDs, "bookmarks.untagged", func(t *domain.SavedTab) {
		t.RemoveTags(tagIDs)
	})
}

// SetNote replaces a tab's note.
func (s *BookmarkStore) SetNote(tabID, note string) error {
	return s.mutateTabs([]string{tabID}, "bookmarks.updated", func(t *domain.SavedTab) {
		t.Note = note
	})
}

// TogglePinned flips a tab's pinned flag.
func (s *BookmarkStore) TogglePinned(tabID string) error {
	return s.mutateTabs([]string{tabID}, "bookmarks.updated", func(t *domain.SavedTab) {
		t.Pinned = !t.Pinned
	})
}

// MarkVisited stamps a tab's last visit time.
func (s *BookmarkStore) MarkVisited(tabID string) error {
	now := s.now()
	return s.mutateTabs([]string{tabID}, "bookmarks.updated", func(t *domain.SavedTab) {
		t.VisitedAt = now
	})
}

// MarkCurated stamps tabs as reviewed so they leave the curation queue
// until the cooldown passes.
func (s *BookmarkStore) MarkCurated(tabIDs []string) error {
	now := s.now()
	return s.mutateTabs(tabIDs, "bookmarks.curated", func(t *domain.SavedTab) {
		t.LastCuratedAt = now
	})
}

// mutateTabs applies fn to each named tab under the lock, then persists
// once. Missing ids fail the whole call before anything is mutated.
func (s *BookmarkStore) mutateTabs(tabIDs []string, action string, fn func(*domain.SavedTab)) error {
	if err := s.ready(); err != nil {
		return err
	}

	s.mu.Lock()
	targets := make([]*domain.SavedTab, 0, len(tabIDs))
	for _, want := range tabIDs {
		i := slices.IndexFunc(s.tabs, func(t *domain.SavedTab) bool { return t.ID == want })
		if i < 0 {
			s.mu.Unlock()
			return errors.NotFoundf("no saved tab with id %s", want)
		}
		targets = append(targets, s.tabs[i])
	}
	changed := make([]domain.SavedTab, 0, len(targets))
	for _, t := range targets {
		fn(t)
		changed = append(changed, *t)
	}
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit(action, changed)
	return nil
}

// repairTagRefs strips deleted tag ids from every tab. Tabs left with no
// tags fall back to the sentinel. Called by the container after tag
// deletion.
func (s *BookmarkStore) repairTagRefs(deletedTagIDs []int) {
	s.mu.Lock()
	repaired := 0
	for _, t := range s.tabs {
		before := slices.Clone(t.TagIDs)
		t.RemoveTags(deletedTagIDs)
		if !slices.Equal(before, t.TagIDs) {
			repaired++
		}
	}
	s.mu.Unlock()

	if repaired == 0 {
		return
	}
	s.persist(s.serialize)
	s.bump()
	s.emit("bookmarks.repaired", repaired)
}

// Lists returns copies of every list, most recently updated first.
func (s *BookmarkStore) Lists() []domain.List {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.List, 0, len(s.lists))
	for _, l := range s.lists {
		out = append(out, *l)
	}
	slices.SortFunc(out, func(a, b domain.List) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// GetList returns the list with the given id.
func (s *BookmarkStore) GetList(listID string) (domain.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lists[listID]
	if !ok {
		return domain.List{}, errors.NotFoundf("no list with id %s", listID)
	}
	return *l, nil
}

// CreateList creates a list referencing the given saved tabs. References to
// unknown tabs are dropped silently.
func (s *BookmarkStore) CreateList(title, content string, tabIDs []string) (domain.List, error) {
	if err := s.ready(); err != nil {
		return domain.List{}, err
	}
	if strings.TrimSpace(title) == "" {
		return domain.List{}, errors.Validation("list title cannot be empty")
	}

	now := s.now()
	l := &domain.List{
		ID:        id.NewUUID(),
		Title:     strings.TrimSpace(title),
		Content:   content,
		SavedAt:   now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	for _, tabID := range tabIDs {
		if slices.ContainsFunc(s.tabs, func(t *domain.SavedTab) bool { return t.ID == tabID }) {
			l.AddTab(tabID)
		}
	}
	if l.TabIDs == nil {
		l.TabIDs = []string{}
	}
	s.lists[l.ID] = l
	out := *l
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("list.created", out)
	return out, nil
}

// UpdateList replaces a list's title and content.
func (s *BookmarkStore) UpdateList(listID, title, content string) (domain.List, error) {
	if err := s.ready(); err != nil {
		return domain.List{}, err
	}
	if strings.TrimSpace(title) == "" {
		return domain.List{}, errors.Validation("list title cannot be empty")
	}

	s.mu.Lock()
	l, ok := s.lists[listID]
	if !ok {
		s.mu.Unlock()
		return domain.List{}, errors.NotFoundf("no list with id %s", listID)
	}
	l.Title = strings.TrimSpace(title)
	l.Content = content
	l.UpdatedAt = s.now()
	out := *l
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("list.updated", out)
	return out, nil
}

// DeleteList removes a list. The saved tabs it referenced are untouched.
func (s *BookmarkStore) DeleteList(listID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	s.mu.Lock()
	_, ok := s.lists[listID]
	delete(s.lists, listID)
	s.mu.Unlock()

	if !ok {
		return errors.NotFoundf("no list with id %s", listID)
	}
	s.persist(s.serialize)
	s.bump()
	s.emit("list.deleted", listID)
	return nil
}

// AddToList appends saved tabs to a list, skipping duplicates and unknown
// tab ids.
func (s *BookmarkStore) AddToList(listID string, tabIDs []string) (domain.List, error) {
	if err := s.ready(); err != nil {
		return domain.List{}, err
	}

	s.mu.Lock()
	l, ok := s.lists[listID]
	if !ok {
		s.mu.Unlock()
		return domain.List{}, errors.NotFoundf("no list with id %s", listID)
	}
	added := false
	for _, tabID := range tabIDs {
		if slices.ContainsFunc(s.tabs, func(t *domain.SavedTab) bool { return t.ID == tabID }) {
			added = l.AddTab(tabID) || added
		}
	}
	if added {
		l.UpdatedAt = s.now()
	}
	out := *l
	s.mu.Unlock()

	if added {
		s.persist(s.serialize)
		s.bump()
		s.emit("list.updated", out)
	}
	return out, nil
}

// RemoveFromList drops saved tab references from a list.
func (s *BookmarkStore) RemoveFromList(listID string, tabIDs []string) (domain.List, error) {
	if err := s.ready(); err != nil {
		return domain.List{}, err
	}

	s.mu.Lock()
	l, ok := s.lists[listID]
	if !ok {
		s.mu.Unlock()
		return domain.List{}, errors.NotFoundf("no list with id %s", listID)
	}
	removed := false
	for _, tabID := range tabIDs {
		removed = l.RemoveTab(tabID) || removed
	}
	if removed {
		l.UpdatedAt = s.now()
	}
	out := *l
	s.mu.Unlock()

	if removed {
		s.persist(s.serialize)
		s.bump()
		s.emit("list.updated", out)
	}
	return out, nil
}

func (s *BookmarkStore) applyStateLocked(state bookmarkState) {
	s.tabs = s.tabs[:0]
	clear(s.byCanonical)
	s.lists = make(map[string]*domain.List, len(state.Lists))

	for _, t := range state.Tabs {
		t.EnsureTagged()
		canonical := t.CanonicalURL()
		if _, dup := s.byCanonical[canonical]; dup {
			continue // Duplicates from older versions collapse on load
		}
		s.tabs = append(s.tabs, t)
		s.byCanonical[canonical] = t
	}
	for _, l := range state.Lists {
		s.lists[l.ID] = l
	}
}

func (s *BookmarkStore) serialize() (string, error) {
	s.mu.RLock()
	state := bookmarkState{
		Tabs:  slices.Clone(s.tabs),
		Lists: make([]*domain.List, 0, len(s.lists)),
	}
	for _, l := range s.lists {
		state.Lists = append(state.Lists, l)
	}
	s.mu.RUnlock()

	slices.SortFunc(state.Lists, func(a, b *domain.List) int {
		return strings.Compare(a.ID, b.ID)
	})
	if state.Tabs == nil {
		state.Tabs = []*domain.SavedTab{}
	}

	raw, err := json.Marshal(state)
	return string(raw), err
}

func (s *BookmarkStore) applyRemote(data, origin string) {
	var state bookmarkState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		s.logger.Warn("ignoring corrupt remote bookmark payload", "error", err)
		return
	}

	s.mu.Lock()
	s.applyStateLocked(state)
	s.mu.Unlock()

	s.bump()
	s.emitFrom(origin, "bookmarks.replaced", nil)
}
