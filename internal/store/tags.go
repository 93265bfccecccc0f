package store

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/durable"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/normalize"
)

// TagStore holds the tag collection. The Untagged sentinel (id 0) always
// exists and can never be renamed or deleted; new ids are allocated as
// max existing id + 1, never below 1.
type TagStore struct {
	base
	tags map[int]*domain.Tag
}

func newTagStore(d *durable.Store, logger *slog.Logger, emitter EventEmitter) *TagStore {
	return &TagStore{
		base: newBase("tags", d, logger, emitter),
		tags: make(map[int]*domain.Tag),
	}
}

// Init loads persisted tags. A missing or corrupt payload starts from just
// the sentinel; corruption is logged, never fatal.
func (s *TagStore) Init(ctx context.Context) error {
	data, ok, err := s.durable.Load(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "load tag store")
	}

	tags := make(map[int]*domain.Tag)
	if ok {
		var list []*domain.Tag
		if err := json.Unmarshal([]byte(data), &list); err != nil {
			s.logger.Warn("corrupt tag store payload, starting fresh", "error", err)
		} else {
			for _, t := range list {
				tags[t.ID] = t
			}
		}
	}
	if _, exists := tags[domain.UntaggedID]; !exists {
		tags[domain.UntaggedID] = domain.NewUntagged()
	}

	s.mu.Lock()
	s.tags = tags
	s.mu.Unlock()

	s.durable.Subscribe(s.applyRemote)
	s.initialized.Store(true)
	s.bump()
	return nil
}

// List returns all tags sorted by id, sentinel first.
func (s *TagStore) List() []domain.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// Map returns a copy of the tag collection keyed by id.
func (s *TagStore) Map() map[int]domain.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]domain.Tag, len(s.tags))
	for id, t := range s.tags {
		out[id] = *t
	}
	return out
}

// Get returns the tag with the given id.
func (s *TagStore) Get(id int) (domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tags[id]
	if !ok {
		return domain.Tag{}, errors.NotFoundf("no tag with id %d", id)
	}
	return *t, nil
}

// Create adds a new tag. The id field of the input is ignored; the store
// allocates the next id. Names are unique under casefolded comparison.
func (s *TagStore) Create(tag domain.Tag) (domain.Tag, error) {
	if err := s.ready(); err != nil {
		return domain.Tag{}, err
	}

	tag.Name = strings.TrimSpace(tag.Name)
	norm := normalize.TagName(tag.Name)
	if norm == "" {
		return domain.Tag{}, errors.Validation("tag name cannot be empty")
	}

	s.mu.Lock()
	for _, existing := range s.tags {
		if normalize.TagName(existing.Name) == norm {
			s.mu.Unlock()
			return domain.Tag{}, errors.AlreadyExistsf("tag %q already exists", existing.Name)
		}
	}
	tag.ID = s.nextIDLocked()
	s.tags[tag.ID] = &tag
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("tag.created", tag)
	return tag, nil
}

// CreateWithID adds a tag keeping the caller-supplied id. Snapshot import
// uses this for imported ids that collide with nothing locally. The id must
// be positive and free; names stay unique under casefolded comparison.
func (s *TagStore) CreateWithID(tag domain.Tag) (domain.Tag, error) {
	if err := s.ready(); err != nil {
		return domain.Tag{}, err
	}
	if tag.ID <= domain.UntaggedID {
		return domain.Tag{}, errors.Validation("tag id must be positive")
	}

	tag.Name = strings.TrimSpace(tag.Name)
	norm := normalize.TagName(tag.Name)
	if norm == "" {
		return domain.Tag{}, errors.Validation("tag name cannot be empty")
	}

	s.mu.Lock()
	if _, exists := s.tags[tag.ID]; exists {
		s.mu.Unlock()
		return domain.Tag{}, errors.AlreadyExistsf("tag id %d already exists", tag.ID)
	}
	for _, existing := range s.tags {
		if normalize.TagName(existing.Name) == norm {
			s.mu.Unlock()
			return domain.Tag{}, errors.AlreadyExistsf("tag %q already exists", existing.Name)
		}
	}
	s.tags[tag.ID] = &tag
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("tag.created", tag)
	return tag, nil
}

// Update replaces a tag's mutable fields. The sentinel cannot be updated
// and names must stay unique.
func (s *TagStore) Update(tag domain.Tag) (domain.Tag, error) {
	if err := s.ready(); err != nil {
		return domain.Tag{}, err
	}
	if tag.ID == domain.UntaggedID {
		return domain.Tag{}, errors.Validation("the Untagged tag cannot be modified")
	}

	tag.Name = strings.TrimSpace(tag.Name)
	norm := normalize.TagName(tag.Name)
	if norm == "" {
		return domain.Tag{}, errors.Validation("tag name cannot be empty")
	}

	s.mu.Lock()
	existing, ok := s.tags[tag.ID]
	if !ok {
		s.mu.Unlock()
		return domain.Tag{}, errors.NotFoundf("no tag with id %d", tag.ID)
	}
	for id, other := range s.tags {
		if id != tag.ID && normalize.TagName(other.Name) == norm {
			s.mu.Unlock()
			return domain.Tag{}, errors.AlreadyExistsf("tag %q already exists", other.Name)
		}
	}
	*existing = tag
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("tag.updated", tag)
	return tag, nil
}

// ToggleFavorite flips a tag's favorite flag.
func (s *TagStore) ToggleFavorite(id int) (domain.Tag, error) {
	if err := s.ready(); err != nil {
		return domain.Tag{}, err
	}

	s.mu.Lock()
	t, ok := s.tags[id]
	if !ok {
		s.mu.Unlock()
		return domain.Tag{}, errors.NotFoundf("no tag with id %d", id)
	}
	t.Favorite = !t.Favorite
	out := *t
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("tag.updated", out)
	return out, nil
}

// Delete removes tags by id. The sentinel is refused outright; unknown ids
// are skipped. Returns the ids actually removed. Saved tabs referencing the
// removed tags are repaired by the container, not here.
func (s *TagStore) Delete(ids []int) ([]int, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if slices.Contains(ids, domain.UntaggedID) {
		return nil, errors.Validation("the Untagged tag cannot be deleted")
	}

	s.mu.Lock()
	var removed []int
	for _, id := range ids {
		if _, ok := s.tags[id]; ok {
			delete(s.tags, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	if len(removed) == 0 {
		return nil, nil
	}
	s.persist(s.serialize)
	s.bump()
	s.emit("tag.deleted", removed)
	return removed, nil
}

// QuickTagName returns the display name of the quick-save tag for a day.
func QuickTagName(t time.Time) string {
	return "Quick " + t.Format("Jan 2, 2006")
}

// EnsureQuick returns the quick-save tag for the given day, creating it on
// first use.
func (s *TagStore) EnsureQuick(now time.Time) (domain.Tag, error) {
	if err := s.ready(); err != nil {
		return domain.Tag{}, err
	}

	name := QuickTagName(now)
	norm := normalize.TagName(name)

	s.mu.RLock()
	for _, t := range s.tags {
		if t.Quick && normalize.TagName(t.Name) == norm {
			out := *t
			s.mu.RUnlock()
			return out, nil
		}
	}
	s.mu.RUnlock()

	return s.Create(domain.Tag{Name: name, Quick: true})
}

// nextIDLocked allocates max existing id + 1 with a floor of 1, so the
// sentinel's id 0 is never handed out even on an empty store.
func (s *TagStore) nextIDLocked() int {
	next := 1
	for id := range s.tags {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

func (s *TagStore) sortedLocked() []domain.Tag {
	out := make([]domain.Tag, 0, len(s.tags))
	for _, id := range slices.Sorted(maps.Keys(s.tags)) {
		out = append(out, *s.tags[id])
	}
	return out
}

func (s *TagStore) serialize() (string, error) {
	s.mu.RLock()
	list := s.sortedLocked()
	s.mu.RUnlock()

	raw, err := json.Marshal(list)
	return string(raw), err
}

// applyRemote replaces local state with a payload written by another
// context. No persist: writing the payload back out would ping-pong.
func (s *TagStore) applyRemote(data, origin string) {
	var list []*domain.Tag
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		s.logger.Warn("ignoring corrupt remote tag payload", "error", err)
		return
	}

	tags := make(map[int]*domain.Tag, len(list))
	for _, t := range list {
		tags[t.ID] = t
	}
	if _, exists := tags[domain.UntaggedID]; !exists {
		tags[domain.UntaggedID] = domain.NewUntagged()
	}

	s.mu.Lock()
	s.tags = tags
	s.mu.Unlock()

	s.bump()
	s.emitFrom(origin, "tags.replaced", nil)
}
