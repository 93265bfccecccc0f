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
)

// Queue defaults.
const (
	DefaultAgeThreshold = 30 * 24 * time.Hour
	DefaultCooldown     = 14 * 24 * time.Hour
)

// CurateStore records curation activity, one session per calendar day.
// Reviewing twice on the same day accumulates into that day's session.
type CurateStore struct {
	base
	now      func() time.Time
	sessions map[string]*domain.CurateSession
}

func newCurateStore(d *durable.Store, logger *slog.Logger, emitter EventEmitter, now func() time.Time) *CurateStore {
	return &CurateStore{
		base:     newBase("curate", d, logger, emitter),
		now:      now,
		sessions: make(map[string]*domain.CurateSession),
	}
}

// Init loads persisted sessions.
func (s *CurateStore) Init(ctx context.Context) error {
	data, ok, err := s.durable.Load(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "load curate store")
	}

	sessions := make(map[string]*domain.CurateSession)
	if ok {
		var list []*domain.CurateSession
		if err := json.Unmarshal([]byte(data), &list); err != nil {
			s.logger.Warn("corrupt curate store payload, starting fresh", "error", err)
		} else {
			for _, sess := range list {
				sessions[sess.Date] = sess
			}
		}
	}

	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()

	s.durable.Subscribe(s.applyRemote)
	s.initialized.Store(true)
	s.bump()
	return nil
}

// Record adds review counts to today's session, creating it on first use.
func (s *CurateStore) Record(kept, deleted int) (domain.CurateSession, error) {
	if err := s.ready(); err != nil {
		return domain.CurateSession{}, err
	}
	if kept < 0 || deleted < 0 {
		return domain.CurateSession{}, errors.Validation("session counts cannot be negative")
	}

	day := domain.Day(s.now())

	s.mu.Lock()
	sess, ok := s.sessions[day]
	if !ok {
		sess = &domain.CurateSession{Date: day}
		s.sessions[day] = sess
	}
	sess.Kept += kept
	sess.Deleted += deleted
	out := *sess
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("curate.recorded", out)
	return out, nil
}

// Sessions returns all sessions, newest day first.
func (s *CurateStore) Sessions() []domain.CurateSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CurateSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	slices.SortFunc(out, func(a, b domain.CurateSession) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out
}

// Streak counts consecutive days of curation ending today or yesterday.
// Yesterday still counts so the streak does not read as broken before the
// user has curated today.
func (s *CurateStore) Streak() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := s.now()
	if _, today := s.sessions[domain.Day(day)]; !today {
		day = day.AddDate(0, 0, -1)
		if _, yesterday := s.sessions[domain.Day(day)]; !yesterday {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := s.sessions[domain.Day(day)]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func (s *CurateStore) serialize() (string, error) {
	s.mu.RLock()
	list := make([]*domain.CurateSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b *domain.CurateSession) int {
		return strings.Compare(a.Date, b.Date)
	})
	raw, err := json.Marshal(list)
	return string(raw), err
}

func (s *CurateStore) applyRemote(data, origin string) {
	var list []*domain.CurateSession
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		s.logger.Warn("ignoring corrupt remote curate payload", "error", err)
		return
	}

	sessions := make(map[string]*domain.CurateSession, len(list))
	for _, sess := range list {
		sessions[sess.Date] = sess
	}

	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()

	s.bump()
	s.emitFrom(origin, "curate.replaced", nil)
}

// QueueOptions tunes curation queue qualification.
type QueueOptions struct {
	Now          time.Time
	AgeThreshold time.Duration // Zero means DefaultAgeThreshold
	Cooldown     time.Duration // Zero means DefaultCooldown
}

// QueueEntry is one saved tab in the curation queue with the reasons it
// qualified, in priority order.
type QueueEntry struct {
	Tab     domain.SavedTab       `json:"tab"`
	Reasons []domain.CurateReason `json:"reasons"`
}

// BuildQueue selects saved tabs worth reviewing and orders them by reason
// priority. A tab qualifies when it is untagged, carries AI or quick tags,
// or has aged past the threshold. Recently curated tabs sit out the
// cooldown. Ordering compares reasons in priority order; the first reason
// held by only one of two entries wins, and ties fall back to save time,
// oldest first.
func BuildQueue(tabs []domain.SavedTab, tags map[int]domain.Tag, opts QueueOptions) []QueueEntry {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	ageThreshold := opts.AgeThreshold
	if ageThreshold == 0 {
		ageThreshold = DefaultAgeThreshold
	}
	cooldown := opts.Cooldown
	if cooldown == 0 {
		cooldown = DefaultCooldown
	}

	var queue []QueueEntry
	for _, tab := range tabs {
		if !tab.LastCuratedAt.IsZero() && now.Sub(tab.LastCuratedAt) < cooldown {
			continue
		}
		reasons := qualify(tab, tags, now, ageThreshold)
		if len(reasons) == 0 {
			continue
		}
		queue = append(queue, QueueEntry{Tab: tab, Reasons: reasons})
	}

	slices.SortStableFunc(queue, compareQueueEntries)
	return queue
}

func qualify(tab domain.SavedTab, tags map[int]domain.Tag, now time.Time, ageThreshold time.Duration) []domain.CurateReason {
	var hasAI, hasQuick bool
	for _, tagID := range tab.TagIDs {
		if t, ok := tags[tagID]; ok {
			hasAI = hasAI || t.AI
			hasQuick = hasQuick || t.Quick
		}
	}
	untagged := len(tab.TagIDs) == 1 && tab.TagIDs[0] == domain.UntaggedID

	var reasons []domain.CurateReason
	for _, r := range domain.CurateReasons() {
		switch r {
		case domain.ReasonUntagged:
			if untagged {
				reasons = append(reasons, r)
			}
		case domain.ReasonAITagged:
			if hasAI {
				reasons = append(reasons, r)
			}
		case domain.ReasonQuickTagged:
			if hasQuick {
				reasons = append(reasons, r)
			}
		case domain.ReasonAged:
			if now.Sub(tab.SavedAt) > ageThreshold {
				reasons = append(reasons, r)
			}
		}
	}
	return reasons
}

func compareQueueEntries(a, b QueueEntry) int {
	for _, r := range domain.CurateReasons() {
		aHas := slices.Contains(a.Reasons, r)
		bHas := slices.Contains(b.Reasons, r)
		if aHas != bHas {
			if aHas {
				return -1
			}
			return 1
		}
	}
	return a.Tab.SavedAt.Compare(b.Tab.SavedAt)
}
