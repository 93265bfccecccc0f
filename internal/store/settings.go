package store

import (
	"context"
	"encoding/json/v2"
	"log/slog"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/durable"
	"github.com/echotab/echotab-server/internal/errors"
)

// SettingsStore holds the flat settings object. Patches merge shallowly;
// fields absent from a persisted payload keep their defaults.
type SettingsStore struct {
	base
	settings domain.Settings
}

func newSettingsStore(d *durable.Store, logger *slog.Logger, emitter EventEmitter) *SettingsStore {
	return &SettingsStore{
		base:     newBase("settings", d, logger, emitter),
		settings: domain.DefaultSettings(),
	}
}

// Init loads persisted settings over the defaults. Corrupt or invalid
// payloads fall back to defaults rather than failing startup.
func (s *SettingsStore) Init(ctx context.Context) error {
	data, ok, err := s.durable.Load(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "load settings store")
	}

	settings := domain.DefaultSettings()
	if ok {
		if err := json.Unmarshal([]byte(data), &settings); err != nil {
			s.logger.Warn("corrupt settings payload, using defaults", "error", err)
			settings = domain.DefaultSettings()
		} else if !settings.Valid() {
			s.logger.Warn("persisted settings carry unrecognized values, using defaults")
			settings = domain.DefaultSettings()
		}
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.durable.Subscribe(s.applyRemote)
	s.initialized.Store(true)
	s.bump()
	return nil
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Patch merges a partial update into the settings. The merged result must
// validate or nothing changes.
func (s *SettingsStore) Patch(p domain.SettingsPatch) (domain.Settings, error) {
	if err := s.ready(); err != nil {
		return domain.Settings{}, err
	}

	s.mu.Lock()
	merged := s.settings
	p.Apply(&merged)
	if !merged.Valid() {
		s.mu.Unlock()
		return domain.Settings{}, errors.Validation("settings patch carries unrecognized values")
	}
	s.settings = merged
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("settings.updated", merged)
	return merged, nil
}

// Reset restores the defaults.
func (s *SettingsStore) Reset() (domain.Settings, error) {
	if err := s.ready(); err != nil {
		return domain.Settings{}, err
	}

	defaults := domain.DefaultSettings()
	s.mu.Lock()
	s.settings = defaults
	s.mu.Unlock()

	s.persist(s.serialize)
	s.bump()
	s.emit("settings.updated", defaults)
	return defaults, nil
}

func (s *SettingsStore) serialize() (string, error) {
	s.mu.RLock()
	settings := s.settings
	s.mu.RUnlock()

	raw, err := json.Marshal(settings)
	return string(raw), err
}

func (s *SettingsStore) applyRemote(data, origin string) {
	settings := domain.DefaultSettings()
	if err := json.Unmarshal([]byte(data), &settings); err != nil || !settings.Valid() {
		s.logger.Warn("ignoring corrupt remote settings payload", "error", err)
		return
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.bump()
	s.emitFrom(origin, "settings.replaced", settings)
}
