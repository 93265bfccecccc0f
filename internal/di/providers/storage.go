package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/echotab/echotab-server/internal/config"
	"github.com/echotab/echotab-server/internal/kv"
	"github.com/echotab/echotab-server/internal/logger"
)

// KVHandle wraps the key-value adapter with shutdown capability.
type KVHandle struct {
	kv.Adapter
}

// Shutdown implements do.Shutdownable.
func (h *KVHandle) Shutdown() error {
	return h.Close()
}

// ProvideKV provides the key-value adapter selected by configuration.
func ProvideKV(i do.Injector) (*KVHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Data.Backend {
	case config.BackendBadger:
		adapter, err := kv.NewBadger(filepath.Join(cfg.Data.BasePath, "badger"), log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Badger storage opened", "path", cfg.Data.BasePath)
		return &KVHandle{Adapter: adapter}, nil

	case config.BackendSQLite:
		adapter, err := kv.NewSQLite(filepath.Join(cfg.Data.BasePath, "echotab.db"), log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("SQLite storage opened", "path", cfg.Data.BasePath)
		return &KVHandle{Adapter: adapter}, nil

	case config.BackendMemory:
		log.Warn("In-memory storage selected, nothing will survive a restart")
		return &KVHandle{Adapter: kv.NewMemory()}, nil

	default:
		return nil, fmt.Errorf("unknown data backend: %s", cfg.Data.Backend)
	}
}
