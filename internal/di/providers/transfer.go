package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/echotab/echotab-server/internal/config"
	"github.com/echotab/echotab-server/internal/logger"
	"github.com/echotab/echotab-server/internal/transfer"
	"github.com/echotab/echotab-server/internal/validation"
)

// ProvideValidator provides the request and snapshot validator.
func ProvideValidator(do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideImporter provides the snapshot importer.
func ProvideImporter(i do.Injector) (*transfer.Importer, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return transfer.NewImporter(storeHandle.Store, v, log.Logger), nil
}

// ProvideExporter provides the snapshot exporter.
func ProvideExporter(i do.Injector) (*transfer.Exporter, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return transfer.NewExporter(storeHandle.Store, time.Now), nil
}

// WatcherHandle wraps the import watch folder with shutdown capability.
// The watcher is nil when the watch folder is disabled.
type WatcherHandle struct {
	*transfer.Watcher
}

// Shutdown implements do.Shutdownable.
func (h *WatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	return h.Watcher.Close()
}

// ProvideWatcher provides the import watch folder when enabled.
func ProvideWatcher(i do.Injector) (*WatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Watch.Enabled {
		return &WatcherHandle{}, nil
	}

	importer := do.MustInvoke[*transfer.Importer](i)

	watcher, err := transfer.NewWatcher(cfg.Watch.Dir, importer, log.Logger)
	if err != nil {
		return nil, err
	}
	watcher.Start()

	log.Info("Import watch folder active", "dir", cfg.Watch.Dir)

	return &WatcherHandle{Watcher: watcher}, nil
}
