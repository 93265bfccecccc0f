package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/echotab/echotab-server/internal/browser"
	"github.com/echotab/echotab-server/internal/config"
	"github.com/echotab/echotab-server/internal/logger"
	"github.com/echotab/echotab-server/internal/sse"
	"github.com/echotab/echotab-server/internal/store"
	"github.com/echotab/echotab-server/internal/view"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store container with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideStore provides the initialized entity store container.
// In development the store is wired to an in-process fake browser so the
// active tab endpoints are exercisable without an extension attached; in
// other environments the extension surfaces own the browser and the tab
// mirror is fed through the durable change stream.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	kvHandle := do.MustInvoke[*KVHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	var tabAPI browser.TabAPI
	if cfg.App.Environment == "development" {
		tabAPI = browser.NewFake()
	}

	s := store.New(store.Options{
		Adapter:  kvHandle.Adapter,
		Browser:  tabAPI,
		Logger:   log.Logger,
		Emitter:  sseHandle.Manager,
		Debounce: cfg.Store.Debounce,
	})

	if err := s.Init(context.Background()); err != nil {
		return nil, err
	}

	log.Info("Stores initialized", "backend", cfg.Data.Backend, "debounce", cfg.Store.Debounce)

	return &StoreHandle{Store: s}, nil
}

// ViewsHandle wraps the derived views with shutdown capability.
type ViewsHandle struct {
	*view.Views
}

// Shutdown implements do.Shutdownable.
func (h *ViewsHandle) Shutdown() error {
	h.Views.Close()
	return nil
}

// ProvideViews provides the derived read models.
func ProvideViews(i do.Injector) (*ViewsHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &ViewsHandle{Views: view.New(storeHandle.Store, log.Logger)}, nil
}
