package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/echotab/echotab-server/internal/api"
	"github.com/echotab/echotab-server/internal/config"
	"github.com/echotab/echotab-server/internal/logger"
	"github.com/echotab/echotab-server/internal/ratelimit"
	"github.com/echotab/echotab-server/internal/sse"
	"github.com/echotab/echotab-server/internal/transfer"
	"github.com/echotab/echotab-server/internal/validation"
)

// RateLimiterHandle wraps the keyed rate limiter with shutdown capability.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-IP API rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	viewsHandle := do.MustInvoke[*ViewsHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	importer := do.MustInvoke[*transfer.Importer](i)
	exporter := do.MustInvoke[*transfer.Exporter](i)
	v := do.MustInvoke[*validation.Validator](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)

	handler := api.NewServer(api.Deps{
		Store:       storeHandle.Store,
		Views:       viewsHandle.Views,
		Importer:    importer,
		Exporter:    exporter,
		SSEHandler:  sse.NewHandler(sseHandle.Manager, log.Logger),
		SSEManager:  sseHandle.Manager,
		Validator:   v,
		Limiter:     limiterHandle.KeyedRateLimiter,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      log.Logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
