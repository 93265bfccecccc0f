// Package api provides the HTTP API server and handlers for the EchoTab server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/echotab/echotab-server/internal/http/response"
	"github.com/echotab/echotab-server/internal/ratelimit"
	"github.com/echotab/echotab-server/internal/sse"
	"github.com/echotab/echotab-server/internal/store"
	"github.com/echotab/echotab-server/internal/transfer"
	"github.com/echotab/echotab-server/internal/validation"
	"github.com/echotab/echotab-server/internal/view"
)

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Store       *store.Store
	Views       *view.Views
	Importer    *transfer.Importer
	Exporter    *transfer.Exporter
	SSEHandler  *sse.Handler
	SSEManager  *sse.Manager
	Validator   *validation.Validator
	Limiter     *ratelimit.KeyedRateLimiter
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *store.Store
	views      *view.Views
	importer   *transfer.Importer
	exporter   *transfer.Exporter
	sseHandler *sse.Handler
	sseManager *sse.Manager
	validator  *validation.Validator
	limiter    *ratelimit.KeyedRateLimiter
	router     *chi.Mux
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps Deps) *Server {
	s := &Server{
		store:      deps.Store,
		views:      deps.Views,
		importer:   deps.Importer,
		exporter:   deps.Exporter,
		sseHandler: deps.SSEHandler,
		sseManager: deps.SSEManager,
		validator:  deps.Validator,
		limiter:    deps.Limiter,
		router:     chi.NewRouter(),
		logger:     deps.Logger,
	}

	s.setupMiddleware(deps.CORSOrigins)
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(corsOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// Extension surfaces run on extension:// origins; default to permissive
	// CORS unless the deployment pins specific origins.
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Echotab-Origin"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(RateLimitMiddleware(s.limiter, s.logger))
		}

		r.Get("/instance", s.handleGetInstance)

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.handleListTags)
			r.Post("/", s.handleCreateTag)
			r.Delete("/", s.handleDeleteTags)
			r.Post("/quick", s.handleEnsureQuickTag)
			r.Patch("/{id}", s.handleUpdateTag)
			r.Post("/{id}/favorite", s.handleToggleTagFavorite)
		})

		r.Route("/bookmarks", func(r chi.Router) {
			r.Get("/", s.handleListBookmarks)
			r.Post("/", s.handleSaveTabs)
			r.Delete("/", s.handleRemoveBookmarks)
			r.Get("/lookup", s.handleLookupBookmark)
			r.Post("/tags", s.handleAddBookmarkTags)
			r.Delete("/tags", s.handleRemoveBookmarkTags)
			r.Post("/curated", s.handleMarkCurated)
			r.Put("/{id}/note", s.handleSetNote)
			r.Post("/{id}/pin", s.handleTogglePinned)
			r.Post("/{id}/visit", s.handleMarkVisited)
		})

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", s.handleListLists)
			r.Post("/", s.handleCreateList)
			r.Get("/{id}", s.handleGetList)
			r.Patch("/{id}", s.handleUpdateList)
			r.Delete("/{id}", s.handleDeleteList)
			r.Post("/{id}/tabs", s.handleAddToList)
			r.Delete("/{id}/tabs", s.handleRemoveFromList)
			r.Get("/{id}/render", s.handleRenderList)
		})

		r.Route("/tabs", func(r chi.Router) {
			r.Get("/", s.handleListTabs)
			r.Post("/sync", s.handleSyncTabs)
			r.Post("/close", s.handleCloseTabs)
			r.Post("/undo", s.handleUndoClose)
			r.Put("/{id}/pin", s.handleSetTabPinned)
			r.Put("/{id}/mute", s.handleSetTabMuted)
			r.Post("/{id}/reload", s.handleReloadTab)
			r.Post("/{id}/move", s.handleMoveTab)
		})

		r.Route("/windows", func(r chi.Router) {
			r.Post("/{id}/focus", s.handleFocusWindow)
		})

		r.Route("/curate", func(r chi.Router) {
			r.Get("/queue", s.handleCurateQueue)
			r.Get("/sessions", s.handleCurateSessions)
			r.Post("/sessions", s.handleRecordCurateSession)
			r.Get("/streak", s.handleCurateStreak)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Patch("/", s.handlePatchSettings)
			r.Post("/reset", s.handleResetSettings)
		})

		r.Route("/selection", func(r chi.Router) {
			r.Delete("/", s.handleClearAllSelections)
			r.Get("/{panel}", s.handleGetSelection)
			r.Put("/{panel}", s.handleReplaceSelection)
			r.Delete("/{panel}", s.handleClearSelection)
			r.Post("/{panel}/toggle", s.handleToggleSelection)
		})

		r.Route("/views", func(r chi.Router) {
			r.Get("/active", s.handleFilterActive)
			r.Get("/saved", s.handleFilterSaved)
			r.Get("/active/windows", s.handleGroupByWindow)
			r.Get("/active/domains", s.handleGroupByDomain)
			r.Get("/saved/tags", s.handleGroupByTag)
			r.Get("/duplicates", s.handleDuplicates)
			r.Get("/stale", s.handleStale)
			r.Get("/already-saved", s.handleAlreadySaved)
		})

		r.Route("/transfer", func(r chi.Router) {
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
			r.Post("/import/browser", s.handleImportBrowserTree)
			r.Post("/clipboard", s.handleRenderClipboard)
		})

		// Change stream.
		r.Get("/events/stream", s.sseHandler.ServeHTTP)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}

// handleGetInstance returns the durable instance ids of every store.
// Surfaces use these as their SSE origin to suppress self-echo.
func (s *Server) handleGetInstance(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]any{
		"instanceIds": s.store.InstanceIDs(),
		"sseClients":  s.sseManager.ClientCount(),
	}, s.logger)
}
