package api

import (
	"io"
	"net/http"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/http/response"
	"github.com/echotab/echotab-server/internal/transfer"
)

// RenderClipboardRequest renders saved tabs for the clipboard. An empty
// format falls back to the configured default.
type RenderClipboardRequest struct {
	TabIDs []string `json:"tabIds" validate:"required,min=1"`
	Format string   `json:"format,omitempty" validate:"omitempty,oneof=urls markdown html"`
}

// handleExport streams the full-state snapshot as a JSON download.
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	data, err := s.exporter.JSON()
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="echotab-export.json"`)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write export", "error", err)
	}
}

// handleImport reconciles a snapshot into the current state.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		response.HandleError(w, errors.Validation("failed to read request body").WithCause(err), s.logger)
		return
	}

	result, err := s.importer.ImportJSON(raw)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}

// handleImportBrowserTree imports a native browser bookmark tree, turning
// folder ancestry into tags.
func (s *Server) handleImportBrowserTree(w http.ResponseWriter, r *http.Request) {
	var root transfer.BookmarkNode
	if err := s.decodeJSON(r, &root); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	result, err := s.importer.ImportBrowserTree(root)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}

func (s *Server) handleRenderClipboard(w http.ResponseWriter, r *http.Request) {
	var req RenderClipboardRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	format := domain.ClipboardFormat(req.Format)
	if format == "" {
		format = s.store.Settings.Get().ClipboardFormat
	}

	tabs := make([]domain.SavedTab, 0, len(req.TabIDs))
	for _, id := range req.TabIDs {
		tab, err := s.store.Bookmarks.Get(id)
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		tabs = append(tabs, tab)
	}

	rendered, err := s.exporter.RenderTabs(tabs, format)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{
		"format":  string(format),
		"content": rendered,
	}, s.logger)
}
