package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/http/response"
	"github.com/echotab/echotab-server/internal/store"
)

// ToggleSelectionRequest toggles one item in a panel's selection.
type ToggleSelectionRequest struct {
	ID string `json:"id" validate:"required"`
}

// ReplaceSelectionRequest replaces a panel's selection wholesale.
type ReplaceSelectionRequest struct {
	IDs []string `json:"ids"`
}

func selectionPanel(r *http.Request) (string, error) {
	panel := chi.URLParam(r, "panel")
	switch panel {
	case store.PanelActive, store.PanelSaved:
		return panel, nil
	default:
		return "", errors.Validationf("unknown panel: %q", panel)
	}
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	panel, err := selectionPanel(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"ids":   s.store.Selection.Selected(panel),
		"count": s.store.Selection.Count(panel),
	}, s.logger)
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	panel, err := selectionPanel(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req ToggleSelectionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	selected := s.store.Selection.Toggle(panel, req.ID)
	response.Success(w, map[string]bool{"selected": selected}, s.logger)
}

func (s *Server) handleReplaceSelection(w http.ResponseWriter, r *http.Request) {
	panel, err := selectionPanel(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req ReplaceSelectionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.store.Selection.Replace(panel, req.IDs)
	response.Success(w, map[string]any{"ids": s.store.Selection.Selected(panel)}, s.logger)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	panel, err := selectionPanel(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.store.Selection.Clear(panel)
	response.NoContent(w)
}

func (s *Server) handleClearAllSelections(w http.ResponseWriter, _ *http.Request) {
	s.store.Selection.ClearAll()
	response.NoContent(w)
}
