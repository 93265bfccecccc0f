package api

import (
	"net/http"

	"github.com/echotab/echotab-server/internal/http/response"
)

// CloseTabsRequest names the active tabs to close.
type CloseTabsRequest struct {
	IDs []int `json:"ids" validate:"required,min=1"`
}

// SetFlagRequest sets a boolean tab flag (pin or mute).
type SetFlagRequest struct {
	Value bool `json:"value"`
}

// MoveTabRequest gives the target position within the tab's window.
type MoveTabRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

func (s *Server) handleListTabs(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.store.Tabs.All(), s.logger)
}

// handleSyncTabs re-reads the full tab list from the browser, replacing the
// mirror.
func (s *Server) handleSyncTabs(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Tabs.Sync(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, s.store.Tabs.All(), s.logger)
}

// handleCloseTabs closes active tabs. Partial failure is reported per tab
// in the result, not as an error status.
func (s *Server) handleCloseTabs(w http.ResponseWriter, r *http.Request) {
	var req CloseTabsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	result, err := s.store.CloseTabs(r.Context(), req.IDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}

// handleUndoClose reopens the most recently closed batch while the undo
// window is still open.
func (s *Server) handleUndoClose(w http.ResponseWriter, r *http.Request) {
	reopened, err := s.store.Tabs.UndoClose(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, reopened, s.logger)
}

func (s *Server) handleSetTabPinned(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req SetFlagRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.store.Tabs.SetPinned(r.Context(), id, req.Value); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleSetTabMuted(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req SetFlagRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.store.Tabs.SetMuted(r.Context(), id, req.Value); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleReloadTab(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.store.Tabs.Reload(r.Context(), id); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleMoveTab(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req MoveTabRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.store.Tabs.Move(r.Context(), id, req.Index); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleFocusWindow(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.store.Tabs.FocusWindow(r.Context(), id); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
