package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/echotab/echotab-server/internal/http/response"
)

// CreateListRequest is the request body for creating a shareable list.
type CreateListRequest struct {
	Title   string   `json:"title" validate:"required,min=1,max=512"`
	Content string   `json:"content,omitempty"`
	TabIDs  []string `json:"tabIds,omitempty"`
}

// UpdateListRequest renames a list or replaces its commentary. Omitted
// fields are left unchanged.
type UpdateListRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1,max=512"`
	Content *string `json:"content,omitempty"`
}

// ListTabsRequest names saved tabs to add to or remove from a list.
type ListTabsRequest struct {
	TabIDs []string `json:"tabIds" validate:"required,min=1"`
}

func (s *Server) handleListLists(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.store.Bookmarks.Lists(), s.logger)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req CreateListRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	list, err := s.store.Bookmarks.CreateList(req.Title, req.Content, req.TabIDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, list, s.logger)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.Bookmarks.GetList(chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, list, s.logger)
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	var req UpdateListRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	id := chi.URLParam(r, "id")
	existing, err := s.store.Bookmarks.GetList(id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	title := existing.Title
	if req.Title != nil {
		title = *req.Title
	}
	content := existing.Content
	if req.Content != nil {
		content = *req.Content
	}

	list, err := s.store.Bookmarks.UpdateList(id, title, content)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, list, s.logger)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Bookmarks.DeleteList(chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleAddToList(w http.ResponseWriter, r *http.Request) {
	var req ListTabsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	list, err := s.store.Bookmarks.AddToList(chi.URLParam(r, "id"), req.TabIDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, list, s.logger)
}

func (s *Server) handleRemoveFromList(w http.ResponseWriter, r *http.Request) {
	var req ListTabsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	list, err := s.store.Bookmarks.RemoveFromList(chi.URLParam(r, "id"), req.TabIDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, list, s.logger)
}

// handleRenderList renders a list with its commentary and tabs as Markdown
// for sharing outside the extension.
func (s *Server) handleRenderList(w http.ResponseWriter, r *http.Request) {
	rendered, err := s.exporter.RenderList(chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{"markdown": rendered}, s.logger)
}
