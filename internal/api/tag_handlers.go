package api

import (
	"net/http"
	"time"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/http/response"
)

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=120"`
	Color string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// UpdateTagRequest is the request body for renaming or recoloring a tag.
// Omitted fields are left unchanged.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// DeleteTagsRequest names the tags to delete.
type DeleteTagsRequest struct {
	IDs []int `json:"ids" validate:"required,min=1"`
}

func (s *Server) handleListTags(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.store.Tags.List(), s.logger)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	tag, err := s.store.Tags.Create(domain.Tag{Name: req.Name, Color: req.Color})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, tag, s.logger)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req UpdateTagRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	tag, err := s.store.Tags.Get(id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if req.Name != nil {
		tag.Name = *req.Name
	}
	if req.Color != nil {
		tag.Color = *req.Color
	}

	updated, err := s.store.Tags.Update(tag)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, updated, s.logger)
}

// handleDeleteTags removes tags and repairs saved tabs that referenced them.
func (s *Server) handleDeleteTags(w http.ResponseWriter, r *http.Request) {
	var req DeleteTagsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	removed, err := s.store.RemoveTags(req.IDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{"removed": removed}, s.logger)
}

func (s *Server) handleToggleTagFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	tag, err := s.store.Tags.ToggleFavorite(id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tag, s.logger)
}

// handleEnsureQuickTag returns today's quick-save tag, creating it on first
// use of the day.
func (s *Server) handleEnsureQuickTag(w http.ResponseWriter, _ *http.Request) {
	tag, err := s.store.Tags.EnsureQuick(time.Now())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tag, s.logger)
}
