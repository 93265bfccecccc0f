package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/http/response"
	"github.com/echotab/echotab-server/internal/view"
)

// SaveTabsRequest carries the tabs to bookmark. Fields beyond title, URL,
// tags, pin state, and note are assigned by the store.
type SaveTabsRequest struct {
	Tabs []SaveTabItem `json:"tabs" validate:"required,min=1,dive"`
}

// SaveTabItem is one tab in a save request.
type SaveTabItem struct {
	Title  string `json:"title" validate:"max=2048"`
	URL    string `json:"url" validate:"required"`
	TagIDs []int  `json:"tagIds" validate:"dive,gte=0"`
	Pinned bool   `json:"pinned,omitempty"`
	Note   string `json:"note,omitempty"`
}

// RemoveBookmarksRequest names the saved tabs to delete.
type RemoveBookmarksRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// BookmarkTagsRequest tags or untags a batch of saved tabs.
type BookmarkTagsRequest struct {
	TabIDs []string `json:"tabIds" validate:"required,min=1"`
	TagIDs []int    `json:"tagIds" validate:"required,min=1,dive,gte=0"`
}

// SetNoteRequest replaces a saved tab's note.
type SetNoteRequest struct {
	Note string `json:"note"`
}

// MarkCuratedRequest stamps tabs as reviewed.
type MarkCuratedRequest struct {
	TabIDs []string `json:"tabIds" validate:"required,min=1"`
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	sort := view.SavedSort(r.URL.Query().Get("sort"))
	if sort == "" {
		sort = view.SortRecent
	}
	response.Success(w, view.SortSaved(s.store.Bookmarks.All(), sort), s.logger)
}

func (s *Server) handleSaveTabs(w http.ResponseWriter, r *http.Request) {
	var req SaveTabsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	incoming := make([]domain.SavedTab, len(req.Tabs))
	for i, t := range req.Tabs {
		incoming[i] = domain.SavedTab{
			Title:  t.Title,
			URL:    t.URL,
			TagIDs: t.TagIDs,
			Pinned: t.Pinned,
			Note:   t.Note,
		}
	}

	saved, err := s.store.Bookmarks.SaveTabs(incoming)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, saved, s.logger)
}

func (s *Server) handleRemoveBookmarks(w http.ResponseWriter, r *http.Request) {
	var req RemoveBookmarksRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	removed, err := s.store.RemoveSavedTabs(req.IDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{"removed": removed}, s.logger)
}

// handleLookupBookmark finds a saved tab by URL, matching on the canonical
// form so tracking decorations don't matter.
func (s *Server) handleLookupBookmark(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		response.BadRequest(w, "url query parameter is required", s.logger)
		return
	}

	tab, ok := s.store.Bookmarks.FindByURL(rawURL)
	if !ok {
		response.NotFound(w, "no saved tab for that URL", s.logger)
		return
	}

	response.Success(w, tab, s.logger)
}

func (s *Server) handleAddBookmarkTags(w http.ResponseWriter, r *http.Request) {
	var req BookmarkTagsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.store.Bookmarks.AddTags(req.TabIDs, req.TagIDs); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleRemoveBookmarkTags(w http.ResponseWriter, r *http.Request) {
	var req BookmarkTagsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.store.Bookmarks.RemoveTagsFromTabs(req.TabIDs, req.TagIDs); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleMarkCurated(w http.ResponseWriter, r *http.Request) {
	var req MarkCuratedRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.store.Bookmarks.MarkCurated(req.TabIDs); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleSetNote(w http.ResponseWriter, r *http.Request) {
	var req SetNoteRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.store.Bookmarks.SetNote(chi.URLParam(r, "id"), req.Note); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleTogglePinned(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Bookmarks.TogglePinned(chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleMarkVisited(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Bookmarks.MarkVisited(chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
