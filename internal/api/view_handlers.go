package api

import (
	"net/http"
	"time"

	"github.com/echotab/echotab-server/internal/http/response"
)

func (s *Server) handleFilterActive(w http.ResponseWriter, r *http.Request) {
	tabs, err := s.views.FilterActive(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tabs, s.logger)
}

func (s *Server) handleFilterSaved(w http.ResponseWriter, r *http.Request) {
	tagIDs, err := queryInts(r, "tags")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	tabs, err := s.views.FilterSaved(r.Context(), r.URL.Query().Get("q"), tagIDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tabs, s.logger)
}

func (s *Server) handleGroupByWindow(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.views.GroupActiveByWindow(), s.logger)
}

func (s *Server) handleGroupByDomain(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.views.GroupActiveByDomain(), s.logger)
}

func (s *Server) handleGroupByTag(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.views.GroupSavedByTag(), s.logger)
}

func (s *Server) handleDuplicates(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.views.Duplicates(), s.logger)
}

func (s *Server) handleStale(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.views.Stale(time.Now()), s.logger)
}

func (s *Server) handleAlreadySaved(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.views.AlreadySaved(), s.logger)
}
