package api

import (
	"net/http"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/http/response"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.store.Settings.Get(), s.logger)
}

// handlePatchSettings applies a shallow partial update. Fields absent from
// the body are left unchanged.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if err := s.decodeJSON(r, &patch); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	settings, err := s.store.Settings.Patch(patch)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, settings, s.logger)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, _ *http.Request) {
	settings, err := s.store.Settings.Reset()
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, settings, s.logger)
}
