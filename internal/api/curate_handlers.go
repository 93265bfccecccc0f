package api

import (
	"net/http"
	"time"

	"github.com/echotab/echotab-server/internal/http/response"
	"github.com/echotab/echotab-server/internal/store"
)

// RecordSessionRequest reports curation activity for today. Counts
// accumulate into the day's session.
type RecordSessionRequest struct {
	Kept    int `json:"kept" validate:"gte=0"`
	Deleted int `json:"deleted" validate:"gte=0"`
}

func (s *Server) handleCurateQueue(w http.ResponseWriter, _ *http.Request) {
	queue := s.store.CurateQueue(store.QueueOptions{Now: time.Now()})
	response.Success(w, queue, s.logger)
}

func (s *Server) handleCurateSessions(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.store.Curate.Sessions(), s.logger)
}

func (s *Server) handleRecordCurateSession(w http.ResponseWriter, r *http.Request) {
	var req RecordSessionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	session, err := s.store.Curate.Record(req.Kept, req.Deleted)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, session, s.logger)
}

func (s *Server) handleCurateStreak(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]int{"streak": s.store.Curate.Streak()}, s.logger)
}
