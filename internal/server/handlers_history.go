package server

import (
	"net/http"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	list, err := s.store.ListCompletedWorkouts(r.Context(), uid, limitParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetHistoryWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := s.store.GetWorkoutDetail(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteHistoryWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteWorkout(r.Context(), uid, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	stats, err := s.store.GetTrainingStats(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// summaryWindow is the default range of the training summary.
const summaryWindow = 12 * 7 * 24 * time.Hour

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r, summaryWindow)
	if err != nil {
		badRequest(w, "invalid time range: "+err.Error())
		return
	}

	bucket := models.BucketWeek
	switch r.URL.Query().Get("bucket") {
	case "", "week":
	case "month":
		bucket = models.BucketMonth
	default:
		badRequest(w, "bucket must be week or month")
		return
	}

	periods, err := s.store.GetTrainingSummary(r.Context(), uid, start, end, bucket)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}
