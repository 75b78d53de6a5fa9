package server

import (
	"net/http"
	"strings"

	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/session"
)

// handleListExercises lists the catalog, or searches it by name with ?q=.
// ?grouped=true groups the result by category.
func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	var list []models.Exercise
	var err error
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		list, err = s.store.SearchExercises(r.Context(), q)
	} else {
		list, err = s.store.ListExercises(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("grouped") == "true" {
		writeJSON(w, http.StatusOK, catalog.GroupByCategory(list))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var in models.ExerciseInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	if err := catalog.Validate(&in); err != nil {
		s.writeError(w, r, err)
		return
	}
	ex, err := s.store.CreateExercise(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteExercise(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExerciseHistory returns the caller's most recent completed sets of an exercise.
func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.store.GetExercise(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	sets, err := session.PreviousSets(r.Context(), s.store, id, uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}
