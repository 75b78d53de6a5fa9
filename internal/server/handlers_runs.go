package server

import (
	"net/http"

	"github.com/meltforce/ironlog/internal/events"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/observability"
)

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	runs, err := s.store.ListRuns(r.Context(), uid, limitParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	var in models.RunInput
	if !decodeJSON(w, r, &in, false) {
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	run, err := s.store.CreateRun(r.Context(), uid, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	observability.RecordRunLogged()
	s.publish(r.Context(), events.Event{Type: events.RunLogged, UserID: uid, Data: run})
	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	run, err := s.store.GetRun(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleUpdateRun(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var u models.RunUpdate
	if !decodeJSON(w, r, &u, false) {
		return
	}
	if err := u.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	run, err := s.store.UpdateRun(r.Context(), uid, id, u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteRun(r.Context(), uid, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
