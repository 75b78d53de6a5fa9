package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/meltforce/ironlog/internal/events"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/observability"
	"github.com/meltforce/ironlog/internal/session"
)

type startRequest struct {
	TemplateID string `json:"template_id"`
}

type addExerciseRequest struct {
	ExerciseID string `json:"exercise_id"`
}

type completeSetRequest struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

type finishRequest struct {
	Early bool `json:"early"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if _, err := uuid.Parse(req.TemplateID); err != nil {
		badRequest(w, "invalid template_id")
		return
	}

	ctx := r.Context()
	var snap session.Snapshot
	err := s.sessions.With(ctx, func(m *session.Manager) error {
		if err := m.StartFromTemplate(ctx, req.TemplateID); err != nil {
			return err
		}
		snap = m.Store().Snapshot()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	observability.RecordSessionStarted()
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var found bool
	var snap session.Snapshot
	err := s.sessions.With(ctx, func(m *session.Manager) error {
		var err error
		if found, err = m.Resume(ctx); err != nil {
			return err
		}
		snap = m.Store().Snapshot()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resumed": found, "session": snap})
}

func (s *Server) handleAddSessionExercise(w http.ResponseWriter, r *http.Request) {
	var req addExerciseRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if _, err := uuid.Parse(req.ExerciseID); err != nil {
		badRequest(w, "invalid exercise_id")
		return
	}

	ctx := r.Context()
	var snap session.Snapshot
	err := s.sessions.With(ctx, func(m *session.Manager) error {
		if _, err := m.AddExercise(ctx, req.ExerciseID); err != nil {
			return err
		}
		snap = m.Store().Snapshot()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	weID, ok := idParam(w, r, "weID")
	if !ok {
		return
	}
	setID, ok := idParam(w, r, "setID")
	if !ok {
		return
	}
	var req completeSetRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Weight < 0 || req.Reps < 0 {
		badRequest(w, "weight and reps must not be negative")
		return
	}

	ctx := r.Context()
	var set *models.WorkoutSet
	err := s.sessions.With(ctx, func(m *session.Manager) error {
		var err error
		set, err = m.CompleteSet(ctx, weID, setID, req.Weight, req.Reps)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	observability.RecordSetCompleted()
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleConfirmSet(w http.ResponseWriter, r *http.Request) {
	weID, ok := idParam(w, r, "weID")
	if !ok {
		return
	}
	setID, ok := idParam(w, r, "setID")
	if !ok {
		return
	}

	ctx := r.Context()
	var set *models.WorkoutSet
	err := s.sessions.With(ctx, func(m *session.Manager) error {
		var err error
		set, err = m.ConfirmSameAsLast(ctx, weID, setID)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	observability.RecordSetCompleted()
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleSkipSets(w http.ResponseWriter, r *http.Request) {
	weID, ok := idParam(w, r, "weID")
	if !ok {
		return
	}

	ctx := r.Context()
	var skipped int
	err := s.sessions.With(ctx, func(m *session.Manager) error {
		var err error
		skipped, err = m.SkipIncompleteSets(ctx, weID)
		return err
	})
	// Sets skipped before a failure are already persisted.
	observability.RecordSetsSkipped(skipped)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"skipped": skipped})
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	ctx := r.Context()
	var workout *models.Workout
	var pending int
	err := s.sessions.With(ctx, func(m *session.Manager) error {
		var err error
		if req.Early {
			st := m.Store()
			pending = st.TotalSetsCount() - st.CompletedSetsCount()
			workout, err = m.FinishEarly(ctx)
		} else {
			workout, err = m.Finish(ctx)
		}
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	observability.RecordSetsSkipped(pending)
	observability.RecordSessionFinished(workout.TotalVolume)
	s.publish(ctx, events.Event{Type: events.WorkoutCompleted, UserID: workout.UserID, Data: workout})
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var workout *models.Workout
	err := s.sessions.With(ctx, func(m *session.Manager) error {
		var err error
		workout, err = m.Cancel(ctx)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	observability.RecordSessionCancelled()
	s.publish(ctx, events.Event{Type: events.WorkoutCancelled, UserID: workout.UserID, Data: workout})
	writeJSON(w, http.StatusOK, workout)
}
