package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/meltforce/ironlog/internal/auth"
	"github.com/meltforce/ironlog/internal/events"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/sqlitestore"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func newTestServer(t *testing.T, id auth.Identifier) (*Server, *recordingPublisher) {
	t.Helper()
	store, err := sqlitestore.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	pub := &recordingPublisher{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, id, pub, log), pub
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func templateID(t *testing.T, h http.Handler, name string) string {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/api/v1/templates", nil)
	expectStatus(t, rec, http.StatusOK)
	for _, tpl := range decode[[]models.WorkoutTemplate](t, rec) {
		if tpl.Name == name {
			return tpl.ID
		}
	}
	t.Fatalf("template %q not found", name)
	return ""
}

// TestHandleMe verifies the /api/v1/me endpoint returns the resolved user.
func TestHandleMe(t *testing.T) {
	s, _ := newTestServer(t, auth.Dev("local"))
	rec := do(t, s, http.MethodGet, "/api/v1/me", nil)
	expectStatus(t, rec, http.StatusOK)

	u := decode[models.User](t, rec)
	if u.Login != "local" {
		t.Errorf("login = %q, want %q", u.Login, "local")
	}
	if u.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", u.DisplayName, "Local Dev User")
	}
	if u.ID == "" {
		t.Error("expected a user id")
	}
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	s, _ := newTestServer(t, auth.JWT("secret", "ironlog"))
	for _, path := range []string{"/api/v1/me", "/api/v1/session", "/api/v1/runs"} {
		rec := do(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
	rec := do(t, s, http.MethodGet, "/healthz", nil)
	expectStatus(t, rec, http.StatusOK)
}

// TestSessionLifecycle walks a workout from template start through a
// completed set, a skipped exercise and an early finish into history.
func TestSessionLifecycle(t *testing.T) {
	s, pub := newTestServer(t, auth.Dev("local"))
	tplID := templateID(t, s, "5x5 A")

	rec := do(t, s, http.MethodGet, "/api/v1/session", nil)
	expectStatus(t, rec, http.StatusOK)
	if decode[session.Snapshot](t, rec).Active {
		t.Fatal("no session expected before start")
	}

	rec = do(t, s, http.MethodPost, "/api/v1/session/start", startRequest{TemplateID: tplID})
	expectStatus(t, rec, http.StatusCreated)
	snap := decode[session.Snapshot](t, rec)
	if !snap.Active || len(snap.Exercises) != 3 || snap.TotalSetsCount != 15 {
		t.Fatalf("snapshot = active %v, %d exercises, %d sets; want active, 3, 15",
			snap.Active, len(snap.Exercises), snap.TotalSetsCount)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/session/start", startRequest{TemplateID: tplID})
	expectStatus(t, rec, http.StatusConflict)

	first := snap.Exercises[0]
	path := fmt.Sprintf("/api/v1/session/exercises/%s/sets/%s/complete", first.ID, first.Sets[0].ID)
	rec = do(t, s, http.MethodPost, path, completeSetRequest{Weight: 100, Reps: 5})
	expectStatus(t, rec, http.StatusOK)
	set := decode[models.WorkoutSet](t, rec)
	if !set.IsCompleted || *set.ActualWeight != 100 || *set.ActualReps != 5 {
		t.Errorf("completed set = %+v", set)
	}

	rec = do(t, s, http.MethodPost, path, completeSetRequest{Weight: -1, Reps: 5})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, s, http.MethodPost, fmt.Sprintf("/api/v1/session/exercises/%s/skip", first.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]int](t, rec)["skipped"]; got != 4 {
		t.Errorf("skipped = %d, want 4", got)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/session", nil)
	snap = decode[session.Snapshot](t, rec)
	if snap.TotalVolume != 500 || snap.CompletedSetsCount != 5 || snap.Progress != 33 {
		t.Errorf("aggregates = volume %v, completed %d, progress %d; want 500, 5, 33",
			snap.TotalVolume, snap.CompletedSetsCount, snap.Progress)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/session/finish", finishRequest{Early: true})
	expectStatus(t, rec, http.StatusOK)
	w := decode[models.Workout](t, rec)
	if w.Status != models.StatusCompleted || w.TotalVolume != 500 {
		t.Errorf("finished workout = status %s volume %v", w.Status, w.TotalVolume)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/session", nil)
	if decode[session.Snapshot](t, rec).Active {
		t.Error("session should be cleared after finish")
	}

	rec = do(t, s, http.MethodGet, "/api/v1/history/workouts", nil)
	expectStatus(t, rec, http.StatusOK)
	history := decode[[]models.Workout](t, rec)
	if len(history) != 1 || history[0].ID != w.ID {
		t.Fatalf("history = %+v, want the finished workout", history)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/history/workouts/"+w.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	detail := decode[models.WorkoutDetail](t, rec)
	if len(detail.Exercises) != 3 {
		t.Fatalf("detail exercises = %d, want 3", len(detail.Exercises))
	}
	for _, ex := range detail.Exercises {
		for _, s := range ex.Sets {
			if !s.IsCompleted {
				t.Errorf("set %d of %s still pending after finish early", s.SetNumber, ex.ID)
			}
		}
	}

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/v1/exercises/%s/history", first.ExerciseID), nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]models.WorkoutSet](t, rec); len(got) != 5 {
		t.Errorf("exercise history = %d sets, want 5", len(got))
	}

	if got := pub.types(); len(got) != 1 || got[0] != events.WorkoutCompleted {
		t.Errorf("published = %v, want [%s]", got, events.WorkoutCompleted)
	}
}

func TestSessionWithoutActiveWorkout(t *testing.T) {
	s, pub := newTestServer(t, auth.Dev("local"))

	for _, path := range []string{"/api/v1/session/finish", "/api/v1/session/cancel"} {
		rec := do(t, s, http.MethodPost, path, nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("POST %s status = %d, want 409", path, rec.Code)
		}
	}

	rec := do(t, s, http.MethodPost, "/api/v1/session/resume", nil)
	expectStatus(t, rec, http.StatusOK)
	if decode[map[string]any](t, rec)["resumed"] != false {
		t.Error("resume without a workout should report false")
	}
	if len(pub.types()) != 0 {
		t.Errorf("unexpected events %v", pub.types())
	}
}

func TestSessionAdHocExerciseAndCancel(t *testing.T) {
	s, pub := newTestServer(t, auth.Dev("local"))
	rec := do(t, s, http.MethodPost, "/api/v1/session/start", startRequest{TemplateID: templateID(t, s, "5x5 B")})
	expectStatus(t, rec, http.StatusCreated)

	rec = do(t, s, http.MethodGet, "/api/v1/exercises?q=curl", nil)
	expectStatus(t, rec, http.StatusOK)
	found := decode[[]models.Exercise](t, rec)
	if len(found) != 2 {
		t.Fatalf("search curl = %d results, want 2", len(found))
	}

	rec = do(t, s, http.MethodPost, "/api/v1/session/exercises", addExerciseRequest{ExerciseID: found[0].ID})
	expectStatus(t, rec, http.StatusCreated)
	snap := decode[session.Snapshot](t, rec)
	if len(snap.Exercises) != 4 {
		t.Fatalf("exercises = %d, want 4", len(snap.Exercises))
	}
	added := snap.Exercises[3]
	if added.OrderIndex != 3 || len(added.Sets) != 3 {
		t.Errorf("ad-hoc exercise order %d with %d sets, want 3 and 3", added.OrderIndex, len(added.Sets))
	}

	path := fmt.Sprintf("/api/v1/session/exercises/%s/sets/%s/confirm", added.ID, added.Sets[0].ID)
	rec = do(t, s, http.MethodPost, path, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodPost, "/api/v1/session/cancel", nil)
	expectStatus(t, rec, http.StatusOK)
	if w := decode[models.Workout](t, rec); w.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", w.Status)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/history/workouts", nil)
	if got := decode[[]models.Workout](t, rec); len(got) != 0 {
		t.Errorf("cancelled workout must not appear in history, got %d", len(got))
	}
	if got := pub.types(); len(got) != 1 || got[0] != events.WorkoutCancelled {
		t.Errorf("published = %v", got)
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/exercises/"+found[0].ID, nil)
	expectStatus(t, rec, http.StatusConflict)
	rec = do(t, s, http.MethodGet, "/api/v1/exercises?q=curl", nil)
	if got := decode[[]models.Exercise](t, rec); len(got) != 2 {
		t.Errorf("logged exercise was deleted, %d curls left", len(got))
	}
}

// TestHistoryDeleteKeepsActiveSession verifies the in-progress workout cannot
// be deleted through history, so the session stays usable.
func TestHistoryDeleteKeepsActiveSession(t *testing.T) {
	s, _ := newTestServer(t, auth.Dev("local"))
	tplID := templateID(t, s, "5x5 A")

	rec := do(t, s, http.MethodPost, "/api/v1/session/start", startRequest{TemplateID: tplID})
	expectStatus(t, rec, http.StatusCreated)
	snap := decode[session.Snapshot](t, rec)
	workoutID := snap.Workout.ID

	rec = do(t, s, http.MethodDelete, "/api/v1/history/workouts/"+workoutID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = do(t, s, http.MethodGet, "/api/v1/session", nil)
	if !decode[session.Snapshot](t, rec).Active {
		t.Fatal("session must stay active")
	}

	first := snap.Exercises[0]
	path := fmt.Sprintf("/api/v1/session/exercises/%s/sets/%s/complete", first.ID, first.Sets[0].ID)
	rec = do(t, s, http.MethodPost, path, completeSetRequest{Weight: 60, Reps: 5})
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodPost, "/api/v1/session/finish", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodDelete, "/api/v1/history/workouts/"+workoutID, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = do(t, s, http.MethodPost, "/api/v1/session/start", startRequest{TemplateID: tplID})
	expectStatus(t, rec, http.StatusCreated)
}

type blockingPublisher struct {
	hadDeadline bool
}

func (p *blockingPublisher) Publish(ctx context.Context, _ events.Event) error {
	_, p.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func (p *blockingPublisher) Close() error { return nil }

// TestUnreachableBrokerDoesNotHoldResponse verifies a stuck event write is
// cut off and the run is still created.
func TestUnreachableBrokerDoesNotHoldResponse(t *testing.T) {
	store, err := sqlitestore.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	pub := &blockingPublisher{}
	s := New(store, auth.Dev("local"), pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.publishTimeout = 50 * time.Millisecond

	start := time.Now()
	rec := do(t, s, http.MethodPost, "/api/v1/runs", map[string]any{"run_type": "easy", "distance_meters": 5000, "duration_seconds": 1500})
	expectStatus(t, rec, http.StatusCreated)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("request took %v with a stuck publisher", elapsed)
	}
	if !pub.hadDeadline {
		t.Error("publish context has no deadline")
	}
}

func TestRunsEndpoints(t *testing.T) {
	s, pub := newTestServer(t, auth.Dev("local"))

	rec := do(t, s, http.MethodPost, "/api/v1/runs", map[string]any{"run_type": "jog", "distance_meters": 5000, "duration_seconds": 1500})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, s, http.MethodPost, "/api/v1/runs", map[string]any{"run_type": "easy", "distance_meters": 5000, "duration_seconds": 1500})
	expectStatus(t, rec, http.StatusCreated)
	run := decode[models.Run](t, rec)
	if run.PaceSecondsPerKm == nil || *run.PaceSecondsPerKm != 300 {
		t.Fatalf("pace = %v, want 300", run.PaceSecondsPerKm)
	}

	rec = do(t, s, http.MethodPatch, "/api/v1/runs/"+run.ID, map[string]any{"duration_seconds": 1800})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Run](t, rec); *got.PaceSecondsPerKm != 360 {
		t.Errorf("updated pace = %v, want 360", *got.PaceSecondsPerKm)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/runs", nil)
	if got := decode[[]models.Run](t, rec); len(got) != 1 {
		t.Errorf("runs = %d, want 1", len(got))
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/runs/"+run.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = do(t, s, http.MethodGet, "/api/v1/runs/"+run.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = do(t, s, http.MethodGet, "/api/v1/runs/not-a-uuid", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	if got := pub.types(); len(got) != 1 || got[0] != events.RunLogged {
		t.Errorf("published = %v, want [%s]", got, events.RunLogged)
	}
}

func TestTemplateEndpoints(t *testing.T) {
	s, _ := newTestServer(t, auth.Dev("local"))

	rec := do(t, s, http.MethodPost, "/api/v1/templates", models.TemplateInput{})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, s, http.MethodPost, "/api/v1/templates", models.TemplateInput{Name: "Arms"})
	expectStatus(t, rec, http.StatusCreated)
	tpl := decode[models.WorkoutTemplate](t, rec)

	rec = do(t, s, http.MethodGet, "/api/v1/exercises", nil)
	exercises := decode[[]models.Exercise](t, rec)

	rec = do(t, s, http.MethodPost, "/api/v1/templates/"+tpl.ID+"/exercises",
		models.TemplateExerciseInput{ExerciseID: exercises[0].ID})
	expectStatus(t, rec, http.StatusCreated)
	te := decode[models.TemplateExercise](t, rec)
	if te.DefaultSets != 5 || te.DefaultReps != 5 || te.RestSeconds != 90 {
		t.Errorf("defaults = %d/%d/%d, want 5/5/90", te.DefaultSets, te.DefaultReps, te.RestSeconds)
	}

	name := "Arms day"
	rec = do(t, s, http.MethodPatch, "/api/v1/templates/"+tpl.ID, models.TemplateUpdate{Name: &name})
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodGet, "/api/v1/templates/"+tpl.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	detail := decode[models.TemplateDetail](t, rec)
	if detail.Name != name || len(detail.Exercises) != 1 {
		t.Errorf("detail = %q with %d exercises", detail.Name, len(detail.Exercises))
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/templates/"+tpl.ID+"/exercises/"+te.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)

	system := templateID(t, s, "5x5 A")
	rec = do(t, s, http.MethodDelete, "/api/v1/templates/"+system, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = do(t, s, http.MethodDelete, "/api/v1/templates/"+tpl.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
}

func TestCatalogAndExercises(t *testing.T) {
	s, _ := newTestServer(t, auth.Dev("local"))

	rec := do(t, s, http.MethodGet, "/api/v1/catalog", nil)
	expectStatus(t, rec, http.StatusOK)
	cat := decode[map[string][]any](t, rec)
	if len(cat["muscle_groups"]) != 16 || len(cat["run_types"]) != 7 {
		t.Errorf("catalog sizes = %d muscle groups, %d run types", len(cat["muscle_groups"]), len(cat["run_types"]))
	}

	rec = do(t, s, http.MethodPost, "/api/v1/exercises", models.ExerciseInput{Name: "Hammer Curl", Category: "isolation", MuscleGroups: []string{"wings"}})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, s, http.MethodPost, "/api/v1/exercises", models.ExerciseInput{Name: " Hammer Curl ", Category: "isolation", MuscleGroups: []string{"biceps"}})
	expectStatus(t, rec, http.StatusCreated)
	ex := decode[models.Exercise](t, rec)
	if ex.Name != "Hammer Curl" {
		t.Errorf("name = %q, want trimmed", ex.Name)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/exercises?grouped=true", nil)
	expectStatus(t, rec, http.StatusOK)
	grouped := decode[map[string][]models.Exercise](t, rec)
	if len(grouped["isolation"]) != 5 {
		t.Errorf("isolation exercises = %d, want 5", len(grouped["isolation"]))
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/exercises/"+ex.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = do(t, s, http.MethodGet, "/api/v1/exercises/"+ex.ID+"/history", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestStatsEndpoints(t *testing.T) {
	s, _ := newTestServer(t, auth.Dev("local"))
	rec := do(t, s, http.MethodPost, "/api/v1/runs", map[string]any{"run_type": "long", "distance_meters": 10000, "duration_seconds": 3600})
	expectStatus(t, rec, http.StatusCreated)

	rec = do(t, s, http.MethodGet, "/api/v1/stats", nil)
	expectStatus(t, rec, http.StatusOK)
	stats := decode[models.TrainingStats](t, rec)
	if stats.TotalRuns != 1 || stats.TotalDistanceMeters != 10000 || stats.TotalWorkouts != 0 {
		t.Errorf("stats = %+v", stats)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/stats/summary?bucket=month", nil)
	expectStatus(t, rec, http.StatusOK)
	periods := decode[[]models.TrainingPeriod](t, rec)
	if len(periods) != 1 || periods[0].Runs != 1 {
		t.Errorf("summary = %+v, want one period with one run", periods)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/stats/summary?bucket=year", nil)
	expectStatus(t, rec, http.StatusBadRequest)
	rec = do(t, s, http.MethodGet, "/api/v1/stats/summary?start=yesterday", nil)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", models.ErrInvalidInput), http.StatusBadRequest},
		{session.ErrNotAuthenticated, http.StatusUnauthorized},
		{fmt.Errorf("template x: %w", models.ErrNotFound), http.StatusNotFound},
		{session.ErrSessionInProgress, http.StatusConflict},
		{session.ErrUnknownSet, http.StatusConflict},
		{fmt.Errorf("exercise x: %w", models.ErrInUse), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
