package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// fakeBackend is an in-memory Backend with per-method failure injection.
type fakeBackend struct {
	templates         map[string]models.WorkoutTemplate
	templateExercises map[string][]models.TemplateExercise
	exercises         map[string]models.Exercise

	workouts         []*models.Workout
	workoutExercises []*models.WorkoutExercise
	sets             []*models.WorkoutSet

	seq   int
	calls map[string]int
	fail  map[string]failure
}

type failure struct {
	at  int // fail on the at-th call (1-based)
	err error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		templates:         make(map[string]models.WorkoutTemplate),
		templateExercises: make(map[string][]models.TemplateExercise),
		exercises:         make(map[string]models.Exercise),
		calls:             make(map[string]int),
		fail:              make(map[string]failure),
	}
}

func (f *fakeBackend) failOn(method string, at int, err error) {
	f.fail[method] = failure{at: at, err: err}
}

func (f *fakeBackend) call(method string) error {
	f.calls[method]++
	if fl, ok := f.fail[method]; ok && fl.at == f.calls[method] {
		return fl.err
	}
	return nil
}

func (f *fakeBackend) totalCalls() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) id(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// addTemplate registers a template whose exercises each have sets×reps defaults.
func (f *fakeBackend) addTemplate(userID, name string, sets, reps int, weight *float64, exerciseIDs ...string) string {
	id := f.id("tpl")
	f.templates[id] = models.WorkoutTemplate{ID: id, UserID: &userID, Name: name, WorkoutType: models.WorkoutTypeLifting}
	for i, exID := range exerciseIDs {
		if _, ok := f.exercises[exID]; !ok {
			f.exercises[exID] = models.Exercise{ID: exID, Name: exID, Category: models.CategoryCompound}
		}
		ex := f.exercises[exID]
		f.templateExercises[id] = append(f.templateExercises[id], models.TemplateExercise{
			ID:            f.id("te"),
			TemplateID:    id,
			ExerciseID:    exID,
			OrderIndex:    i,
			DefaultSets:   sets,
			DefaultReps:   reps,
			DefaultWeight: weight,
			Exercise:      &ex,
		})
	}
	return id
}

func (f *fakeBackend) GetTemplate(_ context.Context, templateID string) (*models.WorkoutTemplate, error) {
	if err := f.call("GetTemplate"); err != nil {
		return nil, err
	}
	t, ok := f.templates[templateID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &t, nil
}

func (f *fakeBackend) ListTemplateExercises(_ context.Context, templateID string) ([]models.TemplateExercise, error) {
	if err := f.call("ListTemplateExercises"); err != nil {
		return nil, err
	}
	return append([]models.TemplateExercise(nil), f.templateExercises[templateID]...), nil
}

func (f *fakeBackend) GetExercise(_ context.Context, exerciseID string) (*models.Exercise, error) {
	if err := f.call("GetExercise"); err != nil {
		return nil, err
	}
	ex, ok := f.exercises[exerciseID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &ex, nil
}

func (f *fakeBackend) InsertWorkout(_ context.Context, w models.Workout) (*models.Workout, error) {
	if err := f.call("InsertWorkout"); err != nil {
		return nil, err
	}
	w.ID = f.id("w")
	w.CreatedAt = w.StartedAt
	f.workouts = append(f.workouts, &w)
	out := w
	return &out, nil
}

func (f *fakeBackend) InsertWorkoutExercise(_ context.Context, we models.WorkoutExercise) (*models.WorkoutExercise, error) {
	if err := f.call("InsertWorkoutExercise"); err != nil {
		return nil, err
	}
	we.ID = f.id("we")
	f.workoutExercises = append(f.workoutExercises, &we)
	out := we
	return &out, nil
}

func (f *fakeBackend) InsertWorkoutSet(_ context.Context, s models.WorkoutSet) (*models.WorkoutSet, error) {
	if err := f.call("InsertWorkoutSet"); err != nil {
		return nil, err
	}
	s.ID = f.id("s")
	f.sets = append(f.sets, &s)
	out := s
	return &out, nil
}

func (f *fakeBackend) CompleteWorkoutSet(_ context.Context, userID, setID string, c models.SetCompletion) (*models.WorkoutSet, error) {
	if err := f.call("CompleteWorkoutSet"); err != nil {
		return nil, err
	}
	for _, s := range f.sets {
		if s.ID != setID {
			continue
		}
		if w := f.workoutOfExercise(s.WorkoutExerciseID); w == nil || w.UserID != userID {
			return nil, models.ErrNotFound
		}
		weight, reps, at := c.Weight, c.Reps, c.CompletedAt
		s.ActualWeight = &weight
		s.ActualReps = &reps
		s.IsCompleted = true
		s.CompletedAt = &at
		if c.Notes != nil {
			s.Notes = c.Notes
		}
		out := *s
		return &out, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeBackend) FinishWorkout(_ context.Context, userID, workoutID string, completedAt time.Time, totalVolume float64) error {
	if err := f.call("FinishWorkout"); err != nil {
		return err
	}
	w := f.workout(workoutID)
	if w == nil || w.UserID != userID {
		return models.ErrNotFound
	}
	w.Status = models.StatusCompleted
	w.CompletedAt = &completedAt
	w.TotalVolume = totalVolume
	return nil
}

func (f *fakeBackend) CancelWorkout(_ context.Context, userID, workoutID string) error {
	if err := f.call("CancelWorkout"); err != nil {
		return err
	}
	w := f.workout(workoutID)
	if w == nil || w.UserID != userID {
		return models.ErrNotFound
	}
	w.Status = models.StatusCancelled
	return nil
}

func (f *fakeBackend) InProgressWorkouts(_ context.Context, userID string) ([]models.Workout, error) {
	if err := f.call("InProgressWorkouts"); err != nil {
		return nil, err
	}
	var out []models.Workout
	for i := len(f.workouts) - 1; i >= 0; i-- {
		w := f.workouts[i]
		if w.UserID == userID && w.Status == models.StatusInProgress {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeBackend) ListWorkoutExercises(_ context.Context, workoutID string) ([]models.WorkoutExercise, error) {
	if err := f.call("ListWorkoutExercises"); err != nil {
		return nil, err
	}
	var out []models.WorkoutExercise
	for _, we := range f.workoutExercises {
		if we.WorkoutID == workoutID {
			out = append(out, *we)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (f *fakeBackend) ListWorkoutSets(_ context.Context, workoutExerciseID string) ([]models.WorkoutSet, error) {
	if err := f.call("ListWorkoutSets"); err != nil {
		return nil, err
	}
	out := []models.WorkoutSet{}
	for _, s := range f.sets {
		if s.WorkoutExerciseID == workoutExerciseID {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SetNumber < out[j].SetNumber })
	return out, nil
}

func (f *fakeBackend) PreviousSets(_ context.Context, exerciseID, userID string, limit int) ([]models.WorkoutSet, error) {
	if err := f.call("PreviousSets"); err != nil {
		return nil, err
	}
	type row struct {
		set models.WorkoutSet
		at  time.Time
	}
	var rows []row
	for _, s := range f.sets {
		if !s.IsCompleted {
			continue
		}
		we := f.workoutExercise(s.WorkoutExerciseID)
		if we == nil || we.ExerciseID != exerciseID {
			continue
		}
		w := f.workout(we.WorkoutID)
		if w == nil || w.UserID != userID || w.Status != models.StatusCompleted || w.CompletedAt == nil {
			continue
		}
		rows = append(rows, row{set: *s, at: *w.CompletedAt})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].at.Equal(rows[j].at) {
			return rows[i].at.After(rows[j].at)
		}
		return rows[i].set.SetNumber < rows[j].set.SetNumber
	})
	out := []models.WorkoutSet{}
	for i := 0; i < len(rows) && i < limit; i++ {
		out = append(out, rows[i].set)
	}
	return out, nil
}

func (f *fakeBackend) workout(id string) *models.Workout {
	for _, w := range f.workouts {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (f *fakeBackend) workoutExercise(id string) *models.WorkoutExercise {
	for _, we := range f.workoutExercises {
		if we.ID == id {
			return we
		}
	}
	return nil
}

func (f *fakeBackend) workoutOfExercise(workoutExerciseID string) *models.Workout {
	we := f.workoutExercise(workoutExerciseID)
	if we == nil {
		return nil
	}
	return f.workout(we.WorkoutID)
}

var _ Backend = (*fakeBackend)(nil)
