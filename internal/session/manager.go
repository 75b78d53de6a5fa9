package session

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

const (
	// adHocMinSets is the floor on sets created for an exercise added mid-workout.
	adHocMinSets = 3
	// adHocDefaultReps is the rep target used when there is no history.
	adHocDefaultReps = 8
)

// SkippedNote marks sets closed out by SkipIncompleteSets.
const SkippedNote = "skipped"

// Manager runs lifecycle operations for one user's active workout. It writes
// to the backend first and only then updates its Store, so the mirror never
// holds uncommitted state. Failed writes are returned unchanged apart from
// wrapping; rows committed before the failure are left in place.
//
// A Manager is not safe for concurrent use; see Registry.
type Manager struct {
	backend Backend
	store   *Store
	now     func() time.Time
}

// NewManager creates a Manager with an empty store.
func NewManager(b Backend) *Manager {
	return &Manager{
		backend: b,
		store:   NewStore(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Store exposes the mirror for reads.
func (m *Manager) Store() *Store { return m.store }

// StartFromTemplate creates a new in-progress workout from a template. Each
// template exercise gets DefaultSets sets whose targets come from the user's
// previous performance of that exercise when available, else the template
// defaults.
func (m *Manager) StartFromTemplate(ctx context.Context, templateID string) error {
	uid, err := requireUser(ctx)
	if err != nil {
		return err
	}
	if m.store.IsActive() {
		return ErrSessionInProgress
	}
	m.store.Clear()

	tpl, err := m.backend.GetTemplate(ctx, templateID)
	if err != nil {
		return fmt.Errorf("loading template %s: %w", templateID, err)
	}
	if !tpl.VisibleTo(uid) {
		return fmt.Errorf("loading template %s: %w", templateID, models.ErrNotFound)
	}

	active, err := m.backend.InProgressWorkouts(ctx, uid)
	if err != nil {
		return fmt.Errorf("checking for in-progress workout: %w", err)
	}
	if len(active) > 0 {
		return ErrSessionInProgress
	}

	templateExercises, err := m.backend.ListTemplateExercises(ctx, templateID)
	if err != nil {
		return fmt.Errorf("loading template exercises: %w", err)
	}

	w, err := m.backend.InsertWorkout(ctx, models.Workout{
		UserID:      uid,
		TemplateID:  &tpl.ID,
		WorkoutType: models.WorkoutTypeLifting,
		Name:        tpl.Name,
		Status:      models.StatusInProgress,
		StartedAt:   m.now(),
	})
	if err != nil {
		return fmt.Errorf("creating workout: %w", err)
	}
	m.store.load(*w)

	for _, te := range templateExercises {
		we, err := m.backend.InsertWorkoutExercise(ctx, models.WorkoutExercise{
			WorkoutID:  w.ID,
			ExerciseID: te.ExerciseID,
			OrderIndex: te.OrderIndex,
		})
		if err != nil {
			return fmt.Errorf("adding exercise %s: %w", te.ExerciseID, err)
		}
		if we.Exercise == nil {
			we.Exercise = te.Exercise
		}

		previous, err := PreviousSets(ctx, m.backend, te.ExerciseID, uid)
		if err != nil {
			return err
		}

		sets, err := m.createSets(ctx, we.ID, te.DefaultSets, previous, te.DefaultWeight, te.DefaultReps)
		if err != nil {
			return err
		}
		m.store.addExercise(*we, sets, previous)
	}
	return nil
}

// AddExercise appends a catalog exercise to the active workout. It gets one
// set per history entry with a floor of three; without history the targets
// are eight reps and no weight.
func (m *Manager) AddExercise(ctx context.Context, exerciseID string) (*models.WorkoutExercise, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !m.store.IsActive() {
		return nil, ErrNoActiveSession
	}

	ex, err := m.backend.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("loading exercise %s: %w", exerciseID, err)
	}

	we, err := m.backend.InsertWorkoutExercise(ctx, models.WorkoutExercise{
		WorkoutID:  m.store.workout.ID,
		ExerciseID: ex.ID,
		OrderIndex: m.nextOrderIndex(),
	})
	if err != nil {
		return nil, fmt.Errorf("adding exercise %s: %w", exerciseID, err)
	}
	if we.Exercise == nil {
		we.Exercise = ex
	}

	previous, err := PreviousSets(ctx, m.backend, ex.ID, uid)
	if err != nil {
		return nil, err
	}

	count := max(len(previous), adHocMinSets)
	sets, err := m.createSets(ctx, we.ID, count, previous, nil, adHocDefaultReps)
	if err != nil {
		return nil, err
	}
	m.store.addExercise(*we, sets, previous)

	out := *we
	return &out, nil
}

func (m *Manager) nextOrderIndex() int {
	next := 0
	for _, we := range m.store.exercises {
		if we.OrderIndex >= next {
			next = we.OrderIndex + 1
		}
	}
	return next
}

func (m *Manager) createSets(ctx context.Context, workoutExerciseID string, count int, previous []models.WorkoutSet, weight *float64, reps int) ([]models.WorkoutSet, error) {
	sets := make([]models.WorkoutSet, 0, count)
	for n := 1; n <= count; n++ {
		targetWeight, targetReps := seedTarget(previous, n, weight, reps)
		set, err := m.backend.InsertWorkoutSet(ctx, models.WorkoutSet{
			WorkoutExerciseID: workoutExerciseID,
			SetNumber:         n,
			TargetWeight:      targetWeight,
			TargetReps:        targetReps,
		})
		if err != nil {
			return nil, fmt.Errorf("creating set %d: %w", n, err)
		}
		sets = append(sets, *set)
	}
	return sets, nil
}

// CompleteSet records the weight and reps performed for a set.
func (m *Manager) CompleteSet(ctx context.Context, workoutExerciseID, setID string, weight float64, reps int) (*models.WorkoutSet, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	i, err := m.locateSet(workoutExerciseID, setID)
	if err != nil {
		return nil, err
	}
	return m.complete(ctx, uid, workoutExerciseID, i, models.SetCompletion{
		Weight:      weight,
		Reps:        reps,
		CompletedAt: m.now(),
	})
}

// ConfirmSameAsLast completes a set with its own targets, treating a missing
// target as zero.
func (m *Manager) ConfirmSameAsLast(ctx context.Context, workoutExerciseID, setID string) (*models.WorkoutSet, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	i, err := m.locateSet(workoutExerciseID, setID)
	if err != nil {
		return nil, err
	}
	set := m.store.sets[workoutExerciseID][i]
	var weight float64
	var reps int
	if set.TargetWeight != nil {
		weight = *set.TargetWeight
	}
	if set.TargetReps != nil {
		reps = *set.TargetReps
	}
	return m.complete(ctx, uid, workoutExerciseID, i, models.SetCompletion{
		Weight:      weight,
		Reps:        reps,
		CompletedAt: m.now(),
	})
}

// SkipIncompleteSets closes every pending set of an exercise with zero weight
// and reps. It returns how many sets were skipped; calling it again is a no-op.
func (m *Manager) SkipIncompleteSets(ctx context.Context, workoutExerciseID string) (int, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return 0, err
	}
	if !m.store.IsActive() {
		return 0, ErrNoActiveSession
	}
	if !m.store.hasExercise(workoutExerciseID) {
		return 0, ErrUnknownExercise
	}
	return m.skipPending(ctx, uid, workoutExerciseID)
}

func (m *Manager) skipPending(ctx context.Context, uid, workoutExerciseID string) (int, error) {
	skipped := 0
	note := SkippedNote
	for i, set := range m.store.sets[workoutExerciseID] {
		if set.IsCompleted {
			continue
		}
		if _, err := m.complete(ctx, uid, workoutExerciseID, i, models.SetCompletion{
			CompletedAt: m.now(),
			Notes:       &note,
		}); err != nil {
			return skipped, err
		}
		skipped++
	}
	return skipped, nil
}

func (m *Manager) locateSet(workoutExerciseID, setID string) (int, error) {
	if !m.store.IsActive() {
		return -1, ErrNoActiveSession
	}
	if !m.store.hasExercise(workoutExerciseID) {
		return -1, ErrUnknownExercise
	}
	i, ok := m.store.findSet(workoutExerciseID, setID)
	if !ok {
		return -1, ErrUnknownSet
	}
	return i, nil
}

func (m *Manager) complete(ctx context.Context, uid, workoutExerciseID string, i int, c models.SetCompletion) (*models.WorkoutSet, error) {
	setID := m.store.sets[workoutExerciseID][i].ID
	updated, err := m.backend.CompleteWorkoutSet(ctx, uid, setID, c)
	if err != nil {
		return nil, fmt.Errorf("completing set %s: %w", setID, err)
	}
	m.store.replaceSet(workoutExerciseID, i, *updated)
	out := *updated
	return &out, nil
}

// FinishEarly skips every pending set, exercise by exercise in display
// order, and then finishes the workout.
func (m *Manager) FinishEarly(ctx context.Context) (*models.Workout, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !m.store.IsActive() {
		return nil, ErrNoActiveSession
	}
	for _, we := range m.store.exercises {
		if _, err := m.skipPending(ctx, uid, we.ID); err != nil {
			return nil, err
		}
	}
	return m.Finish(ctx)
}

// Finish marks the workout completed with its final volume and clears the
// store. It returns the workout as persisted.
func (m *Manager) Finish(ctx context.Context) (*models.Workout, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !m.store.IsActive() {
		return nil, ErrNoActiveSession
	}

	w := *m.store.workout
	completedAt := m.now()
	volume := m.store.TotalVolume()
	if err := m.backend.FinishWorkout(ctx, uid, w.ID, completedAt, volume); err != nil {
		return nil, fmt.Errorf("finishing workout %s: %w", w.ID, err)
	}
	m.store.Clear()

	w.Status = models.StatusCompleted
	w.CompletedAt = &completedAt
	w.TotalVolume = volume
	return &w, nil
}

// Cancel marks the workout cancelled and clears the store.
func (m *Manager) Cancel(ctx context.Context) (*models.Workout, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !m.store.IsActive() {
		return nil, ErrNoActiveSession
	}

	w := *m.store.workout
	if err := m.backend.CancelWorkout(ctx, uid, w.ID); err != nil {
		return nil, fmt.Errorf("cancelling workout %s: %w", w.ID, err)
	}
	m.store.Clear()

	w.Status = models.StatusCancelled
	return &w, nil
}

// Resume reloads the user's in-progress workout, if any, into a freshly
// cleared store. It reports whether a workout was found. On error the store
// is left empty.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	uid, err := requireUser(ctx)
	if err != nil {
		return false, err
	}
	m.store.Clear()

	found, err := m.resume(ctx, uid)
	if err != nil {
		m.store.Clear()
		return false, err
	}
	return found, nil
}

func (m *Manager) resume(ctx context.Context, uid string) (bool, error) {
	active, err := m.backend.InProgressWorkouts(ctx, uid)
	if err != nil {
		return false, fmt.Errorf("looking up in-progress workout: %w", err)
	}
	switch len(active) {
	case 0:
		return false, nil
	case 1:
	default:
		return false, ErrMultipleActiveSessions
	}
	m.store.load(active[0])

	exercises, err := m.backend.ListWorkoutExercises(ctx, active[0].ID)
	if err != nil {
		return false, fmt.Errorf("loading workout exercises: %w", err)
	}
	for _, we := range exercises {
		sets, err := m.backend.ListWorkoutSets(ctx, we.ID)
		if err != nil {
			return false, fmt.Errorf("loading sets for %s: %w", we.ID, err)
		}
		previous, err := PreviousSets(ctx, m.backend, we.ExerciseID, uid)
		if err != nil {
			return false, err
		}
		m.store.addExercise(we, sets, previous)
	}
	return true, nil
}
