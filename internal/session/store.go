package session

import (
	"math"

	"github.com/meltforce/ironlog/internal/models"
)

// Store is the in-memory mirror of the active workout. It holds the workout,
// its exercises in display order, and per-exercise set and history lists
// keyed by workout exercise id. Aggregates are computed from the mirror on
// every call.
type Store struct {
	workout   *models.Workout
	exercises []models.WorkoutExercise
	sets      map[string][]models.WorkoutSet
	previous  map[string][]models.WorkoutSet
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		sets:     make(map[string][]models.WorkoutSet),
		previous: make(map[string][]models.WorkoutSet),
	}
}

// Clear drops the workout and everything hanging off it.
func (s *Store) Clear() {
	s.workout = nil
	s.exercises = nil
	clear(s.sets)
	clear(s.previous)
}

// IsActive reports whether an in-progress workout is loaded.
func (s *Store) IsActive() bool {
	return s.workout != nil && s.workout.Status == models.StatusInProgress
}

// Workout returns a copy of the loaded workout, or nil.
func (s *Store) Workout() *models.Workout {
	if s.workout == nil {
		return nil
	}
	w := *s.workout
	return &w
}

// Exercises returns the workout's exercises in display order.
func (s *Store) Exercises() []models.WorkoutExercise {
	return append([]models.WorkoutExercise(nil), s.exercises...)
}

// SetsFor returns the sets of a workout exercise ordered by set number.
func (s *Store) SetsFor(workoutExerciseID string) []models.WorkoutSet {
	return copySets(s.sets[workoutExerciseID])
}

// PreviousSetsFor returns the history snapshot taken for a workout exercise.
func (s *Store) PreviousSetsFor(workoutExerciseID string) []models.WorkoutSet {
	return copySets(s.previous[workoutExerciseID])
}

// TotalVolume sums weight × reps over completed sets.
func (s *Store) TotalVolume() float64 {
	var volume float64
	for _, sets := range s.sets {
		for _, set := range sets {
			volume += set.Volume()
		}
	}
	return volume
}

// CompletedSetsCount counts completed sets across all exercises.
func (s *Store) CompletedSetsCount() int {
	n := 0
	for _, sets := range s.sets {
		for _, set := range sets {
			if set.IsCompleted {
				n++
			}
		}
	}
	return n
}

// TotalSetsCount counts all sets across all exercises.
func (s *Store) TotalSetsCount() int {
	n := 0
	for _, sets := range s.sets {
		n += len(sets)
	}
	return n
}

// Progress is the rounded percentage of completed sets, 0 with no sets.
func (s *Store) Progress() int {
	total := s.TotalSetsCount()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(s.CompletedSetsCount()) / float64(total) * 100))
}

func (s *Store) load(w models.Workout) {
	s.workout = &w
}

func (s *Store) addExercise(we models.WorkoutExercise, sets, previous []models.WorkoutSet) {
	s.exercises = append(s.exercises, we)
	if sets == nil {
		sets = []models.WorkoutSet{}
	}
	s.sets[we.ID] = sets
	s.previous[we.ID] = previous
}

func (s *Store) findSet(workoutExerciseID, setID string) (int, bool) {
	sets, ok := s.sets[workoutExerciseID]
	if !ok {
		return -1, false
	}
	for i := range sets {
		if sets[i].ID == setID {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) hasExercise(workoutExerciseID string) bool {
	_, ok := s.sets[workoutExerciseID]
	return ok
}

func (s *Store) replaceSet(workoutExerciseID string, i int, set models.WorkoutSet) {
	s.sets[workoutExerciseID][i] = set
}

// Snapshot is a read-only copy of the mirror together with its aggregates.
type Snapshot struct {
	Active             bool               `json:"active"`
	Workout            *models.Workout    `json:"workout"`
	Exercises          []SnapshotExercise `json:"exercises"`
	TotalVolume        float64            `json:"total_volume"`
	CompletedSetsCount int                `json:"completed_sets"`
	TotalSetsCount     int                `json:"total_sets"`
	Progress           int                `json:"progress"`
}

// SnapshotExercise is one exercise of a Snapshot with its sets and history.
type SnapshotExercise struct {
	models.WorkoutExercise
	Sets         []models.WorkoutSet `json:"sets"`
	PreviousSets []models.WorkoutSet `json:"previous_sets"`
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Active:             s.IsActive(),
		Workout:            s.Workout(),
		Exercises:          make([]SnapshotExercise, 0, len(s.exercises)),
		TotalVolume:        s.TotalVolume(),
		CompletedSetsCount: s.CompletedSetsCount(),
		TotalSetsCount:     s.TotalSetsCount(),
		Progress:           s.Progress(),
	}
	for _, we := range s.exercises {
		snap.Exercises = append(snap.Exercises, SnapshotExercise{
			WorkoutExercise: we,
			Sets:            s.SetsFor(we.ID),
			PreviousSets:    s.PreviousSetsFor(we.ID),
		})
	}
	return snap
}

func copySets(in []models.WorkoutSet) []models.WorkoutSet {
	out := make([]models.WorkoutSet, len(in))
	copy(out, in)
	return out
}
