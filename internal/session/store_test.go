package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meltforce/ironlog/internal/models"
)

func pendingSet(id string, n int) models.WorkoutSet {
	return models.WorkoutSet{ID: id, SetNumber: n}
}

func doneSet(id string, n int, weight float64, reps int) models.WorkoutSet {
	return models.WorkoutSet{ID: id, SetNumber: n, IsCompleted: true, ActualWeight: &weight, ActualReps: &reps}
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()
	assert.False(t, s.IsActive())
	assert.Nil(t, s.Workout())
	assert.Empty(t, s.Exercises())
	assert.Empty(t, s.SetsFor("anything"))
	assert.Empty(t, s.PreviousSetsFor("anything"))
	assert.Equal(t, 0.0, s.TotalVolume())
	assert.Equal(t, 0, s.CompletedSetsCount())
	assert.Equal(t, 0, s.TotalSetsCount())
	assert.Equal(t, 0, s.Progress())
}

func TestStoreProgress(t *testing.T) {
	tests := []struct {
		name string
		sets []models.WorkoutSet
		want int
	}{
		{"no sets", nil, 0},
		{"none completed", []models.WorkoutSet{pendingSet("a", 1), pendingSet("b", 2)}, 0},
		{"one of three", []models.WorkoutSet{doneSet("a", 1, 1, 1), pendingSet("b", 2), pendingSet("c", 3)}, 33},
		{"two of three", []models.WorkoutSet{doneSet("a", 1, 1, 1), doneSet("b", 2, 1, 1), pendingSet("c", 3)}, 67},
		{"all", []models.WorkoutSet{doneSet("a", 1, 1, 1), doneSet("b", 2, 1, 1)}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.load(models.Workout{ID: "w", Status: models.StatusInProgress})
			s.addExercise(models.WorkoutExercise{ID: "we"}, tt.sets, nil)

			got := s.Progress()
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestStoreVolumeIgnoresIncompleteValues(t *testing.T) {
	s := NewStore()
	s.load(models.Workout{ID: "w", Status: models.StatusInProgress})
	weight := 50.0
	s.addExercise(models.WorkoutExercise{ID: "we1"}, []models.WorkoutSet{
		doneSet("a", 1, 100, 5),
		doneSet("b", 2, 0, 5),
		{ID: "c", SetNumber: 3, IsCompleted: true, ActualWeight: &weight},
		{ID: "d", SetNumber: 4, ActualWeight: &weight, ActualReps: new(int)},
	}, nil)
	s.addExercise(models.WorkoutExercise{ID: "we2"}, []models.WorkoutSet{doneSet("e", 1, 20, 10)}, nil)

	assert.Equal(t, 700.0, s.TotalVolume())
	assert.Equal(t, 4, s.CompletedSetsCount())
	assert.Equal(t, 5, s.TotalSetsCount())
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.load(models.Workout{ID: "w", Status: models.StatusInProgress})
	s.addExercise(models.WorkoutExercise{ID: "we"}, []models.WorkoutSet{doneSet("a", 1, 100, 5)},
		[]models.WorkoutSet{doneSet("old", 1, 95, 5)})
	assert.True(t, s.IsActive())

	s.Clear()

	assert.False(t, s.IsActive())
	assert.Nil(t, s.Workout())
	assert.Empty(t, s.Exercises())
	assert.Empty(t, s.SetsFor("we"))
	assert.Empty(t, s.PreviousSetsFor("we"))
	assert.Equal(t, 0.0, s.TotalVolume())
	assert.Equal(t, 0, s.CompletedSetsCount())
	assert.Equal(t, 0, s.TotalSetsCount())
	assert.Equal(t, 0, s.Progress())

	snap := s.Snapshot()
	assert.False(t, snap.Active)
	assert.Empty(t, snap.Exercises)
}

func TestStoreEveryExerciseHasSetsEntry(t *testing.T) {
	s := NewStore()
	s.load(models.Workout{ID: "w", Status: models.StatusInProgress})
	s.addExercise(models.WorkoutExercise{ID: "we"}, nil, nil)

	assert.True(t, s.hasExercise("we"))
	assert.NotNil(t, s.SetsFor("we"))
	assert.Equal(t, 0, s.Progress())
}

func TestStoreInactiveStatuses(t *testing.T) {
	for _, status := range []models.WorkoutStatus{models.StatusCompleted, models.StatusCancelled} {
		s := NewStore()
		s.load(models.Workout{ID: "w", Status: status})
		assert.False(t, s.IsActive(), status)
	}
}

func TestStoreAccessorsReturnCopies(t *testing.T) {
	s := NewStore()
	s.load(models.Workout{ID: "w", Name: "Push", Status: models.StatusInProgress})
	s.addExercise(models.WorkoutExercise{ID: "we"}, []models.WorkoutSet{pendingSet("a", 1)}, nil)

	sets := s.SetsFor("we")
	sets[0].IsCompleted = true
	w := s.Workout()
	w.Name = "changed"

	assert.False(t, s.SetsFor("we")[0].IsCompleted)
	assert.Equal(t, "Push", s.Workout().Name)
}
