// Package session manages the lifecycle of a user's active lifting workout:
// starting it from a template, recording sets, and finishing, cancelling or
// resuming it. A Manager keeps an in-memory mirror of the backend rows for
// the one in-progress workout and derives aggregates from it on read.
package session

import (
	"context"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// Backend is the subset of the data store the session lifecycle depends on.
// Implementations assign all identifiers. Writes that name a set or workout
// exercise must only affect rows whose owning workout belongs to userID.
type Backend interface {
	GetTemplate(ctx context.Context, templateID string) (*models.WorkoutTemplate, error)
	ListTemplateExercises(ctx context.Context, templateID string) ([]models.TemplateExercise, error)
	GetExercise(ctx context.Context, exerciseID string) (*models.Exercise, error)

	InsertWorkout(ctx context.Context, w models.Workout) (*models.Workout, error)
	InsertWorkoutExercise(ctx context.Context, we models.WorkoutExercise) (*models.WorkoutExercise, error)
	InsertWorkoutSet(ctx context.Context, s models.WorkoutSet) (*models.WorkoutSet, error)
	CompleteWorkoutSet(ctx context.Context, userID, setID string, c models.SetCompletion) (*models.WorkoutSet, error)
	FinishWorkout(ctx context.Context, userID, workoutID string, completedAt time.Time, totalVolume float64) error
	CancelWorkout(ctx context.Context, userID, workoutID string) error

	// InProgressWorkouts returns the user's in_progress workouts, newest first.
	InProgressWorkouts(ctx context.Context, userID string) ([]models.Workout, error)
	ListWorkoutExercises(ctx context.Context, workoutID string) ([]models.WorkoutExercise, error)
	ListWorkoutSets(ctx context.Context, workoutExerciseID string) ([]models.WorkoutSet, error)

	// PreviousSets returns up to limit completed sets of exerciseID from the
	// user's completed workouts, most recently completed workout first.
	PreviousSets(ctx context.Context, exerciseID, userID string, limit int) ([]models.WorkoutSet, error)
}
