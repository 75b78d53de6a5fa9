package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a row does not exist or is not
// visible to the requesting user.
var ErrNotFound = errors.New("not found")

// ErrInUse is returned when a row cannot be deleted because recorded
// workouts still reference it.
var ErrInUse = errors.New("in use")

// WorkoutType distinguishes lifting sessions from runs.
type WorkoutType string

const (
	WorkoutTypeLifting WorkoutType = "lifting"
	WorkoutTypeRunning WorkoutType = "running"
)

// WorkoutStatus is the lifecycle state of a workout.
type WorkoutStatus string

const (
	StatusInProgress WorkoutStatus = "in_progress"
	StatusCompleted  WorkoutStatus = "completed"
	StatusCancelled  WorkoutStatus = "cancelled"
)

// Workout is a row of the workouts table.
type Workout struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	TemplateID   *string       `json:"template_id"`
	WorkoutType  WorkoutType   `json:"workout_type"`
	Name         string        `json:"name"`
	Status       WorkoutStatus `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at"`
	Notes        *string       `json:"notes"`
	TotalVolume  float64       `json:"total_volume"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	TemplateName *string       `json:"template_name,omitempty"`
}

// WorkoutExercise is one exercise slot inside a workout.
type WorkoutExercise struct {
	ID         string    `json:"id"`
	WorkoutID  string    `json:"workout_id"`
	ExerciseID string    `json:"exercise_id"`
	OrderIndex int       `json:"order_index"`
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	Exercise   *Exercise `json:"exercise,omitempty"`
}

// WorkoutSet is a single prescribed and (once completed) performed set.
type WorkoutSet struct {
	ID                string     `json:"id"`
	WorkoutExerciseID string     `json:"workout_exercise_id"`
	SetNumber         int        `json:"set_number"`
	TargetWeight      *float64   `json:"target_weight"`
	TargetReps        *int       `json:"target_reps"`
	ActualWeight      *float64   `json:"actual_weight"`
	ActualReps        *int       `json:"actual_reps"`
	IsCompleted       bool       `json:"is_completed"`
	IsWarmup          bool       `json:"is_warmup"`
	RPE               *float64   `json:"rpe"`
	Notes             *string    `json:"notes"`
	CompletedAt       *time.Time `json:"completed_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Volume returns weight × reps for a completed set, or 0 when the set is
// pending or either actual value is missing or zero.
func (s WorkoutSet) Volume() float64 {
	if !s.IsCompleted || s.ActualWeight == nil || s.ActualReps == nil {
		return 0
	}
	if *s.ActualWeight == 0 || *s.ActualReps == 0 {
		return 0
	}
	return *s.ActualWeight * float64(*s.ActualReps)
}

// SetCompletion holds the values written when a set is completed.
type SetCompletion struct {
	Weight      float64
	Reps        int
	CompletedAt time.Time
	Notes       *string
}

// WorkoutExerciseDetail is a workout exercise with its sets, as shown in history.
type WorkoutExerciseDetail struct {
	WorkoutExercise
	Sets []WorkoutSet `json:"workout_sets"`
}

// WorkoutDetail is a completed workout with all exercises and sets.
type WorkoutDetail struct {
	Workout
	Exercises []WorkoutExerciseDetail `json:"workout_exercises"`
}
