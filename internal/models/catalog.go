package models

import "time"

// ExerciseCategory classifies an exercise in the catalog.
type ExerciseCategory string

const (
	CategoryCompound   ExerciseCategory = "compound"
	CategoryIsolation  ExerciseCategory = "isolation"
	CategoryBodyweight ExerciseCategory = "bodyweight"
)

// Exercise is a row of the exercise catalog.
type Exercise struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Category     ExerciseCategory `json:"category"`
	MuscleGroups []string         `json:"muscle_groups"`
	Equipment    *string          `json:"equipment"`
	Description  *string          `json:"description"`
	CreatedAt    time.Time        `json:"created_at"`
}

// WorkoutTemplate is a reusable workout plan. System templates have no owner.
type WorkoutTemplate struct {
	ID          string      `json:"id"`
	UserID      *string     `json:"user_id"`
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	WorkoutType WorkoutType `json:"workout_type"`
	IsSystem    bool        `json:"is_system"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OwnedBy reports whether the template belongs to userID.
func (t WorkoutTemplate) OwnedBy(userID string) bool {
	return t.UserID != nil && *t.UserID == userID
}

// VisibleTo reports whether userID may read the template.
func (t WorkoutTemplate) VisibleTo(userID string) bool {
	return t.IsSystem || t.OwnedBy(userID)
}

// TemplateExercise is one exercise of a template with its defaults.
type TemplateExercise struct {
	ID            string    `json:"id"`
	TemplateID    string    `json:"template_id"`
	ExerciseID    string    `json:"exercise_id"`
	OrderIndex    int       `json:"order_index"`
	DefaultSets   int       `json:"default_sets"`
	DefaultReps   int       `json:"default_reps"`
	DefaultWeight *float64  `json:"default_weight"`
	RestSeconds   int       `json:"rest_seconds"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	Exercise      *Exercise `json:"exercise,omitempty"`
}

// TemplateDetail is a template together with its ordered exercises.
type TemplateDetail struct {
	WorkoutTemplate
	Exercises []TemplateExercise `json:"template_exercises"`
}

// User is an authenticated person. Every workout and run is scoped to one.
type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}
