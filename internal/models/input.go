package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput is wrapped by every Validate method.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Template exercise defaults applied when the caller leaves a field unset.
const (
	DefaultTemplateSets = 5
	DefaultTemplateReps = 5
	DefaultRestSeconds  = 90
)

// ExerciseInput creates a catalog exercise. Category, equipment and muscle
// groups are checked by the catalog package.
type ExerciseInput struct {
	Name         string           `json:"name"`
	Category     ExerciseCategory `json:"category"`
	MuscleGroups []string         `json:"muscle_groups"`
	Equipment    *string          `json:"equipment"`
	Description  *string          `json:"description"`
}

// TemplateInput creates a user template.
type TemplateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Validate checks the template name.
func (in TemplateInput) Validate() error {
	if in.Name == "" {
		return invalid("template name is required")
	}
	return nil
}

// TemplateUpdate changes the name and/or description of a template.
type TemplateUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Validate rejects an empty name.
func (u TemplateUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return invalid("template name must not be empty")
	}
	return nil
}

// Apply writes the set fields onto t.
func (u TemplateUpdate) Apply(t *WorkoutTemplate) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Description != nil {
		t.Description = u.Description
	}
}

// TemplateExerciseInput adds an exercise to a template. Nil fields take the
// package defaults.
type TemplateExerciseInput struct {
	ExerciseID    string   `json:"exercise_id"`
	OrderIndex    int      `json:"order_index"`
	DefaultSets   *int     `json:"default_sets"`
	DefaultReps   *int     `json:"default_reps"`
	DefaultWeight *float64 `json:"default_weight"`
	RestSeconds   *int     `json:"rest_seconds"`
	Notes         *string  `json:"notes"`
}

// Validate checks the exercise reference and positive counts.
func (in TemplateExerciseInput) Validate() error {
	if in.ExerciseID == "" {
		return invalid("exercise_id is required")
	}
	if in.OrderIndex < 0 {
		return invalid("order_index must not be negative")
	}
	if in.DefaultSets != nil && *in.DefaultSets < 1 {
		return invalid("default_sets must be at least 1")
	}
	if in.DefaultReps != nil && *in.DefaultReps < 1 {
		return invalid("default_reps must be at least 1")
	}
	if in.RestSeconds != nil && *in.RestSeconds < 0 {
		return invalid("rest_seconds must not be negative")
	}
	return nil
}

// Resolve returns the template exercise row for templateID with defaults filled in.
func (in TemplateExerciseInput) Resolve(templateID string) TemplateExercise {
	te := TemplateExercise{
		TemplateID:    templateID,
		ExerciseID:    in.ExerciseID,
		OrderIndex:    in.OrderIndex,
		DefaultSets:   DefaultTemplateSets,
		DefaultReps:   DefaultTemplateReps,
		DefaultWeight: in.DefaultWeight,
		RestSeconds:   DefaultRestSeconds,
		Notes:         in.Notes,
	}
	if in.DefaultSets != nil {
		te.DefaultSets = *in.DefaultSets
	}
	if in.DefaultReps != nil {
		te.DefaultReps = *in.DefaultReps
	}
	if in.RestSeconds != nil {
		te.RestSeconds = *in.RestSeconds
	}
	return te
}

// RunInput logs a completed run.
type RunInput struct {
	RunType             RunType   `json:"run_type"`
	DistanceMeters      float64   `json:"distance_meters"`
	DurationSeconds     int       `json:"duration_seconds"`
	ElevationGainMeters *float64  `json:"elevation_gain_meters"`
	HeartRateAvg        *int      `json:"heart_rate_avg"`
	HeartRateMax        *int      `json:"heart_rate_max"`
	Notes               *string   `json:"notes"`
	Weather             *string   `json:"weather"`
	Terrain             *Terrain  `json:"terrain"`
	StartedAt           time.Time `json:"started_at"`
}

// Validate checks the run type, terrain and non-negative measurements.
func (in RunInput) Validate() error {
	if !in.RunType.Valid() {
		return invalid("unknown run type %q", in.RunType)
	}
	if in.Terrain != nil && !in.Terrain.Valid() {
		return invalid("unknown terrain %q", *in.Terrain)
	}
	if in.DistanceMeters < 0 {
		return invalid("distance must not be negative")
	}
	if in.DurationSeconds < 0 {
		return invalid("duration must not be negative")
	}
	return nil
}

// RunUpdate edits a logged run. Only set fields change.
type RunUpdate struct {
	RunType             *RunType   `json:"run_type"`
	DistanceMeters      *float64   `json:"distance_meters"`
	DurationSeconds     *int       `json:"duration_seconds"`
	ElevationGainMeters *float64   `json:"elevation_gain_meters"`
	HeartRateAvg        *int       `json:"heart_rate_avg"`
	HeartRateMax        *int       `json:"heart_rate_max"`
	Notes               *string    `json:"notes"`
	Weather             *string    `json:"weather"`
	Terrain             *Terrain   `json:"terrain"`
	StartedAt           *time.Time `json:"started_at"`
}

// Validate checks the fields that are set.
func (u RunUpdate) Validate() error {
	if u.RunType != nil && !u.RunType.Valid() {
		return invalid("unknown run type %q", *u.RunType)
	}
	if u.Terrain != nil && !u.Terrain.Valid() {
		return invalid("unknown terrain %q", *u.Terrain)
	}
	if u.DistanceMeters != nil && *u.DistanceMeters < 0 {
		return invalid("distance must not be negative")
	}
	if u.DurationSeconds != nil && *u.DurationSeconds < 0 {
		return invalid("duration must not be negative")
	}
	return nil
}

// Apply writes the set fields onto r. The caller recomputes the pace.
func (u RunUpdate) Apply(r *Run) {
	if u.RunType != nil {
		r.RunType = *u.RunType
	}
	if u.DistanceMeters != nil {
		r.DistanceMeters = *u.DistanceMeters
	}
	if u.DurationSeconds != nil {
		r.DurationSeconds = *u.DurationSeconds
	}
	if u.ElevationGainMeters != nil {
		r.ElevationGainMeters = u.ElevationGainMeters
	}
	if u.HeartRateAvg != nil {
		r.HeartRateAvg = u.HeartRateAvg
	}
	if u.HeartRateMax != nil {
		r.HeartRateMax = u.HeartRateMax
	}
	if u.Notes != nil {
		r.Notes = u.Notes
	}
	if u.Weather != nil {
		r.Weather = u.Weather
	}
	if u.Terrain != nil {
		r.Terrain = u.Terrain
	}
	if u.StartedAt != nil {
		r.StartedAt = *u.StartedAt
	}
}
