// Package catalog holds the fixed vocabularies of the exercise catalog and
// the helpers for validating and grouping exercises.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/meltforce/ironlog/internal/models"
)

// Option is a value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Categories lists exercise categories in display order.
var Categories = []Option{
	{string(models.CategoryCompound), "Compound"},
	{string(models.CategoryIsolation), "Isolation"},
	{string(models.CategoryBodyweight), "Bodyweight"},
}

// Equipment lists the supported equipment types.
var Equipment = []Option{
	{"barbell", "Barbell"},
	{"dumbbell", "Dumbbell"},
	{"machine", "Machine"},
	{"cable", "Cable"},
	{"bodyweight", "Bodyweight"},
}

// MuscleGroups lists the muscle groups an exercise may target.
var MuscleGroups = []Option{
	{"chest", "Chest"},
	{"front_delts", "Front Delts"},
	{"side_delts", "Side Delts"},
	{"rear_delts", "Rear Delts"},
	{"triceps", "Triceps"},
	{"biceps", "Biceps"},
	{"forearms", "Forearms"},
	{"lats", "Lats"},
	{"traps", "Traps"},
	{"lower_back", "Lower Back"},
	{"core", "Core"},
	{"quadriceps", "Quadriceps"},
	{"hamstrings", "Hamstrings"},
	{"glutes", "Glutes"},
	{"calves", "Calves"},
	{"hip_flexors", "Hip Flexors"},
}

func has(options []Option, v string) bool {
	return slices.ContainsFunc(options, func(o Option) bool { return o.Value == v })
}

// Validate checks an exercise input against the catalog vocabularies and
// trims the name.
func Validate(in *models.ExerciseInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: exercise name is required", models.ErrInvalidInput)
	}
	if !has(Categories, string(in.Category)) {
		return fmt.Errorf("%w: unknown category %q", models.ErrInvalidInput, in.Category)
	}
	if in.Equipment != nil && !has(Equipment, *in.Equipment) {
		return fmt.Errorf("%w: unknown equipment %q", models.ErrInvalidInput, *in.Equipment)
	}
	for _, m := range in.MuscleGroups {
		if !has(MuscleGroups, m) {
			return fmt.Errorf("%w: unknown muscle group %q", models.ErrInvalidInput, m)
		}
	}
	return nil
}

// GroupByCategory buckets exercises by category, keeping their order.
func GroupByCategory(exercises []models.Exercise) map[models.ExerciseCategory][]models.Exercise {
	groups := make(map[models.ExerciseCategory][]models.Exercise)
	for _, e := range exercises {
		groups[e.Category] = append(groups[e.Category], e)
	}
	return groups
}
