package sqlitestore

import (
	"context"
	"encoding/json"
	"fmt"
)

type seedExercise struct {
	name, category, equipment, description string
	muscles                                []string
}

var seedExercises = []seedExercise{
	{"Barbell Back Squat", "compound", "barbell", "High-bar or low-bar squat to depth", []string{"quadriceps", "glutes", "hamstrings", "core"}},
	{"Barbell Bench Press", "compound", "barbell", "Flat bench press with a full pause optional", []string{"chest", "triceps", "front_delts"}},
	{"Barbell Row", "compound", "barbell", "Bent-over row from the floor or hang", []string{"lats", "traps", "biceps", "rear_delts"}},
	{"Overhead Press", "compound", "barbell", "Standing strict press", []string{"front_delts", "side_delts", "triceps", "core"}},
	{"Deadlift", "compound", "barbell", "Conventional deadlift from the floor", []string{"hamstrings", "glutes", "lower_back", "traps", "forearms"}},
	{"Pull-up", "bodyweight", "bodyweight", "Overhand grip, full hang to chin over bar", []string{"lats", "biceps", "forearms"}},
	{"Dumbbell Curl", "isolation", "dumbbell", "", []string{"biceps", "forearms"}},
	{"Cable Triceps Pushdown", "isolation", "cable", "", []string{"triceps"}},
	{"Leg Curl", "isolation", "machine", "", []string{"hamstrings"}},
	{"Calf Raise", "isolation", "machine", "", []string{"calves"}},
}

type seedTemplate struct {
	name, description string
	exercises         []string
	sets              []int
}

var seedTemplates = []seedTemplate{
	{"5x5 A", "Squat, bench and row", []string{"Barbell Back Squat", "Barbell Bench Press", "Barbell Row"}, []int{5, 5, 5}},
	{"5x5 B", "Squat, press and deadlift", []string{"Barbell Back Squat", "Overhead Press", "Deadlift"}, []int{5, 5, 1}},
}

// seed fills an empty catalog with the starter exercises and system templates.
func (s *Store) seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercises`).Scan(&count); err != nil {
		return fmt.Errorf("counting exercises: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	ids := make(map[string]string, len(seedExercises))
	for _, e := range seedExercises {
		muscles, err := json.Marshal(e.muscles)
		if err != nil {
			return fmt.Errorf("encoding muscle groups: %w", err)
		}
		var desc any
		if e.description != "" {
			desc = e.description
		}
		id := newID()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exercises (id, name, category, muscle_groups, equipment, description, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, e.name, e.category, string(muscles), e.equipment, desc, now); err != nil {
			return fmt.Errorf("seeding exercise %s: %w", e.name, err)
		}
		ids[e.name] = id
	}

	for _, t := range seedTemplates {
		tid := newID()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workout_templates (id, user_id, name, description, workout_type, is_system, created_at, updated_at)
			 VALUES (?, NULL, ?, ?, 'lifting', 1, ?, ?)`,
			tid, t.name, t.description, now, now); err != nil {
			return fmt.Errorf("seeding template %s: %w", t.name, err)
		}
		for i, name := range t.exercises {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO template_exercises (id, template_id, exercise_id, order_index, default_sets,
				 default_reps, default_weight, rest_seconds, notes, created_at)
				 VALUES (?, ?, ?, ?, ?, 5, NULL, 90, NULL, ?)`,
				newID(), tid, ids[name], i, t.sets[i], now); err != nil {
				return fmt.Errorf("seeding template exercise %s: %w", name, err)
			}
		}
	}
	return tx.Commit()
}
