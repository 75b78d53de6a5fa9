package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/ironlog/internal/models"
)

const setColumns = `s.id, s.workout_exercise_id, s.set_number, s.target_weight, s.target_reps,
	s.actual_weight, s.actual_reps, s.is_completed, s.is_warmup, s.rpe, s.notes, s.completed_at, s.created_at`

// InsertWorkoutSet inserts a pending set.
func (db *DB) InsertWorkoutSet(ctx context.Context, s models.WorkoutSet) (*models.WorkoutSet, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workout_sets (workout_exercise_id, set_number, target_weight, target_reps,
		 actual_weight, actual_reps, is_completed, is_warmup, rpe, notes, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		s.WorkoutExerciseID, s.SetNumber, s.TargetWeight, s.TargetReps,
		s.ActualWeight, s.ActualReps, s.IsCompleted, s.IsWarmup, s.RPE, s.Notes, s.CompletedAt,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting workout set: %w", err)
	}
	return &s, nil
}

// CompleteWorkoutSet writes the performed values of a set whose workout
// belongs to userID and returns the updated row.
func (db *DB) CompleteWorkoutSet(ctx context.Context, userID, setID string, c models.SetCompletion) (*models.WorkoutSet, error) {
	rows, err := db.Pool.Query(ctx,
		`UPDATE workout_sets s
		 SET actual_weight = $1, actual_reps = $2, is_completed = TRUE, completed_at = $3,
		     notes = COALESCE($4, s.notes)
		 FROM workout_exercises we, workouts w
		 WHERE s.id = $5 AND we.id = s.workout_exercise_id AND w.id = we.workout_id AND w.user_id = $6
		 RETURNING `+setColumns,
		c.Weight, c.Reps, c.CompletedAt, c.Notes, setID, userID)
	if err != nil {
		return nil, fmt.Errorf("completing set: %w", err)
	}
	defer rows.Close()

	list, err := scanSets(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("set %s: %w", setID, models.ErrNotFound)
	}
	return &list[0], nil
}

// ListWorkoutSets returns a workout exercise's sets by set_number.
func (db *DB) ListWorkoutSets(ctx context.Context, workoutExerciseID string) ([]models.WorkoutSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+setColumns+` FROM workout_sets s
		 WHERE s.workout_exercise_id = $1
		 ORDER BY s.set_number ASC`, workoutExerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()
	return scanSets(rows)
}

// PreviousSets returns up to limit completed sets of exerciseID from the
// user's completed workouts, most recently completed workout first and
// set_number ascending within a workout.
func (db *DB) PreviousSets(ctx context.Context, exerciseID, userID string, limit int) ([]models.WorkoutSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+setColumns+` FROM workout_sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE we.exercise_id = $1 AND w.user_id = $2
		   AND w.status = $3 AND s.is_completed
		 ORDER BY w.completed_at DESC, s.set_number ASC
		 LIMIT $4`,
		exerciseID, userID, models.StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("querying previous sets: %w", err)
	}
	defer rows.Close()
	return scanSets(rows)
}

func scanSets(rows pgx.Rows) ([]models.WorkoutSet, error) {
	result := []models.WorkoutSet{}
	for rows.Next() {
		var s models.WorkoutSet
		if err := rows.Scan(&s.ID, &s.WorkoutExerciseID, &s.SetNumber, &s.TargetWeight, &s.TargetReps,
			&s.ActualWeight, &s.ActualReps, &s.IsCompleted, &s.IsWarmup, &s.RPE, &s.Notes,
			&s.CompletedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
