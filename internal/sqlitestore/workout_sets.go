package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meltforce/ironlog/internal/models"
)

const setColumns = `s.id, s.workout_exercise_id, s.set_number, s.target_weight, s.target_reps,
	s.actual_weight, s.actual_reps, s.is_completed, s.is_warmup, s.rpe, s.notes, s.completed_at, s.created_at`

// InsertWorkoutSet inserts a pending set.
func (s *Store) InsertWorkoutSet(ctx context.Context, set models.WorkoutSet) (*models.WorkoutSet, error) {
	set.ID = newID()
	set.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workout_sets (id, workout_exercise_id, set_number, target_weight, target_reps,
		 actual_weight, actual_reps, is_completed, is_warmup, rpe, notes, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		set.ID, set.WorkoutExerciseID, set.SetNumber, set.TargetWeight, set.TargetReps,
		set.ActualWeight, set.ActualReps, set.IsCompleted, set.IsWarmup, set.RPE, set.Notes,
		utcPtr(set.CompletedAt), set.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting workout set: %w", err)
	}
	return &set, nil
}

// CompleteWorkoutSet writes the performed values of a set whose workout
// belongs to userID and returns the updated row.
func (s *Store) CompleteWorkoutSet(ctx context.Context, userID, setID string, c models.SetCompletion) (*models.WorkoutSet, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workout_sets
		 SET actual_weight = ?, actual_reps = ?, is_completed = 1, completed_at = ?,
		     notes = COALESCE(?, notes)
		 WHERE id = ? AND workout_exercise_id IN (
		     SELECT we.id FROM workout_exercises we
		     JOIN workouts w ON w.id = we.workout_id
		     WHERE w.user_id = ?)`,
		c.Weight, c.Reps, c.CompletedAt.UTC(), c.Notes, setID, userID)
	if err != nil {
		return nil, fmt.Errorf("completing set: %w", err)
	}
	if err := requireRow(res, "set", setID); err != nil {
		return nil, err
	}

	set, err := scanSet(s.db.QueryRowContext(ctx,
		`SELECT `+setColumns+` FROM workout_sets s WHERE s.id = ?`, setID))
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", setID, notFound(err))
	}
	return set, nil
}

// ListWorkoutSets returns a workout exercise's sets by set_number.
func (s *Store) ListWorkoutSets(ctx context.Context, workoutExerciseID string) ([]models.WorkoutSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+setColumns+` FROM workout_sets s
		 WHERE s.workout_exercise_id = ?
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
func (s *Store) PreviousSets(ctx context.Context, exerciseID, userID string, limit int) ([]models.WorkoutSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+setColumns+` FROM workout_sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE we.exercise_id = ? AND w.user_id = ?
		   AND w.status = ? AND s.is_completed = 1
		 ORDER BY w.completed_at DESC, s.set_number ASC
		 LIMIT ?`,
		exerciseID, userID, models.StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("querying previous sets: %w", err)
	}
	defer rows.Close()
	return scanSets(rows)
}

func scanSet(row scanner) (*models.WorkoutSet, error) {
	var set models.WorkoutSet
	if err := row.Scan(&set.ID, &set.WorkoutExerciseID, &set.SetNumber, &set.TargetWeight, &set.TargetReps,
		&set.ActualWeight, &set.ActualReps, &set.IsCompleted, &set.IsWarmup, &set.RPE, &set.Notes,
		&set.CompletedAt, &set.CreatedAt); err != nil {
		return nil, err
	}
	return &set, nil
}

func scanSets(rows *sql.Rows) ([]models.WorkoutSet, error) {
	result := []models.WorkoutSet{}
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		result = append(result, *set)
	}
	return result, rows.Err()
}
