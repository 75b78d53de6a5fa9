package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/ironlog/internal/models"
)

// DefaultHistoryLimit is used when ListCompletedWorkouts gets a limit <= 0.
const DefaultHistoryLimit = 50

const workoutColumns = `w.id, w.user_id, w.template_id, w.workout_type, w.name, w.status, w.started_at,
	w.completed_at, w.notes, w.total_volume, w.created_at, w.updated_at, t.name`

const workoutFrom = ` FROM workouts w LEFT JOIN workout_templates t ON t.id = w.template_id`

// InsertWorkout inserts a workout row and returns it with its assigned id.
func (db *DB) InsertWorkout(ctx context.Context, w models.Workout) (*models.Workout, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workouts (user_id, template_id, workout_type, name, status, started_at, notes, total_volume)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		w.UserID, w.TemplateID, w.WorkoutType, w.Name, w.Status, w.StartedAt, w.Notes, w.TotalVolume,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting workout: %w", err)
	}
	return &w, nil
}

// InsertWorkoutExercise inserts a workout exercise row.
func (db *DB) InsertWorkoutExercise(ctx context.Context, we models.WorkoutExercise) (*models.WorkoutExercise, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workout_exercises (workout_id, exercise_id, order_index, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		we.WorkoutID, we.ExerciseID, we.OrderIndex, we.Notes,
	).Scan(&we.ID, &we.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting workout exercise: %w", err)
	}
	return &we, nil
}

// FinishWorkout marks the user's in-progress workout completed.
func (db *DB) FinishWorkout(ctx context.Context, userID, workoutID string, completedAt time.Time, totalVolume float64) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workouts SET status = $1, completed_at = $2, total_volume = $3, updated_at = NOW()
		 WHERE id = $4 AND user_id = $5 AND status = $6`,
		models.StatusCompleted, completedAt, totalVolume, workoutID, userID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("finishing workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s: %w", workoutID, models.ErrNotFound)
	}
	return nil
}

// CancelWorkout marks the user's in-progress workout cancelled.
func (db *DB) CancelWorkout(ctx context.Context, userID, workoutID string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workouts SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND user_id = $3 AND status = $4`,
		models.StatusCancelled, workoutID, userID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("cancelling workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s: %w", workoutID, models.ErrNotFound)
	}
	return nil
}

// InProgressWorkouts returns the user's in_progress workouts, newest first.
func (db *DB) InProgressWorkouts(ctx context.Context, userID string) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+workoutFrom+`
		 WHERE w.user_id = $1 AND w.status = $2
		 ORDER BY w.started_at DESC`,
		userID, models.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("querying in-progress workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkouts(rows)
}

// ListWorkoutExercises returns a workout's exercises by order_index with the
// catalog entry joined.
func (db *DB) ListWorkoutExercises(ctx context.Context, workoutID string) ([]models.WorkoutExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT we.id, we.workout_id, we.exercise_id, we.order_index, we.notes, we.created_at,
		 e.id, e.name, e.category, e.muscle_groups, e.equipment, e.description, e.created_at
		 FROM workout_exercises we
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY we.order_index ASC`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	result := []models.WorkoutExercise{}
	for rows.Next() {
		var we models.WorkoutExercise
		var e models.Exercise
		if err := rows.Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.OrderIndex, &we.Notes, &we.CreatedAt,
			&e.ID, &e.Name, &e.Category, &e.MuscleGroups, &e.Equipment, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		we.Exercise = &e
		result = append(result, we)
	}
	return result, rows.Err()
}

// ListCompletedWorkouts returns the user's completed workouts, most recently
// completed first.
func (db *DB) ListCompletedWorkouts(ctx context.Context, userID string, limit int) ([]models.Workout, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+workoutFrom+`
		 WHERE w.user_id = $1 AND w.status = $2
		 ORDER BY w.completed_at DESC
		 LIMIT $3`,
		userID, models.StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("querying completed workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkouts(rows)
}

// GetWorkoutDetail returns one of the user's workouts with exercises in order
// and each exercise's sets by set_number.
func (db *DB) GetWorkoutDetail(ctx context.Context, userID, workoutID string) (*models.WorkoutDetail, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+workoutFrom+` WHERE w.id = $1 AND w.user_id = $2`,
		workoutID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	list, err := scanWorkouts(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("workout %s: %w", workoutID, models.ErrNotFound)
	}

	exercises, err := db.ListWorkoutExercises(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	detail := &models.WorkoutDetail{Workout: list[0], Exercises: make([]models.WorkoutExerciseDetail, 0, len(exercises))}
	for _, we := range exercises {
		sets, err := db.ListWorkoutSets(ctx, we.ID)
		if err != nil {
			return nil, err
		}
		detail.Exercises = append(detail.Exercises, models.WorkoutExerciseDetail{WorkoutExercise: we, Sets: sets})
	}
	return detail, nil
}

// DeleteWorkout removes one of the user's finished or cancelled workouts with
// its exercises and sets. The in_progress workout belongs to the session and
// is reported as not found.
func (db *DB) DeleteWorkout(ctx context.Context, userID, workoutID string) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2 AND status <> $3`,
		workoutID, userID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s: %w", workoutID, models.ErrNotFound)
	}
	return nil
}

func scanWorkouts(rows pgx.Rows) ([]models.Workout, error) {
	result := []models.Workout{}
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.TemplateID, &w.WorkoutType, &w.Name, &w.Status, &w.StartedAt,
			&w.CompletedAt, &w.Notes, &w.TotalVolume, &w.CreatedAt, &w.UpdatedAt, &w.TemplateName); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
