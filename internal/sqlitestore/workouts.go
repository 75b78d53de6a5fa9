package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// DefaultHistoryLimit is used when ListCompletedWorkouts gets a limit <= 0.
const DefaultHistoryLimit = 50

const workoutColumns = `w.id, w.user_id, w.template_id, w.workout_type, w.name, w.status, w.started_at,
	w.completed_at, w.notes, w.total_volume, w.created_at, w.updated_at, t.name`

const workoutFrom = ` FROM workouts w LEFT JOIN workout_templates t ON t.id = w.template_id`

// InsertWorkout inserts a workout row and returns it with its assigned id.
func (s *Store) InsertWorkout(ctx context.Context, w models.Workout) (*models.Workout, error) {
	now := s.now()
	w.ID = newID()
	w.CreatedAt, w.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workouts (id, user_id, template_id, workout_type, name, status, started_at,
		 completed_at, notes, total_volume, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.TemplateID, w.WorkoutType, w.Name, w.Status, w.StartedAt.UTC(),
		utcPtr(w.CompletedAt), w.Notes, w.TotalVolume, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting workout: %w", err)
	}
	return &w, nil
}

// InsertWorkoutExercise inserts a workout exercise row.
func (s *Store) InsertWorkoutExercise(ctx context.Context, we models.WorkoutExercise) (*models.WorkoutExercise, error) {
	we.ID = newID()
	we.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workout_exercises (id, workout_id, exercise_id, order_index, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		we.ID, we.WorkoutID, we.ExerciseID, we.OrderIndex, we.Notes, we.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting workout exercise: %w", err)
	}
	return &we, nil
}

// FinishWorkout marks the user's in-progress workout completed.
func (s *Store) FinishWorkout(ctx context.Context, userID, workoutID string, completedAt time.Time, totalVolume float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workouts SET status = ?, completed_at = ?, total_volume = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = ?`,
		models.StatusCompleted, completedAt.UTC(), totalVolume, s.now(), workoutID, userID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("finishing workout: %w", err)
	}
	return requireRow(res, "workout", workoutID)
}

// CancelWorkout marks the user's in-progress workout cancelled.
func (s *Store) CancelWorkout(ctx context.Context, userID, workoutID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workouts SET status = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = ?`,
		models.StatusCancelled, s.now(), workoutID, userID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("cancelling workout: %w", err)
	}
	return requireRow(res, "workout", workoutID)
}

// InProgressWorkouts returns the user's in_progress workouts, newest first.
func (s *Store) InProgressWorkouts(ctx context.Context, userID string) ([]models.Workout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+workoutColumns+workoutFrom+`
		 WHERE w.user_id = ? AND w.status = ?
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
func (s *Store) ListWorkoutExercises(ctx context.Context, workoutID string) ([]models.WorkoutExercise, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT we.id, we.workout_id, we.exercise_id, we.order_index, we.notes, we.created_at,
		 `+exerciseColumns+`
		 FROM workout_exercises we
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE we.workout_id = ?
		 ORDER BY we.order_index ASC`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	result := []models.WorkoutExercise{}
	for rows.Next() {
		var we models.WorkoutExercise
		var e models.Exercise
		var muscles string
		if err := rows.Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.OrderIndex, &we.Notes, &we.CreatedAt,
			&e.ID, &e.Name, &e.Category, &muscles, &e.Equipment, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		if err := json.Unmarshal([]byte(muscles), &e.MuscleGroups); err != nil {
			return nil, fmt.Errorf("decoding muscle groups: %w", err)
		}
		we.Exercise = &e
		result = append(result, we)
	}
	return result, rows.Err()
}

// ListCompletedWorkouts returns the user's completed workouts, most recently
// completed first.
func (s *Store) ListCompletedWorkouts(ctx context.Context, userID string, limit int) ([]models.Workout, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+workoutColumns+workoutFrom+`
		 WHERE w.user_id = ? AND w.status = ?
		 ORDER BY w.completed_at DESC
		 LIMIT ?`,
		userID, models.StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("querying completed workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkouts(rows)
}

// GetWorkoutDetail returns one of the user's workouts with exercises in order
// and each exercise's sets by set_number.
func (s *Store) GetWorkoutDetail(ctx context.Context, userID, workoutID string) (*models.WorkoutDetail, error) {
	w, err := scanWorkout(s.db.QueryRowContext(ctx,
		`SELECT `+workoutColumns+workoutFrom+` WHERE w.id = ? AND w.user_id = ?`, workoutID, userID))
	if err != nil {
		return nil, fmt.Errorf("workout %s: %w", workoutID, notFound(err))
	}

	exercises, err := s.ListWorkoutExercises(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	detail := &models.WorkoutDetail{Workout: *w, Exercises: make([]models.WorkoutExerciseDetail, 0, len(exercises))}
	for _, we := range exercises {
		sets, err := s.ListWorkoutSets(ctx, we.ID)
		if err != nil {
			return nil, err
		}
		detail.Exercises = append(detail.Exercises, models.WorkoutExerciseDetail{WorkoutExercise: we, Sets: sets})
	}
	return detail, nil
}

// DeleteWorkout removes one of the user's finished or cancelled workouts with
// its exercises and sets. The in_progress workout is reported as not found.
func (s *Store) DeleteWorkout(ctx context.Context, userID, workoutID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM workouts WHERE id = ? AND user_id = ? AND status <> ?`,
		workoutID, userID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	return requireRow(res, "workout", workoutID)
}

func scanWorkout(row scanner) (*models.Workout, error) {
	var w models.Workout
	var templateID, templateName sql.NullString
	if err := row.Scan(&w.ID, &w.UserID, &templateID, &w.WorkoutType, &w.Name, &w.Status, &w.StartedAt,
		&w.CompletedAt, &w.Notes, &w.TotalVolume, &w.CreatedAt, &w.UpdatedAt, &templateName); err != nil {
		return nil, err
	}
	if templateID.Valid {
		w.TemplateID = &templateID.String
	}
	if templateName.Valid {
		w.TemplateName = &templateName.String
	}
	return &w, nil
}

func scanWorkouts(rows *sql.Rows) ([]models.Workout, error) {
	result := []models.Workout{}
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
