package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// GetTrainingStats returns aggregate statistics for a user's completed
// workouts and logged runs.
func (s *Store) GetTrainingStats(ctx context.Context, userID string) (*models.TrainingStats, error) {
	stats := &models.TrainingStats{RunsByType: []models.RunTypeStat{}}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_volume), 0)
		 FROM workouts WHERE user_id = ? AND status = ?`,
		userID, models.StatusCompleted,
	).Scan(&stats.TotalWorkouts, &stats.TotalVolume)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	// Aggregates lose the column's declared type, so the range is read as rows.
	if stats.FirstWorkoutAt, err = s.workoutBound(ctx, userID, "ASC"); err != nil {
		return nil, err
	}
	if stats.LastWorkoutAt, err = s.workoutBound(ctx, userID, "DESC"); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workout_sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE w.user_id = ? AND w.status = ? AND s.is_completed = 1`,
		userID, models.StatusCompleted,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_type, COUNT(*), COALESCE(SUM(distance_meters), 0), COALESCE(SUM(duration_seconds), 0)
		 FROM runs
		 WHERE user_id = ?
		 GROUP BY run_type
		 ORDER BY COUNT(*) DESC, run_type`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying runs by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rs models.RunTypeStat
		if err := rows.Scan(&rs.RunType, &rs.Count, &rs.DistanceMeters, &rs.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scanning run type stat: %w", err)
		}
		stats.RunsByType = append(stats.RunsByType, rs)
		stats.TotalRuns += rs.Count
		stats.TotalDistanceMeters += rs.DistanceMeters
		stats.TotalRunSeconds += rs.DurationSeconds
	}
	return stats, rows.Err()
}

func (s *Store) workoutBound(ctx context.Context, userID, dir string) (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT completed_at FROM workouts WHERE user_id = ? AND status = ?
		 ORDER BY completed_at `+dir+` LIMIT 1`,
		userID, models.StatusCompleted).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout range: %w", err)
	}
	return &t, nil
}

// GetTrainingSummary returns lifting volume and running totals per period,
// newest period first. Skipped and warmup sets do not count as working sets.
func (s *Store) GetTrainingSummary(ctx context.Context, userID string, start, end time.Time, bucket string) ([]models.TrainingPeriod, error) {
	periodMap := make(map[string]*models.TrainingPeriod)
	period := func(t time.Time) *models.TrainingPeriod {
		key := models.PeriodStart(t, bucket).Format("2006-01-02")
		if _, ok := periodMap[key]; !ok {
			periodMap[key] = &models.TrainingPeriod{Period: key}
		}
		return periodMap[key]
	}

	workouts, err := s.db.QueryContext(ctx,
		`SELECT id, completed_at FROM workouts
		 WHERE user_id = ? AND status = ? AND completed_at >= ? AND completed_at < ?`,
		userID, models.StatusCompleted, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying lifting summary: %w", err)
	}
	completedAt := make(map[string]time.Time)
	for workouts.Next() {
		var id string
		var t time.Time
		if err := workouts.Scan(&id, &t); err != nil {
			workouts.Close()
			return nil, fmt.Errorf("scanning lifting summary: %w", err)
		}
		completedAt[id] = t
		period(t).Workouts++
	}
	workouts.Close()
	if err := workouts.Err(); err != nil {
		return nil, err
	}

	for id, t := range completedAt {
		var sets, reps int
		var tonnage float64
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*), COALESCE(SUM(s.actual_reps), 0), COALESCE(SUM(s.actual_weight * s.actual_reps), 0)
			 FROM workout_sets s
			 JOIN workout_exercises we ON we.id = s.workout_exercise_id
			 WHERE we.workout_id = ? AND s.is_completed = 1 AND s.is_warmup = 0
			   AND COALESCE(s.actual_reps, 0) > 0`, id,
		).Scan(&sets, &reps, &tonnage)
		if err != nil {
			return nil, fmt.Errorf("querying workout volume: %w", err)
		}
		p := period(t)
		p.WorkingSets += sets
		p.TotalReps += reps
		p.TonnageKg += tonnage
	}

	runs, err := s.db.QueryContext(ctx,
		`SELECT started_at, distance_meters FROM runs
		 WHERE user_id = ? AND started_at >= ? AND started_at < ?`,
		userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying run summary: %w", err)
	}
	defer runs.Close()
	for runs.Next() {
		var t time.Time
		var distance float64
		if err := runs.Scan(&t, &distance); err != nil {
			return nil, fmt.Errorf("scanning run summary: %w", err)
		}
		p := period(t)
		p.Runs++
		p.RunDistanceMeters += distance
	}
	if err := runs.Err(); err != nil {
		return nil, err
	}

	return models.SortPeriods(periodMap), nil
}
