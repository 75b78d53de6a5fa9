package storage

import (
	"context"
	"fmt"

	"github.com/meltforce/ironlog/internal/models"
)

// GetTrainingStats returns aggregate statistics for a user's completed
// workouts and logged runs.
func (db *DB) GetTrainingStats(ctx context.Context, userID string) (*models.TrainingStats, error) {
	stats := &models.TrainingStats{RunsByType: []models.RunTypeStat{}}

	// Completed workouts and their date range
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_volume), 0), MIN(completed_at), MAX(completed_at)
		 FROM workouts WHERE user_id = $1 AND status = $2`,
		userID, models.StatusCompleted,
	).Scan(&stats.TotalWorkouts, &stats.TotalVolume, &stats.FirstWorkoutAt, &stats.LastWorkoutAt)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	// Completed sets
	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 WHERE w.user_id = $1 AND w.status = $2 AND s.is_completed`,
		userID, models.StatusCompleted,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	// Runs by type
	rows, err := db.Pool.Query(ctx,
		`SELECT run_type, COUNT(*), COALESCE(SUM(distance_meters), 0), COALESCE(SUM(duration_seconds), 0)
		 FROM runs
		 WHERE user_id = $1
		 GROUP BY run_type
		 ORDER BY COUNT(*) DESC, run_type`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying runs by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.RunTypeStat
		if err := rows.Scan(&s.RunType, &s.Count, &s.DistanceMeters, &s.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scanning run type stat: %w", err)
		}
		stats.RunsByType = append(stats.RunsByType, s)
		stats.TotalRuns += s.Count
		stats.TotalDistanceMeters += s.DistanceMeters
		stats.TotalRunSeconds += s.DurationSeconds
	}
	return stats, rows.Err()
}
