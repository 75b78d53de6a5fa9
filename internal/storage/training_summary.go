package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// GetTrainingSummary returns lifting volume and running totals per period,
// newest period first. Skipped and warmup sets do not count as working sets.
func (db *DB) GetTrainingSummary(ctx context.Context, userID string, start, end time.Time, bucket string) ([]models.TrainingPeriod, error) {
	periodMap := make(map[string]*models.TrainingPeriod)
	period := func(t time.Time) *models.TrainingPeriod {
		key := t.Format("2006-01-02")
		if _, ok := periodMap[key]; !ok {
			periodMap[key] = &models.TrainingPeriod{Period: key}
		}
		return periodMap[key]
	}

	// Query 1: Lifting volume grouped by period
	liftRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, w.completed_at AT TIME ZONE 'UTC')::date AS period,
		        COUNT(DISTINCT w.id)::int,
		        (COUNT(s.id) FILTER (WHERE s.is_completed AND NOT s.is_warmup AND COALESCE(s.actual_reps, 0) > 0))::int,
		        COALESCE(SUM(s.actual_reps) FILTER (WHERE s.is_completed AND NOT s.is_warmup), 0)::int,
		        COALESCE(SUM(s.actual_weight * s.actual_reps) FILTER (WHERE s.is_completed AND NOT s.is_warmup), 0)
		 FROM workouts w
		 LEFT JOIN workout_exercises we ON we.workout_id = w.id
		 LEFT JOIN workout_sets s ON s.workout_exercise_id = we.id
		 WHERE w.user_id = $2 AND w.status = $3 AND w.completed_at >= $4 AND w.completed_at < $5
		 GROUP BY period`,
		truncInterval(bucket), userID, models.StatusCompleted, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying lifting summary: %w", err)
	}
	defer liftRows.Close()

	for liftRows.Next() {
		var periodTime time.Time
		var workouts, sets, reps int
		var tonnage float64
		if err := liftRows.Scan(&periodTime, &workouts, &sets, &reps, &tonnage); err != nil {
			return nil, fmt.Errorf("scanning lifting summary: %w", err)
		}
		p := period(periodTime)
		p.Workouts, p.WorkingSets, p.TotalReps, p.TonnageKg = workouts, sets, reps, tonnage
	}
	if err := liftRows.Err(); err != nil {
		return nil, err
	}

	// Query 2: Runs grouped by period
	runRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, started_at AT TIME ZONE 'UTC')::date AS period,
		        COUNT(*)::int,
		        COALESCE(SUM(distance_meters), 0)
		 FROM runs
		 WHERE user_id = $2 AND started_at >= $3 AND started_at < $4
		 GROUP BY period`,
		truncInterval(bucket), userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying run summary: %w", err)
	}
	defer runRows.Close()

	for runRows.Next() {
		var periodTime time.Time
		var runs int
		var distance float64
		if err := runRows.Scan(&periodTime, &runs, &distance); err != nil {
			return nil, fmt.Errorf("scanning run summary: %w", err)
		}
		p := period(periodTime)
		p.Runs, p.RunDistanceMeters = runs, distance
	}
	if err := runRows.Err(); err != nil {
		return nil, err
	}

	return models.SortPeriods(periodMap), nil
}

// truncInterval converts bucket strings like "1 month" to the interval name
// that date_trunc expects (e.g. "month", "week").
func truncInterval(bucket string) string {
	switch bucket {
	case models.BucketWeek:
		return "week"
	default:
		return "month"
	}
}
