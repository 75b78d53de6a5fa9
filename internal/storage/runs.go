package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/ironlog/internal/models"
)

// DefaultRunLimit is used when ListRuns gets a limit <= 0.
const DefaultRunLimit = 50

const runColumns = `id, user_id, run_type, distance_meters, duration_seconds, pace_seconds_per_km,
	elevation_gain_meters, heart_rate_avg, heart_rate_max, notes, weather, terrain,
	started_at, completed_at, created_at`

// CreateRun logs a completed run for userID. The pace is derived from
// distance and duration.
func (db *DB) CreateRun(ctx context.Context, userID string, in models.RunInput) (*models.Run, error) {
	now := time.Now().UTC()
	r := models.Run{
		UserID:              userID,
		RunType:             in.RunType,
		DistanceMeters:      in.DistanceMeters,
		DurationSeconds:     in.DurationSeconds,
		ElevationGainMeters: in.ElevationGainMeters,
		HeartRateAvg:        in.HeartRateAvg,
		HeartRateMax:        in.HeartRateMax,
		Notes:               in.Notes,
		Weather:             in.Weather,
		Terrain:             in.Terrain,
		StartedAt:           in.StartedAt,
		CompletedAt:         &now,
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = now
	}
	r.ComputePace()

	err := db.Pool.QueryRow(ctx,
		`INSERT INTO runs (user_id, run_type, distance_meters, duration_seconds, pace_seconds_per_km,
		 elevation_gain_meters, heart_rate_avg, heart_rate_max, notes, weather, terrain,
		 started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at`,
		r.UserID, r.RunType, r.DistanceMeters, r.DurationSeconds, r.PaceSecondsPerKm,
		r.ElevationGainMeters, r.HeartRateAvg, r.HeartRateMax, r.Notes, r.Weather, r.Terrain,
		r.StartedAt, r.CompletedAt,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &r, nil
}

// GetRun returns one of the user's runs.
func (db *DB) GetRun(ctx context.Context, userID, id string) (*models.Run, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	defer rows.Close()

	list, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("run %s: %w", id, models.ErrNotFound)
	}
	return &list[0], nil
}

// ListRuns returns the user's runs, newest start first.
func (db *DB) ListRuns(ctx context.Context, userID string, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT `+runColumns+` FROM runs WHERE user_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// UpdateRun applies u to one of the user's runs and recomputes the pace.
func (db *DB) UpdateRun(ctx context.Context, userID, id string, u models.RunUpdate) (*models.Run, error) {
	r, err := db.GetRun(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	u.Apply(r)
	r.ComputePace()

	tag, err := db.Pool.Exec(ctx,
		`UPDATE runs SET run_type = $1, distance_meters = $2, duration_seconds = $3,
		 pace_seconds_per_km = $4, elevation_gain_meters = $5, heart_rate_avg = $6,
		 heart_rate_max = $7, notes = $8, weather = $9, terrain = $10, started_at = $11
		 WHERE id = $12 AND user_id = $13`,
		r.RunType, r.DistanceMeters, r.DurationSeconds, r.PaceSecondsPerKm, r.ElevationGainMeters,
		r.HeartRateAvg, r.HeartRateMax, r.Notes, r.Weather, r.Terrain, r.StartedAt, id, userID)
	if err != nil {
		return nil, fmt.Errorf("updating run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("run %s: %w", id, models.ErrNotFound)
	}
	return r, nil
}

// DeleteRun removes one of the user's runs.
func (db *DB) DeleteRun(ctx context.Context, userID, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM runs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func scanRuns(rows pgx.Rows) ([]models.Run, error) {
	result := []models.Run{}
	for rows.Next() {
		var r models.Run
		if err := rows.Scan(&r.ID, &r.UserID, &r.RunType, &r.DistanceMeters, &r.DurationSeconds,
			&r.PaceSecondsPerKm, &r.ElevationGainMeters, &r.HeartRateAvg, &r.HeartRateMax,
			&r.Notes, &r.Weather, &r.Terrain, &r.StartedAt, &r.CompletedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
