package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meltforce/ironlog/internal/models"
)

// DefaultRunLimit is used when ListRuns gets a limit <= 0.
const DefaultRunLimit = 50

const runColumns = `id, user_id, run_type, distance_meters, duration_seconds, pace_seconds_per_km,
	elevation_gain_meters, heart_rate_avg, heart_rate_max, notes, weather, terrain,
	started_at, completed_at, created_at`

// CreateRun logs a completed run for userID. The pace is derived from
// distance and duration.
func (s *Store) CreateRun(ctx context.Context, userID string, in models.RunInput) (*models.Run, error) {
	now := s.now()
	r := models.Run{
		ID:                  newID(),
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
		StartedAt:           in.StartedAt.UTC(),
		CompletedAt:         &now,
		CreatedAt:           now,
	}
	if in.StartedAt.IsZero() {
		r.StartedAt = now
	}
	r.ComputePace()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.RunType, r.DistanceMeters, r.DurationSeconds, r.PaceSecondsPerKm,
		r.ElevationGainMeters, r.HeartRateAvg, r.HeartRateMax, r.Notes, r.Weather, r.Terrain,
		r.StartedAt, now, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &r, nil
}

// GetRun returns one of the user's runs.
func (s *Store) GetRun(ctx context.Context, userID, id string) (*models.Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, notFound(err))
	}
	return r, nil
}

// ListRuns returns the user's runs, newest start first.
func (s *Store) ListRuns(ctx context.Context, userID string, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE user_id = ?
		 ORDER BY started_at DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	result := []models.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// UpdateRun applies u to one of the user's runs and recomputes the pace.
func (s *Store) UpdateRun(ctx context.Context, userID, id string, u models.RunUpdate) (*models.Run, error) {
	r, err := s.GetRun(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	u.Apply(r)
	r.StartedAt = r.StartedAt.UTC()
	r.ComputePace()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET run_type = ?, distance_meters = ?, duration_seconds = ?,
		 pace_seconds_per_km = ?, elevation_gain_meters = ?, heart_rate_avg = ?,
		 heart_rate_max = ?, notes = ?, weather = ?, terrain = ?, started_at = ?
		 WHERE id = ? AND user_id = ?`,
		r.RunType, r.DistanceMeters, r.DurationSeconds, r.PaceSecondsPerKm, r.ElevationGainMeters,
		r.HeartRateAvg, r.HeartRateMax, r.Notes, r.Weather, r.Terrain, r.StartedAt, id, userID)
	if err != nil {
		return nil, fmt.Errorf("updating run: %w", err)
	}
	if err := requireRow(res, "run", id); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteRun removes one of the user's runs.
func (s *Store) DeleteRun(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	return requireRow(res, "run", id)
}

func scanRun(row scanner) (*models.Run, error) {
	var r models.Run
	var terrain sql.NullString
	if err := row.Scan(&r.ID, &r.UserID, &r.RunType, &r.DistanceMeters, &r.DurationSeconds,
		&r.PaceSecondsPerKm, &r.ElevationGainMeters, &r.HeartRateAvg, &r.HeartRateMax,
		&r.Notes, &r.Weather, &terrain, &r.StartedAt, &r.CompletedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	if terrain.Valid {
		t := models.Terrain(terrain.String)
		r.Terrain = &t
	}
	return &r, nil
}
