// Package sqlitestore is a single-file SQLite data store for local,
// single-node use. It implements the same operations as the PostgreSQL
// store with identifiers generated in process.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/session"
)

// Compile-time check: *Store backs the workout session lifecycle.
var _ session.Backend = (*Store)(nil)

// Store is a SQLite-backed data store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var schema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		login        TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL,
		last_seen    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS exercises (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		category      TEXT NOT NULL,
		muscle_groups TEXT NOT NULL DEFAULT '[]',
		equipment     TEXT,
		description   TEXT,
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workout_templates (
		id           TEXT PRIMARY KEY,
		user_id      TEXT,
		name         TEXT NOT NULL,
		description  TEXT,
		workout_type TEXT NOT NULL DEFAULT 'lifting',
		is_system    INTEGER NOT NULL DEFAULT 0,
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS template_exercises (
		id             TEXT PRIMARY KEY,
		template_id    TEXT NOT NULL REFERENCES workout_templates (id) ON DELETE CASCADE,
		exercise_id    TEXT NOT NULL REFERENCES exercises (id) ON DELETE CASCADE,
		order_index    INTEGER NOT NULL,
		default_sets   INTEGER NOT NULL,
		default_reps   INTEGER NOT NULL,
		default_weight REAL,
		rest_seconds   INTEGER NOT NULL,
		notes          TEXT,
		created_at     DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workouts (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		template_id  TEXT REFERENCES workout_templates (id) ON DELETE SET NULL,
		workout_type TEXT NOT NULL,
		name         TEXT NOT NULL,
		status       TEXT NOT NULL,
		started_at   DATETIME NOT NULL,
		completed_at DATETIME,
		notes        TEXT,
		total_volume REAL NOT NULL DEFAULT 0,
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workouts_user_status ON workouts (user_id, status, completed_at)`,
	`CREATE TABLE IF NOT EXISTS workout_exercises (
		id          TEXT PRIMARY KEY,
		workout_id  TEXT NOT NULL REFERENCES workouts (id) ON DELETE CASCADE,
		exercise_id TEXT NOT NULL REFERENCES exercises (id),
		order_index INTEGER NOT NULL,
		notes       TEXT,
		created_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workout_sets (
		id                  TEXT PRIMARY KEY,
		workout_exercise_id TEXT NOT NULL REFERENCES workout_exercises (id) ON DELETE CASCADE,
		set_number          INTEGER NOT NULL,
		target_weight       REAL,
		target_reps         INTEGER,
		actual_weight       REAL,
		actual_reps         INTEGER,
		is_completed        INTEGER NOT NULL DEFAULT 0,
		is_warmup           INTEGER NOT NULL DEFAULT 0,
		rpe                 REAL,
		notes               TEXT,
		completed_at        DATETIME,
		created_at          DATETIME NOT NULL,
		UNIQUE (workout_exercise_id, set_number)
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id                    TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL,
		run_type              TEXT NOT NULL,
		distance_meters       REAL NOT NULL,
		duration_seconds      INTEGER NOT NULL,
		pace_seconds_per_km   REAL,
		elevation_gain_meters REAL,
		heart_rate_avg        INTEGER,
		heart_rate_max        INTEGER,
		notes                 TEXT,
		weather               TEXT,
		terrain               TEXT,
		started_at            DATETIME NOT NULL,
		completed_at          DATETIME,
		created_at            DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_user_started ON runs (user_id, started_at)`,
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.seed(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func newID() string { return uuid.NewString() }

// notFound maps sql.ErrNoRows to models.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

func requireRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, models.ErrNotFound)
	}
	return nil
}
