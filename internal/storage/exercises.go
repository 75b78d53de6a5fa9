package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meltforce/ironlog/internal/models"
)

// SearchLimit caps SearchExercises results.
const SearchLimit = 20

const exerciseColumns = `id, name, category, muscle_groups, equipment, description, created_at`

// ListExercises returns the whole catalog ordered by category, then name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

// SearchExercises matches q case-insensitively anywhere in the name.
func (db *DB) SearchExercises(ctx context.Context, q string) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises
		 WHERE name ILIKE '%' || $1 || '%'
		 ORDER BY name
		 LIMIT $2`, q, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching exercises: %w", err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

// GetExercise returns one catalog entry.
func (db *DB) GetExercise(ctx context.Context, id string) (*models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying exercise: %w", err)
	}
	defer rows.Close()

	list, err := scanExercises(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("exercise %s: %w", id, models.ErrNotFound)
	}
	return &list[0], nil
}

// CreateExercise inserts a catalog entry. The input is validated by the caller.
func (db *DB) CreateExercise(ctx context.Context, in models.ExerciseInput) (*models.Exercise, error) {
	groups := in.MuscleGroups
	if groups == nil {
		groups = []string{}
	}
	rows, err := db.Pool.Query(ctx,
		`INSERT INTO exercises (name, category, muscle_groups, equipment, description)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+exerciseColumns,
		in.Name, in.Category, groups, in.Equipment, in.Description)
	if err != nil {
		return nil, fmt.Errorf("inserting exercise: %w", err)
	}
	defer rows.Close()

	list, err := scanExercises(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("inserting exercise: no row returned")
	}
	return &list[0], nil
}

// foreignKeyViolation is the PostgreSQL SQLSTATE for a broken reference.
const foreignKeyViolation = "23503"

// DeleteExercise removes a catalog entry. An exercise logged in any workout
// yields models.ErrInUse.
func (db *DB) DeleteExercise(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("exercise %s: %w", id, models.ErrInUse)
		}
		return fmt.Errorf("deleting exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("exercise %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func scanExercises(rows pgx.Rows) ([]models.Exercise, error) {
	result := []models.Exercise{}
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.MuscleGroups,
			&e.Equipment, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
