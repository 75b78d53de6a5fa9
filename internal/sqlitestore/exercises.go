package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/meltforce/ironlog/internal/models"
)

// SearchLimit caps SearchExercises results.
const SearchLimit = 20

const exerciseColumns = `e.id, e.name, e.category, e.muscle_groups, e.equipment, e.description, e.created_at`

type scanner interface {
	Scan(dest ...any) error
}

// ListExercises returns the whole catalog ordered by category, then name.
func (s *Store) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises e ORDER BY e.category, e.name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

// SearchExercises matches q case-insensitively anywhere in the name.
func (s *Store) SearchExercises(ctx context.Context, q string) ([]models.Exercise, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises e
		 WHERE lower(e.name) LIKE '%' || lower(?) || '%'
		 ORDER BY e.name
		 LIMIT ?`, q, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching exercises: %w", err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

// GetExercise returns one catalog entry.
func (s *Store) GetExercise(ctx context.Context, id string) (*models.Exercise, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises e WHERE e.id = ?`, id)
	e, err := scanExercise(row)
	if err != nil {
		return nil, fmt.Errorf("exercise %s: %w", id, notFound(err))
	}
	return e, nil
}

// CreateExercise inserts a catalog entry. The input is validated by the caller.
func (s *Store) CreateExercise(ctx context.Context, in models.ExerciseInput) (*models.Exercise, error) {
	groups := in.MuscleGroups
	if groups == nil {
		groups = []string{}
	}
	muscles, err := json.Marshal(groups)
	if err != nil {
		return nil, fmt.Errorf("encoding muscle groups: %w", err)
	}

	e := models.Exercise{
		ID:           newID(),
		Name:         in.Name,
		Category:     in.Category,
		MuscleGroups: groups,
		Equipment:    in.Equipment,
		Description:  in.Description,
		CreatedAt:    s.now(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exercises (id, name, category, muscle_groups, equipment, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Category, string(muscles), e.Equipment, e.Description, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting exercise: %w", err)
	}
	return &e, nil
}

// DeleteExercise removes a catalog entry. An exercise logged in any workout
// yields models.ErrInUse.
func (s *Store) DeleteExercise(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return fmt.Errorf("exercise %s: %w", id, models.ErrInUse)
		}
		return fmt.Errorf("deleting exercise: %w", err)
	}
	return requireRow(res, "exercise", id)
}

func scanExercise(row scanner) (*models.Exercise, error) {
	var e models.Exercise
	var muscles string
	if err := row.Scan(&e.ID, &e.Name, &e.Category, &muscles, &e.Equipment, &e.Description, &e.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(muscles), &e.MuscleGroups); err != nil {
		return nil, fmt.Errorf("decoding muscle groups: %w", err)
	}
	return &e, nil
}

func scanExercises(rows *sql.Rows) ([]models.Exercise, error) {
	result := []models.Exercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}
