package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/ironlog/internal/models"
)

const templateColumns = `id, user_id, name, description, workout_type, is_system, created_at, updated_at`

// ListTemplates returns the user's own templates and all system templates,
// system first, then newest first.
func (db *DB) ListTemplates(ctx context.Context, userID string) ([]models.WorkoutTemplate, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+templateColumns+` FROM workout_templates
		 WHERE is_system OR user_id = $1
		 ORDER BY is_system DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()
	return scanTemplates(rows)
}

// GetTemplate returns a template regardless of owner. Callers check visibility.
func (db *DB) GetTemplate(ctx context.Context, id string) (*models.WorkoutTemplate, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+templateColumns+` FROM workout_templates WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying template: %w", err)
	}
	defer rows.Close()

	list, err := scanTemplates(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	return &list[0], nil
}

// ListTemplateExercises returns a template's exercises by order_index with
// the catalog entry joined.
func (db *DB) ListTemplateExercises(ctx context.Context, templateID string) ([]models.TemplateExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT te.id, te.template_id, te.exercise_id, te.order_index, te.default_sets,
		 te.default_reps, te.default_weight, te.rest_seconds, te.notes, te.created_at,
		 e.id, e.name, e.category, e.muscle_groups, e.equipment, e.description, e.created_at
		 FROM template_exercises te
		 JOIN exercises e ON e.id = te.exercise_id
		 WHERE te.template_id = $1
		 ORDER BY te.order_index ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("querying template exercises: %w", err)
	}
	defer rows.Close()

	result := []models.TemplateExercise{}
	for rows.Next() {
		var te models.TemplateExercise
		var e models.Exercise
		if err := rows.Scan(&te.ID, &te.TemplateID, &te.ExerciseID, &te.OrderIndex, &te.DefaultSets,
			&te.DefaultReps, &te.DefaultWeight, &te.RestSeconds, &te.Notes, &te.CreatedAt,
			&e.ID, &e.Name, &e.Category, &e.MuscleGroups, &e.Equipment, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template exercise: %w", err)
		}
		te.Exercise = &e
		result = append(result, te)
	}
	return result, rows.Err()
}

// GetTemplateDetail returns a template visible to userID with its exercises.
func (db *DB) GetTemplateDetail(ctx context.Context, userID, id string) (*models.TemplateDetail, error) {
	t, err := db.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.VisibleTo(userID) {
		return nil, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	exercises, err := db.ListTemplateExercises(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TemplateDetail{WorkoutTemplate: *t, Exercises: exercises}, nil
}

// CreateTemplate inserts a lifting template owned by userID.
func (db *DB) CreateTemplate(ctx context.Context, userID string, in models.TemplateInput) (*models.WorkoutTemplate, error) {
	rows, err := db.Pool.Query(ctx,
		`INSERT INTO workout_templates (user_id, name, description, workout_type, is_system)
		 VALUES ($1, $2, $3, $4, FALSE)
		 RETURNING `+templateColumns,
		userID, in.Name, in.Description, models.WorkoutTypeLifting)
	if err != nil {
		return nil, fmt.Errorf("inserting template: %w", err)
	}
	defer rows.Close()

	list, err := scanTemplates(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("inserting template: no row returned")
	}
	return &list[0], nil
}

// UpdateTemplate renames or re-describes a template owned by userID.
func (db *DB) UpdateTemplate(ctx context.Context, userID, id string, u models.TemplateUpdate) (*models.WorkoutTemplate, error) {
	t, err := db.ownedTemplate(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	u.Apply(t)

	err = db.Pool.QueryRow(ctx,
		`UPDATE workout_templates SET name = $1, description = $2, updated_at = NOW()
		 WHERE id = $3 AND user_id = $4
		 RETURNING updated_at`,
		t.Name, t.Description, id, userID).Scan(&t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updating template: %w", notFound(err))
	}
	return t, nil
}

// DeleteTemplate removes a template owned by userID and its exercises.
func (db *DB) DeleteTemplate(ctx context.Context, userID, id string) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_templates WHERE id = $1 AND user_id = $2 AND NOT is_system`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// AddTemplateExercise appends an exercise to a template owned by userID.
func (db *DB) AddTemplateExercise(ctx context.Context, userID, templateID string, in models.TemplateExerciseInput) (*models.TemplateExercise, error) {
	if _, err := db.ownedTemplate(ctx, userID, templateID); err != nil {
		return nil, err
	}
	if _, err := db.GetExercise(ctx, in.ExerciseID); err != nil {
		return nil, err
	}
	te := in.Resolve(templateID)

	err := db.Pool.QueryRow(ctx,
		`INSERT INTO template_exercises (template_id, exercise_id, order_index, default_sets,
		 default_reps, default_weight, rest_seconds, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		te.TemplateID, te.ExerciseID, te.OrderIndex, te.DefaultSets,
		te.DefaultReps, te.DefaultWeight, te.RestSeconds, te.Notes).Scan(&te.ID, &te.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting template exercise: %w", err)
	}
	return &te, nil
}

// RemoveTemplateExercise deletes one exercise from a template owned by userID.
func (db *DB) RemoveTemplateExercise(ctx context.Context, userID, templateID, id string) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM template_exercises te
		 USING workout_templates t
		 WHERE te.id = $1 AND te.template_id = $2
		   AND t.id = te.template_id AND t.user_id = $3`,
		id, templateID, userID)
	if err != nil {
		return fmt.Errorf("deleting template exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("template exercise %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (db *DB) ownedTemplate(ctx context.Context, userID, id string) (*models.WorkoutTemplate, error) {
	t, err := db.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.OwnedBy(userID) {
		return nil, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	return t, nil
}

func scanTemplates(rows pgx.Rows) ([]models.WorkoutTemplate, error) {
	result := []models.WorkoutTemplate{}
	for rows.Next() {
		var t models.WorkoutTemplate
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.WorkoutType,
			&t.IsSystem, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
