package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/meltforce/ironlog/internal/models"
)

const templateColumns = `id, user_id, name, description, workout_type, is_system, created_at, updated_at`

// ListTemplates returns the user's own templates and all system templates,
// system first, then newest first.
func (s *Store) ListTemplates(ctx context.Context, userID string) ([]models.WorkoutTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM workout_templates
		 WHERE is_system = 1 OR user_id = ?
		 ORDER BY is_system DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	result := []models.WorkoutTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

// GetTemplate returns a template regardless of owner. Callers check visibility.
func (s *Store) GetTemplate(ctx context.Context, id string) (*models.WorkoutTemplate, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM workout_templates WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", id, notFound(err))
	}
	return t, nil
}

// ListTemplateExercises returns a template's exercises by order_index with
// the catalog entry joined.
func (s *Store) ListTemplateExercises(ctx context.Context, templateID string) ([]models.TemplateExercise, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT te.id, te.template_id, te.exercise_id, te.order_index, te.default_sets,
		 te.default_reps, te.default_weight, te.rest_seconds, te.notes, te.created_at,
		 `+exerciseColumns+`
		 FROM template_exercises te
		 JOIN exercises e ON e.id = te.exercise_id
		 WHERE te.template_id = ?
		 ORDER BY te.order_index ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("querying template exercises: %w", err)
	}
	defer rows.Close()

	result := []models.TemplateExercise{}
	for rows.Next() {
		var te models.TemplateExercise
		var e models.Exercise
		var muscles string
		if err := rows.Scan(&te.ID, &te.TemplateID, &te.ExerciseID, &te.OrderIndex, &te.DefaultSets,
			&te.DefaultReps, &te.DefaultWeight, &te.RestSeconds, &te.Notes, &te.CreatedAt,
			&e.ID, &e.Name, &e.Category, &muscles, &e.Equipment, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template exercise: %w", err)
		}
		if err := json.Unmarshal([]byte(muscles), &e.MuscleGroups); err != nil {
			return nil, fmt.Errorf("decoding muscle groups: %w", err)
		}
		te.Exercise = &e
		result = append(result, te)
	}
	return result, rows.Err()
}

// GetTemplateDetail returns a template visible to userID with its exercises.
func (s *Store) GetTemplateDetail(ctx context.Context, userID, id string) (*models.TemplateDetail, error) {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.VisibleTo(userID) {
		return nil, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	exercises, err := s.ListTemplateExercises(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TemplateDetail{WorkoutTemplate: *t, Exercises: exercises}, nil
}

// CreateTemplate inserts a lifting template owned by userID.
func (s *Store) CreateTemplate(ctx context.Context, userID string, in models.TemplateInput) (*models.WorkoutTemplate, error) {
	now := s.now()
	owner := userID
	t := models.WorkoutTemplate{
		ID:          newID(),
		UserID:      &owner,
		Name:        in.Name,
		Description: in.Description,
		WorkoutType: models.WorkoutTypeLifting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workout_templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		t.ID, userID, t.Name, t.Description, t.WorkoutType, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting template: %w", err)
	}
	return &t, nil
}

// UpdateTemplate renames or re-describes a template owned by userID.
func (s *Store) UpdateTemplate(ctx context.Context, userID, id string, u models.TemplateUpdate) (*models.WorkoutTemplate, error) {
	t, err := s.ownedTemplate(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	u.Apply(t)
	t.UpdatedAt = s.now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE workout_templates SET name = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Name, t.Description, t.UpdatedAt, id, userID)
	if err != nil {
		return nil, fmt.Errorf("updating template: %w", err)
	}
	if err := requireRow(res, "template", id); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTemplate removes a template owned by userID and its exercises.
func (s *Store) DeleteTemplate(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM workout_templates WHERE id = ? AND user_id = ? AND is_system = 0`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	return requireRow(res, "template", id)
}

// AddTemplateExercise appends an exercise to a template owned by userID.
func (s *Store) AddTemplateExercise(ctx context.Context, userID, templateID string, in models.TemplateExerciseInput) (*models.TemplateExercise, error) {
	if _, err := s.ownedTemplate(ctx, userID, templateID); err != nil {
		return nil, err
	}
	if _, err := s.GetExercise(ctx, in.ExerciseID); err != nil {
		return nil, err
	}

	te := in.Resolve(templateID)
	te.ID = newID()
	te.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO template_exercises (id, template_id, exercise_id, order_index, default_sets,
		 default_reps, default_weight, rest_seconds, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		te.ID, te.TemplateID, te.ExerciseID, te.OrderIndex, te.DefaultSets,
		te.DefaultReps, te.DefaultWeight, te.RestSeconds, te.Notes, te.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting template exercise: %w", err)
	}
	return &te, nil
}

// RemoveTemplateExercise deletes one exercise from a template owned by userID.
func (s *Store) RemoveTemplateExercise(ctx context.Context, userID, templateID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM template_exercises
		 WHERE id = ? AND template_id = ?
		   AND template_id IN (SELECT id FROM workout_templates WHERE user_id = ?)`,
		id, templateID, userID)
	if err != nil {
		return fmt.Errorf("deleting template exercise: %w", err)
	}
	return requireRow(res, "template exercise", id)
}

func (s *Store) ownedTemplate(ctx context.Context, userID, id string) (*models.WorkoutTemplate, error) {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.OwnedBy(userID) {
		return nil, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	return t, nil
}

func scanTemplate(row scanner) (*models.WorkoutTemplate, error) {
	var t models.WorkoutTemplate
	var userID sql.NullString
	if err := row.Scan(&t.ID, &userID, &t.Name, &t.Description, &t.WorkoutType,
		&t.IsSystem, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		t.UserID = &userID.String
	}
	return &t, nil
}
