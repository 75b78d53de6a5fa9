package sqlitestore

import (
	"context"
	"fmt"

	"github.com/meltforce/ironlog/internal/models"
)

// GetOrCreateUser finds or creates a user by login name.
// Updates last_seen and display_name on each call.
func (s *Store) GetOrCreateUser(ctx context.Context, login, displayName string) (*models.User, error) {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, login, display_name, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = excluded.last_seen,
			    display_name = COALESCE(NULLIF(excluded.display_name, ''), users.display_name)
	`, newID(), login, displayName, now, now)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	var u models.User
	err = s.db.QueryRowContext(ctx,
		`SELECT id, login, display_name FROM users WHERE login = ?`, login,
	).Scan(&u.ID, &u.Login, &u.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, login, display_name FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Login, &u.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", notFound(err))
	}
	return &u, nil
}
