package storage

import (
	"context"
	"fmt"

	"github.com/meltforce/ironlog/internal/models"
)

// GetOrCreateUser finds or creates a user by login name.
// Updates last_seen and display_name on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (*models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id, login, display_name
	`, login, displayName).Scan(&u.ID, &u.Login, &u.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	return &u, nil
}

// GetUser returns a user by id.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx,
		`SELECT id, login, display_name FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Login, &u.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", notFound(err))
	}
	return &u, nil
}
