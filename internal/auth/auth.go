// Package auth resolves the caller of an HTTP request to an ironlog user.
// An Identifier names the caller (dev login, JWT subject or Tailscale login),
// and Middleware maps that name to a user row and stores it in the context.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/session"
)

// ErrUnauthenticated is returned by an Identifier that cannot name the caller.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the caller as named by an Identifier.
type Identity struct {
	Login       string
	DisplayName string
}

// Identifier names the caller of a request.
type Identifier interface {
	Identify(r *http.Request) (Identity, error)
}

// IdentifierFunc adapts a function to Identifier.
type IdentifierFunc func(r *http.Request) (Identity, error)

func (f IdentifierFunc) Identify(r *http.Request) (Identity, error) { return f(r) }

// UserStore creates users on first sight.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (*models.User, error)
}

type contextKey int

const userKey contextKey = iota

// WithUser stores u in ctx together with its id for the session package.
func WithUser(ctx context.Context, u models.User) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return session.WithUserID(ctx, u.ID)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// Dev names every caller as login. Only for local development.
func Dev(login string) Identifier {
	return IdentifierFunc(func(*http.Request) (Identity, error) {
		return Identity{Login: login, DisplayName: "Local Dev User"}, nil
	})
}

// Middleware identifies the caller, resolves the user row and stores it in
// the request context. Unidentified callers get 401.
func Middleware(id Identifier, users UserStore, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, err := id.Identify(r)
			if err != nil {
				log.Debug("identify failed", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			u, err := users.GetOrCreateUser(r.Context(), who.Login, who.DisplayName)
			if err != nil {
				log.Error("resolve user", "login", who.Login, "error", err)
				writeError(w, http.StatusInternalServerError, "resolve user failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), *u)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
