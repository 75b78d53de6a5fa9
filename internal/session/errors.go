package session

import (
	"context"
	"errors"
)

// ErrNotAuthenticated is returned before any mutation when the context
// carries no user identity.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrPrecondition matches every precondition violation below via errors.Is.
var ErrPrecondition = errors.New("precondition violated")

var (
	ErrNoActiveSession        = preconditionError("no active workout")
	ErrSessionInProgress      = preconditionError("a workout is already in progress")
	ErrMultipleActiveSessions = preconditionError("more than one workout in progress")
	ErrUnknownExercise        = preconditionError("exercise is not part of the active workout")
	ErrUnknownSet             = preconditionError("set is not part of the exercise")
)

type precondition struct{ msg string }

func preconditionError(msg string) error { return &precondition{msg: msg} }

func (e *precondition) Error() string { return e.msg }

func (e *precondition) Is(target error) bool { return target == ErrPrecondition }

type contextKey int

const userIDKey contextKey = iota

// WithUserID returns a context carrying the authenticated user's id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user id stored by WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func requireUser(ctx context.Context) (string, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return "", ErrNotAuthenticated
	}
	return uid, nil
}
