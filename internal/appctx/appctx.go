// Package appctx carries the authenticated (user, session) pair through the
// request context.
package appctx

import (
	"context"

	"github.com/velolog/backend/internal/repository"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserKey is the context key for the authenticated user.
	UserKey ContextKey = "user"
	// SessionKey is the context key for the authenticated session.
	SessionKey ContextKey = "session"
)

// WithIdentity attaches the authenticated user and session to the context.
func WithIdentity(ctx context.Context, user *repository.User, session *repository.Session) context.Context {
	ctx = context.WithValue(ctx, UserKey, user)
	return context.WithValue(ctx, SessionKey, session)
}

// UserFrom extracts the authenticated user from the request context.
func UserFrom(ctx context.Context) (*repository.User, bool) {
	user, ok := ctx.Value(UserKey).(*repository.User)
	return user, ok
}

// SessionFrom extracts the authenticated session from the request context.
func SessionFrom(ctx context.Context) (*repository.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*repository.Session)
	return session, ok
}
