// Package auth implements session issuance, authentication, and revocation.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/repository"
)

// tokenBytes is the entropy of a session token: 64 random bytes, hex-encoded
// to 128 characters. Collisions are not a practical concern at 512 bits.
const tokenBytes = 64

// Service manages the session lifecycle.
type Service struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository

	// maxInactivity is the sliding-expiry window; a session is rejected
	// once now - last_used_at exceeds it.
	maxInactivity time.Duration

	now func() time.Time
}

// NewService creates an auth Service.
func NewService(users *repository.UserRepository, sessions *repository.SessionRepository, maxInactivity time.Duration) *Service {
	return &Service{
		users:         users,
		sessions:      sessions,
		maxInactivity: maxInactivity,
		now:           time.Now,
	}
}

// Login resolves the username and issues a new session. There is no
// password; possession of the returned token is the credential.
func (s *Service) Login(ctx context.Context, username, userAgent string) (*repository.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now().UTC().Truncate(time.Second)
	session := &repository.Session{
		ID:         uuid.New(),
		Token:      token,
		UserID:     user.ID,
		UserAgent:  userAgent,
		CreatedAt:  now,
		LastUsedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Authenticate resolves a bearer token into its (user, session) pair. Any
// failure along the way is Unauthenticated; the caller learns nothing about
// why a token was rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*repository.User, *repository.Session, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, nil, apperr.Unauthenticated()
		}
		return nil, nil, err
	}

	now := s.now().UTC()
	if now.Sub(session.LastUsedAt) > s.maxInactivity {
		return nil, nil, apperr.Unauthenticated()
	}
	if session.RevokedAt != nil && now.After(*session.RevokedAt) {
		return nil, nil, apperr.Unauthenticated()
	}

	// Sliding expiration: each successful use extends the window.
	touched := now.Truncate(time.Second)
	if err := s.sessions.Touch(ctx, session.Token, touched); err != nil {
		return nil, nil, err
	}
	session.LastUsedAt = touched

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, nil, apperr.Unauthenticated()
		}
		return nil, nil, err
	}

	return user, session, nil
}

// Revoke marks one of the user's sessions as revoked. Revoking twice is
// harmless.
func (s *Service) Revoke(ctx context.Context, userID int64, sessionID uuid.UUID) error {
	return s.sessions.Revoke(ctx, userID, sessionID, s.now().UTC())
}

// Sessions lists all of the user's sessions.
func (s *Service) Sessions(ctx context.Context, userID int64) ([]*repository.Session, error) {
	return s.sessions.ListForUser(ctx, userID)
}

// newToken draws a session token from a cryptographically secure source.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
