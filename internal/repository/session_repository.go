package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/dbtime"
)

// SessionRepository handles session rows.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a session built by the auth service.
func (r *SessionRepository) Create(ctx context.Context, session *Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token, user_id, user_agent, created_at, last_used_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID.String(),
		session.Token,
		session.UserID,
		session.UserAgent,
		dbtime.FormatDateTime(session.CreatedAt),
		dbtime.FormatDateTime(session.LastUsedAt),
	)
	if err != nil {
		return apperr.Database(err)
	}
	return nil
}

// GetByToken looks a session up by its bearer token.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	var raw sessionRaw
	err := r.db.GetContext(ctx, &raw,
		`SELECT * FROM sessions WHERE token = ?`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no session found for token")
		}
		return nil, apperr.Database(err)
	}

	model, err := raw.model()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return model, nil
}

// Touch advances last_used_at for the sliding expiration window. Concurrent
// touches race last-write-wins; that only moves the expiry deadline.
func (r *SessionRepository) Touch(ctx context.Context, token string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_used_at = ? WHERE token = ?`,
		dbtime.FormatDateTime(at), token)
	if err != nil {
		return apperr.Database(err)
	}
	return nil
}

// Revoke sets revoked_at on the user's session. The user id in the WHERE
// clause enforces ownership; revoking an already revoked session is a no-op,
// revoking a foreign or unknown session is NotFound.
func (r *SessionRepository) Revoke(ctx context.Context, userID int64, sessionID uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND user_id = ? AND revoked_at IS NULL`,
		dbtime.FormatDateTime(at), sessionID.String(), userID)
	if err != nil {
		return apperr.Database(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperr.Database(err)
	}
	if affected == 0 {
		// Idempotency: a session that exists for this user but is already
		// revoked is not an error.
		var count int
		err := r.db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM sessions WHERE id = ? AND user_id = ?`,
			sessionID.String(), userID)
		if err != nil {
			return apperr.Database(err)
		}
		if count == 0 {
			return apperr.NotFound("no session found with id %s", sessionID)
		}
	}
	return nil
}

// ListForUser returns all of a user's sessions, newest first.
func (r *SessionRepository) ListForUser(ctx context.Context, userID int64) ([]*Session, error) {
	var raws []sessionRaw
	err := r.db.SelectContext(ctx, &raws,
		`SELECT * FROM sessions WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, apperr.Database(err)
	}

	sessions := make([]*Session, 0, len(raws))
	for _, raw := range raws {
		model, err := raw.model()
		if err != nil {
			return nil, apperr.Internal(err)
		}
		sessions = append(sessions, model)
	}
	return sessions, nil
}
