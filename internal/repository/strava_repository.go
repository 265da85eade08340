package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/dbtime"
)

// StravaRepository handles Strava link rows, one per user.
type StravaRepository struct {
	db *sqlx.DB
}

// NewStravaRepository creates a new StravaRepository instance.
func NewStravaRepository(db *sqlx.DB) *StravaRepository {
	return &StravaRepository{db: db}
}

// TryGet returns the user's link, or nil when the account is not linked.
func (r *StravaRepository) TryGet(ctx context.Context, userID int64) (*StravaLink, error) {
	var raw stravaRaw
	err := r.db.GetContext(ctx, &raw,
		`SELECT * FROM strava WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Database(err)
	}

	model, err := raw.model()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return model, nil
}

// Create inserts a new link after a completed OAuth handshake.
func (r *StravaRepository) Create(ctx context.Context, link *StravaLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO strava (user_id, strava_id, strava_name, last_sync, access_token, refresh_token, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		link.UserID,
		link.StravaID,
		link.StravaName,
		dbtime.FormatDateTime(link.LastSync),
		link.AccessToken,
		link.RefreshToken,
		dbtime.FormatDateTime(link.ExpiresAt),
	)
	if err != nil {
		return apperr.Database(err)
	}
	return nil
}

// Update persists refreshed tokens and the sync watermark.
func (r *StravaRepository) Update(ctx context.Context, link *StravaLink) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE strava SET last_sync = ?, access_token = ?, refresh_token = ?, expires_at = ?
		 WHERE user_id = ?`,
		dbtime.FormatDateTime(link.LastSync),
		link.AccessToken,
		link.RefreshToken,
		dbtime.FormatDateTime(link.ExpiresAt),
		link.UserID,
	)
	if err != nil {
		return apperr.Database(err)
	}
	return nil
}

// Delete unlinks the user's account.
func (r *StravaRepository) Delete(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM strava WHERE user_id = ?`, userID)
	if err != nil {
		return apperr.Database(err)
	}
	return nil
}
