package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/dbtime"
)

// UserRepository handles user rows.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns the non-deleted user with the given id.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*User, error) {
	var raw userRaw
	err := r.db.GetContext(ctx, &raw,
		`SELECT * FROM users WHERE id = ? AND deleted_at IS NULL`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no user found with id %d", userID)
		}
		return nil, apperr.Database(err)
	}

	model, err := raw.model()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return model, nil
}

// GetByUsername returns the non-deleted user with the given username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var raw userRaw
	err := r.db.GetContext(ctx, &raw,
		`SELECT * FROM users WHERE username = ? AND deleted_at IS NULL`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no user found with username %s", username)
		}
		return nil, apperr.Database(err)
	}

	model, err := raw.model()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return model, nil
}

// TryGetByUsername returns the non-deleted user with the given username, or
// nil when there is none.
func (r *UserRepository) TryGetByUsername(ctx context.Context, username string) (*User, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// isUniqueViolation reports whether err is a unique-index constraint
// failure. The handlers check usernames up front, but the index is the
// authority under concurrent signups.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Create inserts a new user and returns the stored model.
func (r *UserRepository) Create(ctx context.Context, partial *UserPartial) (*User, error) {
	now := time.Now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, monthly_goal, created_at) VALUES (?, ?, ?)`,
		partial.Username, partial.MonthlyGoal, dbtime.FormatDateTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("username already exists")
		}
		return nil, apperr.Database(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperr.Database(err)
	}

	return &User{
		ID:          id,
		Username:    partial.Username,
		MonthlyGoal: partial.MonthlyGoal,
		CreatedAt:   now,
	}, nil
}

// Update modifies a non-deleted user, failing with NotFound when no row was
// affected.
func (r *UserRepository) Update(ctx context.Context, userID int64, partial *UserPartial) (*User, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, monthly_goal = ? WHERE id = ? AND deleted_at IS NULL`,
		partial.Username, partial.MonthlyGoal, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("username already exists")
		}
		return nil, apperr.Database(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperr.Database(err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("no user found with id %d", userID)
	}

	return r.GetByID(ctx, userID)
}

// Delete soft-deletes a user, failing with NotFound when no row was
// affected.
func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	now := dbtime.FormatDateTime(time.Now().UTC())
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, userID)
	if err != nil {
		return apperr.Database(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperr.Database(err)
	}
	if affected == 0 {
		return apperr.NotFound("no user found with id %d", userID)
	}
	return nil
}
