package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/dbtime"
)

// BikeRepository handles bike rows.
type BikeRepository struct {
	db *sqlx.DB
}

// NewBikeRepository creates a new BikeRepository instance.
func NewBikeRepository(db *sqlx.DB) *BikeRepository {
	return &BikeRepository{db: db}
}

// AssertOwner fails with NotFound when the bike does not exist (or is
// deleted) and with Forbidden when it exists but belongs to another user.
// The two cases stay distinct: a 403 for a foreign bike, never a 404 that
// the caller could probe around.
func (r *BikeRepository) AssertOwner(ctx context.Context, bikeID, userID int64) error {
	var ownerID int64
	err := r.db.GetContext(ctx, &ownerID,
		`SELECT owner_id FROM bikes WHERE id = ? AND deleted_at IS NULL`, bikeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("no bike found with id %d", bikeID)
		}
		return apperr.Database(err)
	}

	if ownerID != userID {
		return apperr.Forbidden()
	}
	return nil
}

// GetAll returns the owner's non-deleted bikes.
func (r *BikeRepository) GetAll(ctx context.Context, ownerID int64) ([]*Bike, error) {
	var raws []bikeRaw
	err := r.db.SelectContext(ctx, &raws,
		`SELECT * FROM bikes WHERE owner_id = ? AND deleted_at IS NULL ORDER BY id`, ownerID)
	if err != nil {
		return nil, apperr.Database(err)
	}
	return bikeModels(raws)
}

// GetOne returns a non-deleted bike by id.
func (r *BikeRepository) GetOne(ctx context.Context, bikeID int64) (*Bike, error) {
	var raw bikeRaw
	err := r.db.GetContext(ctx, &raw,
		`SELECT * FROM bikes WHERE id = ? AND deleted_at IS NULL`, bikeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no bike found with id %d", bikeID)
		}
		return nil, apperr.Database(err)
	}

	model, err := raw.model()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return model, nil
}

// GetByStravaGear returns the owner's non-deleted bikes mapped to the given
// Strava gear id.
func (r *BikeRepository) GetByStravaGear(ctx context.Context, ownerID int64, stravaGear string) ([]*Bike, error) {
	var raws []bikeRaw
	err := r.db.SelectContext(ctx, &raws,
		`SELECT * FROM bikes WHERE owner_id = ? AND strava_gear = ? AND deleted_at IS NULL ORDER BY id`,
		ownerID, stravaGear)
	if err != nil {
		return nil, apperr.Database(err)
	}
	return bikeModels(raws)
}

// Create inserts a new bike for the owner.
func (r *BikeRepository) Create(ctx context.Context, ownerID int64, partial *BikePartial) (*Bike, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO bikes (name, description, color, strava_gear, owner_id) VALUES (?, ?, ?, ?, ?)`,
		partial.Name, partial.Description, partial.Color, partial.StravaGear, ownerID)
	if err != nil {
		return nil, apperr.Database(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperr.Database(err)
	}

	return &Bike{
		ID:          id,
		Name:        partial.Name,
		Description: partial.Description,
		Color:       partial.Color,
		StravaGear:  partial.StravaGear,
		OwnerID:     ownerID,
	}, nil
}

// Update modifies a non-deleted bike, failing with NotFound when no row was
// affected.
func (r *BikeRepository) Update(ctx context.Context, bikeID int64, partial *BikePartial) (*Bike, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bikes SET name = ?, description = ?, color = ?, strava_gear = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		partial.Name, partial.Description, partial.Color, partial.StravaGear, bikeID)
	if err != nil {
		return nil, apperr.Database(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperr.Database(err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("no bike found with id %d", bikeID)
	}

	return r.GetOne(ctx, bikeID)
}

// Delete soft-deletes a bike, failing with NotFound when no row was
// affected.
func (r *BikeRepository) Delete(ctx context.Context, bikeID int64) error {
	now := dbtime.FormatDateTime(time.Now().UTC())
	result, err := r.db.ExecContext(ctx,
		`UPDATE bikes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, bikeID)
	if err != nil {
		return apperr.Database(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperr.Database(err)
	}
	if affected == 0 {
		return apperr.NotFound("no bike found with id %d", bikeID)
	}
	return nil
}

func bikeModels(raws []bikeRaw) ([]*Bike, error) {
	bikes := make([]*Bike, 0, len(raws))
	for _, raw := range raws {
		model, err := raw.model()
		if err != nil {
			return nil, apperr.Internal(err)
		}
		bikes = append(bikes, model)
	}
	return bikes, nil
}
