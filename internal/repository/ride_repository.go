package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/dbtime"
)

// RideRepository handles ride rows.
type RideRepository struct {
	db *sqlx.DB
}

// NewRideRepository creates a new RideRepository instance.
func NewRideRepository(db *sqlx.DB) *RideRepository {
	return &RideRepository{db: db}
}

// GetAll returns every non-deleted ride, newest first.
func (r *RideRepository) GetAll(ctx context.Context) ([]*Ride, error) {
	var raws []rideRaw
	err := r.db.SelectContext(ctx, &raws,
		`SELECT * FROM rides WHERE deleted_at IS NULL ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, apperr.Database(err)
	}
	return rideModels(raws)
}

// GetAllForBike returns a bike's non-deleted rides, newest first.
func (r *RideRepository) GetAllForBike(ctx context.Context, bikeID int64) ([]*Ride, error) {
	var raws []rideRaw
	err := r.db.SelectContext(ctx, &raws,
		`SELECT * FROM rides WHERE deleted_at IS NULL AND bike_id = ? ORDER BY date DESC, id DESC`,
		bikeID)
	if err != nil {
		return nil, apperr.Database(err)
	}
	return rideModels(raws)
}

// GetAllForBikeWithDatePrefix filters a bike's rides by a date prefix such
// as "2024-" or "2024-05-".
func (r *RideRepository) GetAllForBikeWithDatePrefix(ctx context.Context, bikeID int64, prefix string) ([]*Ride, error) {
	var raws []rideRaw
	err := r.db.SelectContext(ctx, &raws,
		`SELECT * FROM rides WHERE deleted_at IS NULL AND bike_id = ? AND date LIKE ?
		 ORDER BY date DESC, id DESC`,
		bikeID, prefix+"%")
	if err != nil {
		return nil, apperr.Database(err)
	}
	return rideModels(raws)
}

// GetOne returns a non-deleted ride by id.
func (r *RideRepository) GetOne(ctx context.Context, rideID int64) (*Ride, error) {
	var raw rideRaw
	err := r.db.GetContext(ctx, &raw,
		`SELECT * FROM rides WHERE id = ? AND deleted_at IS NULL`, rideID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no ride found with id %d", rideID)
		}
		return nil, apperr.Database(err)
	}

	model, err := raw.model()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return model, nil
}

// TryGetByStravaRide looks up a ride on a bike by its external activity id.
// The Strava sync passes includeDeleted=true so a delete/re-sync cycle does
// not re-import the activity; everything else must not see deleted rows.
// Returns nil when there is no match.
func (r *RideRepository) TryGetByStravaRide(ctx context.Context, bikeID, stravaRide int64, includeDeleted bool) (*Ride, error) {
	query := `SELECT * FROM rides WHERE bike_id = ? AND strava_ride = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}

	var raw rideRaw
	err := r.db.GetContext(ctx, &raw, query, bikeID, stravaRide)
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

// Create inserts a new ride against a bike.
func (r *RideRepository) Create(ctx context.Context, bikeID int64, partial *RidePartial) (*Ride, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO rides (date, distance, description, bike_id, strava_ride) VALUES (?, ?, ?, ?, ?)`,
		dbtime.FormatDate(partial.Date.Time), partial.Distance, partial.Description, bikeID, partial.StravaRide)
	if err != nil {
		return nil, apperr.Database(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperr.Database(err)
	}

	return &Ride{
		ID:          id,
		Date:        partial.Date,
		Distance:    partial.Distance,
		Description: partial.Description,
		BikeID:      bikeID,
		StravaRide:  partial.StravaRide,
	}, nil
}

// Update modifies a non-deleted ride, failing with NotFound when no row was
// affected.
func (r *RideRepository) Update(ctx context.Context, rideID int64, partial *RidePartial) (*Ride, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rides SET date = ?, distance = ?, description = ? WHERE id = ? AND deleted_at IS NULL`,
		dbtime.FormatDate(partial.Date.Time), partial.Distance, partial.Description, rideID)
	if err != nil {
		return nil, apperr.Database(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperr.Database(err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("no ride found with id %d", rideID)
	}

	return r.GetOne(ctx, rideID)
}

// Delete soft-deletes a ride, failing with NotFound when no row was
// affected.
func (r *RideRepository) Delete(ctx context.Context, rideID int64) error {
	now := dbtime.FormatDateTime(time.Now().UTC())
	result, err := r.db.ExecContext(ctx,
		`UPDATE rides SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, rideID)
	if err != nil {
		return apperr.Database(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperr.Database(err)
	}
	if affected == 0 {
		return apperr.NotFound("no ride found with id %d", rideID)
	}
	return nil
}

// ActiveYears returns the distinct years a bike has non-deleted rides in,
// newest first.
func (r *RideRepository) ActiveYears(ctx context.Context, bikeID int64) ([]int, error) {
	var rows []string
	err := r.db.SelectContext(ctx, &rows,
		`SELECT DISTINCT strftime('%Y', date) AS year FROM rides
		 WHERE bike_id = ? AND deleted_at IS NULL ORDER BY year DESC`,
		bikeID)
	if err != nil {
		return nil, apperr.Database(err)
	}

	years := make([]int, 0, len(rows))
	for _, row := range rows {
		year, err := strconv.Atoi(row)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		years = append(years, year)
	}
	return years, nil
}

// TotalDistanceForBike sums a bike's non-deleted ride distances. An empty
// prefix covers the bike's whole history; "2024-" restricts to one year.
func (r *RideRepository) TotalDistanceForBike(ctx context.Context, bikeID int64, prefix string) (float64, error) {
	var total sql.NullFloat64
	err := r.db.GetContext(ctx, &total,
		`SELECT SUM(distance) FROM rides WHERE bike_id = ? AND deleted_at IS NULL AND date LIKE ?`,
		bikeID, prefix+"%")
	if err != nil {
		return 0, apperr.Database(err)
	}

	if !total.Valid {
		return 0, nil
	}
	return total.Float64, nil
}

func rideModels(raws []rideRaw) ([]*Ride, error) {
	rides := make([]*Ride, 0, len(raws))
	for _, raw := range raws {
		model, err := raw.model()
		if err != nil {
			return nil, apperr.Internal(err)
		}
		rides = append(rides, model)
	}
	return rides, nil
}
