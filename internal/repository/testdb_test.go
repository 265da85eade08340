package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/velolog/backend/internal/database"
	"github.com/velolog/backend/internal/dbtime"
)

// newTestDB opens a fresh in-memory database with the full schema applied.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *sqlx.DB, username string) *User {
	t.Helper()

	user, err := NewUserRepository(db).Create(context.Background(), &UserPartial{Username: username})
	require.NoError(t, err)
	return user
}

func createTestBike(t *testing.T, db *sqlx.DB, ownerID int64, name string, stravaGear *string) *Bike {
	t.Helper()

	bike, err := NewBikeRepository(db).Create(context.Background(), ownerID, &BikePartial{
		Name:       name,
		StravaGear: stravaGear,
	})
	require.NoError(t, err)
	return bike
}

func createTestRide(t *testing.T, db *sqlx.DB, bikeID int64, date string, distance float64) *Ride {
	t.Helper()

	day, err := dbtime.ParseDate(date)
	require.NoError(t, err)

	ride, err := NewRideRepository(db).Create(context.Background(), bikeID, &RidePartial{
		Date:     dbtime.NewDate(day),
		Distance: distance,
	})
	require.NoError(t, err)
	return ride
}

// dbNow matches the second precision the datetime columns store.
func dbNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
