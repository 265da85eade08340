package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velolog/backend/internal/apperr"
)

func TestRideCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewRideRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bike := createTestBike(t, db, alice.ID, "Trek", nil)
	ride := createTestRide(t, db, bike.ID, "2024-05-01", 42.0)

	got, err := repo.GetOne(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", got.Date.String())
	assert.Equal(t, 42.0, got.Distance)
	assert.Equal(t, bike.ID, got.BikeID)
	assert.Nil(t, got.StravaRide)
}

func TestRideDatePrefixFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewRideRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bike := createTestBike(t, db, alice.ID, "Trek", nil)
	createTestRide(t, db, bike.ID, "2024-05-01", 10)
	createTestRide(t, db, bike.ID, "2024-05-20", 20)
	createTestRide(t, db, bike.ID, "2024-06-01", 30)
	createTestRide(t, db, bike.ID, "2023-05-02", 40)

	may, err := repo.GetAllForBikeWithDatePrefix(ctx, bike.ID, "2024-05-")
	require.NoError(t, err)
	require.Len(t, may, 2)
	assert.Equal(t, "2024-05-20", may[0].Date.String())
	assert.Equal(t, "2024-05-01", may[1].Date.String())

	year, err := repo.GetAllForBikeWithDatePrefix(ctx, bike.ID, "2024-")
	require.NoError(t, err)
	assert.Len(t, year, 3)
}

func TestRideTryGetByStravaRide(t *testing.T) {
	db := newTestDB(t)
	repo := NewRideRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bike := createTestBike(t, db, alice.ID, "Trek", nil)

	got, err := repo.TryGetByStravaRide(ctx, bike.ID, 777, false)
	require.NoError(t, err)
	assert.Nil(t, got)

	day := createTestRide(t, db, bike.ID, "2024-05-01", 42).Date
	stravaRide := int64(777)
	ride, err := repo.Create(ctx, bike.ID, &RidePartial{
		Date: day, Distance: 12.5, StravaRide: &stravaRide,
	})
	require.NoError(t, err)

	got, err = repo.TryGetByStravaRide(ctx, bike.ID, 777, false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ride.ID, got.ID)

	// After a delete the row is invisible normally but still blocks a
	// re-import when deleted rows are included.
	require.NoError(t, repo.Delete(ctx, ride.ID))

	got, err = repo.TryGetByStravaRide(ctx, bike.ID, 777, false)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.TryGetByStravaRide(ctx, bike.ID, 777, true)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.DeletedAt)
}

func TestRideUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewRideRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bike := createTestBike(t, db, alice.ID, "Trek", nil)
	ride := createTestRide(t, db, bike.ID, "2024-05-01", 42)

	updated, err := repo.Update(ctx, ride.ID, &RidePartial{
		Date: ride.Date, Distance: 50, Description: "longer than planned",
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.Distance)
	assert.Equal(t, "longer than planned", updated.Description)

	require.NoError(t, repo.Delete(ctx, ride.ID))
	_, err = repo.GetOne(ctx, ride.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = repo.Delete(ctx, ride.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRideActiveYears(t *testing.T) {
	db := newTestDB(t)
	repo := NewRideRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bike := createTestBike(t, db, alice.ID, "Trek", nil)

	years, err := repo.ActiveYears(ctx, bike.ID)
	require.NoError(t, err)
	assert.Empty(t, years)

	createTestRide(t, db, bike.ID, "2022-08-14", 10)
	createTestRide(t, db, bike.ID, "2024-05-01", 20)
	createTestRide(t, db, bike.ID, "2024-06-01", 30)

	years, err = repo.ActiveYears(ctx, bike.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2022}, years)
}

func TestRideTotalDistance(t *testing.T) {
	db := newTestDB(t)
	repo := NewRideRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bike := createTestBike(t, db, alice.ID, "Trek", nil)

	total, err := repo.TotalDistanceForBike(ctx, bike.ID, "")
	require.NoError(t, err)
	assert.Zero(t, total)

	createTestRide(t, db, bike.ID, "2024-05-01", 42)
	createTestRide(t, db, bike.ID, "2023-08-14", 15)
	deleted := createTestRide(t, db, bike.ID, "2024-05-02", 100)
	require.NoError(t, repo.Delete(ctx, deleted.ID))

	total, err = repo.TotalDistanceForBike(ctx, bike.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 57.0, total)

	total, err = repo.TotalDistanceForBike(ctx, bike.ID, "2024-")
	require.NoError(t, err)
	assert.Equal(t, 42.0, total)
}
