package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velolog/backend/internal/apperr"
)

func TestBikeAssertOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewBikeRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	bike := createTestBike(t, db, alice.ID, "Trek", nil)

	assert.NoError(t, repo.AssertOwner(ctx, bike.ID, alice.ID))

	err := repo.AssertOwner(ctx, bike.ID, bob.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	err = repo.AssertOwner(ctx, 9999, alice.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// A deleted bike is gone, not forbidden, even for its owner.
	require.NoError(t, repo.Delete(ctx, bike.ID))
	err = repo.AssertOwner(ctx, bike.ID, alice.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestBikeGetAllScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewBikeRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestBike(t, db, alice.ID, "Trek", nil)
	deleted := createTestBike(t, db, alice.ID, "Old", nil)
	createTestBike(t, db, bob.ID, "Canyon", nil)

	require.NoError(t, repo.Delete(ctx, deleted.ID))

	bikes, err := repo.GetAll(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, bikes, 1)
	assert.Equal(t, "Trek", bikes[0].Name)
}

func TestBikeGetByStravaGear(t *testing.T) {
	db := newTestDB(t)
	repo := NewBikeRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	gear := "b1234"
	first := createTestBike(t, db, alice.ID, "Trek", &gear)
	second := createTestBike(t, db, alice.ID, "Backup", &gear)
	createTestBike(t, db, alice.ID, "Other", nil)
	createTestBike(t, db, bob.ID, "Canyon", &gear)

	bikes, err := repo.GetByStravaGear(ctx, alice.ID, "b1234")
	require.NoError(t, err)
	require.Len(t, bikes, 2)
	assert.Equal(t, first.ID, bikes[0].ID)
	assert.Equal(t, second.ID, bikes[1].ID)

	require.NoError(t, repo.Delete(ctx, second.ID))
	bikes, err = repo.GetByStravaGear(ctx, alice.ID, "b1234")
	require.NoError(t, err)
	require.Len(t, bikes, 1)
}

func TestBikeUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewBikeRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bike := createTestBike(t, db, alice.ID, "Trek", nil)

	gear := "b42"
	updated, err := repo.Update(ctx, bike.ID, &BikePartial{
		Name:        "Trek Domane",
		Description: "road bike",
		Color:       "#ff0000",
		StravaGear:  &gear,
	})
	require.NoError(t, err)
	assert.Equal(t, "Trek Domane", updated.Name)
	assert.Equal(t, "road bike", updated.Description)
	require.NotNil(t, updated.StravaGear)
	assert.Equal(t, "b42", *updated.StravaGear)

	_, err = repo.Update(ctx, 9999, &BikePartial{Name: "ghost"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestBikeDeleteTwice(t *testing.T) {
	db := newTestDB(t)
	repo := NewBikeRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bike := createTestBike(t, db, alice.ID, "Trek", nil)

	require.NoError(t, repo.Delete(ctx, bike.ID))
	err := repo.Delete(ctx, bike.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
