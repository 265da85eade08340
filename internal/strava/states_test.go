package strava

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStateStoreSingleUse(t *testing.T) {
	store := NewStateStore()

	state := store.Put(42)

	userID, ok := store.Take(state)
	assert.True(t, ok)
	assert.Equal(t, int64(42), userID)

	_, ok = store.Take(state)
	assert.False(t, ok)
}

func TestStateStoreUnknownState(t *testing.T) {
	store := NewStateStore()

	_, ok := store.Take(uuid.New())
	assert.False(t, ok)
}

func TestStateStoreExpiry(t *testing.T) {
	store := NewStateStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	expired := store.Put(1)

	store.now = func() time.Time { return base.Add(stateTTL - time.Second) }
	fresh := store.Put(2)

	store.now = func() time.Time { return base.Add(stateTTL + time.Second) }

	_, ok := store.Take(expired)
	assert.False(t, ok)

	userID, ok := store.Take(fresh)
	assert.True(t, ok)
	assert.Equal(t, int64(2), userID)
}
