package strava

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/config"
	"github.com/velolog/backend/internal/database"
	"github.com/velolog/backend/internal/repository"
)

const activitiesURL = apiBaseURL + "/athlete/activities"

func newTestService(t *testing.T) (*Service, *sqlx.DB) {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	service := NewService(
		&config.StravaConfig{
			ClientID:       "client-id",
			ClientSecret:   "client-secret",
			RedirectOrigin: "https://bikes.example.com",
		},
		repository.NewStravaRepository(db),
		repository.NewBikeRepository(db),
		repository.NewRideRepository(db),
		slog.New(slog.DiscardHandler),
	)

	httpmock.ActivateNonDefault(service.http)
	t.Cleanup(httpmock.DeactivateAndReset)

	return service, db
}

func createUser(t *testing.T, db *sqlx.DB, username string) *repository.User {
	t.Helper()

	user, err := repository.NewUserRepository(db).Create(context.Background(),
		&repository.UserPartial{Username: username})
	require.NoError(t, err)
	return user
}

func createBike(t *testing.T, db *sqlx.DB, ownerID int64, name, gear string) *repository.Bike {
	t.Helper()

	partial := &repository.BikePartial{Name: name}
	if gear != "" {
		partial.StravaGear = &gear
	}
	bike, err := repository.NewBikeRepository(db).Create(context.Background(), ownerID, partial)
	require.NoError(t, err)
	return bike
}

func linkUser(t *testing.T, db *sqlx.DB, userID int64, expiresAt time.Time) *repository.StravaLink {
	t.Helper()

	link := &repository.StravaLink{
		UserID:       userID,
		StravaID:     12345,
		StravaName:   "Alice Rider",
		LastSync:     time.Unix(0, 0).UTC(),
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    expiresAt,
	}
	require.NoError(t, repository.NewStravaRepository(db).Create(context.Background(), link))
	return link
}

// registerActivities serves the given page on page=1 and an empty list on
// every later page.
func registerActivities(firstPage string) {
	httpmock.RegisterResponder("GET", activitiesURL,
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "Bearer access-token" {
				return httpmock.NewStringResponse(401, `{"message":"Authorization Error"}`), nil
			}
			if req.URL.Query().Get("page") == "1" {
				return httpmock.NewStringResponse(200, firstPage), nil
			}
			return httpmock.NewStringResponse(200, `[]`), nil
		})
}

func TestAuthorizationURL(t *testing.T) {
	service, _ := newTestService(t)

	url := service.AuthorizationURL(1)
	assert.Contains(t, url, authURL)
	assert.Contains(t, url, "client_id=client-id")
	assert.Contains(t, url, "read_all%2Cactivity%3Aread_all")
	assert.Contains(t, url, "state=")
}

func TestHandleCallback(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "alice")

	httpmock.RegisterResponder("POST", tokenURL,
		httpmock.NewStringResponder(200, `{
			"access_token": "fresh-access",
			"refresh_token": "fresh-refresh",
			"token_type": "Bearer",
			"expires_in": 21600,
			"athlete": {"id": 12345, "firstname": "Alice", "lastname": "Rider"}
		}`))

	state := service.states.Put(user.ID)
	err := service.HandleCallback(ctx, state.String(), "auth-code", "read,read_all,activity:read_all")
	require.NoError(t, err)

	link, err := service.Link(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), link.StravaID)
	assert.Equal(t, "Alice Rider", link.StravaName)
	assert.Equal(t, "fresh-access", link.AccessToken)
	assert.Equal(t, "fresh-refresh", link.RefreshToken)
	assert.True(t, link.LastSync.Equal(time.Unix(0, 0).UTC()))
}

func TestHandleCallbackRejectsMissingScopes(t *testing.T) {
	service, db := newTestService(t)
	user := createUser(t, db, "alice")

	state := service.states.Put(user.ID)
	err := service.HandleCallback(context.Background(), state.String(), "auth-code", "read")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	// The scope check runs first, but the state must still be unredeemed
	// afterwards for a retry with proper scopes.
	_, ok := service.states.Take(state)
	assert.True(t, ok)
}

func TestHandleCallbackRejectsReusedState(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "alice")

	httpmock.RegisterResponder("POST", tokenURL,
		httpmock.NewStringResponder(200, `{
			"access_token": "fresh-access",
			"refresh_token": "fresh-refresh",
			"token_type": "Bearer",
			"expires_in": 21600,
			"athlete": {"id": 12345, "firstname": "Alice", "lastname": "Rider"}
		}`))

	state := service.states.Put(user.ID)
	require.NoError(t, service.HandleCallback(ctx, state.String(), "auth-code", "read_all,activity:read_all"))

	err := service.HandleCallback(ctx, state.String(), "auth-code", "read_all,activity:read_all")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	err = service.HandleCallback(ctx, "not-a-uuid", "auth-code", "read_all,activity:read_all")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestSyncImportsBikeRides(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "alice")
	bike := createBike(t, db, user.ID, "Trek", "b100")
	createBike(t, db, user.ID, "No gear", "")
	linkUser(t, db, user.ID, time.Now().Add(time.Hour))

	registerActivities(`[
		{"id": 1001, "name": "Morning Ride", "distance": 42000.0, "sport_type": "Ride",
		 "start_date_local": "2024-05-01T10:02:13Z", "gear_id": "b100"},
		{"id": 1002, "name": "Morning Run", "distance": 8000.0, "sport_type": "Run",
		 "start_date_local": "2024-05-01T17:00:00Z", "gear_id": "g200"},
		{"id": 1003, "name": "Unassigned Ride", "distance": 5000.0, "sport_type": "Ride",
		 "start_date_local": "2024-05-02T09:00:00Z", "gear_id": ""}
	]`)

	created, err := service.Sync(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	rides, err := repository.NewRideRepository(db).GetAllForBike(ctx, bike.ID)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, "2024-05-01", rides[0].Date.String())
	assert.Equal(t, 42.0, rides[0].Distance)
	assert.Equal(t, "Morning Ride", rides[0].Description)
	require.NotNil(t, rides[0].StravaRide)
	assert.Equal(t, int64(1001), *rides[0].StravaRide)

	// The watermark advanced past the epoch.
	link, err := service.Link(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, link.LastSync.After(time.Unix(0, 0)))
}

func TestSyncIsIdempotent(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "alice")
	bike := createBike(t, db, user.ID, "Trek", "b100")
	linkUser(t, db, user.ID, time.Now().Add(time.Hour))

	registerActivities(`[
		{"id": 1001, "name": "Morning Ride", "distance": 42000.0, "sport_type": "Ride",
		 "start_date_local": "2024-05-01T10:02:13Z", "gear_id": "b100"}
	]`)

	created, err := service.Sync(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = service.Sync(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// Deleting the imported ride must not resurrect it on the next sync.
	rides, err := repository.NewRideRepository(db).GetAllForBike(ctx, bike.ID)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	require.NoError(t, repository.NewRideRepository(db).Delete(ctx, rides[0].ID))

	created, err = service.Sync(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	rides, err = repository.NewRideRepository(db).GetAllForBike(ctx, bike.ID)
	require.NoError(t, err)
	assert.Empty(t, rides)
}

func TestSyncFailureKeepsWatermark(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "alice")
	createBike(t, db, user.ID, "Trek", "b100")
	linkUser(t, db, user.ID, time.Now().Add(time.Hour))

	httpmock.RegisterResponder("GET", activitiesURL,
		httpmock.NewStringResponder(500, `{"message":"upstream down"}`))

	_, err := service.Sync(ctx, user.ID)
	require.Error(t, err)

	link, err := service.Link(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, link.LastSync.Equal(time.Unix(0, 0).UTC()))
}

func TestSyncWithoutLink(t *testing.T) {
	service, db := newTestService(t)
	user := createUser(t, db, "alice")

	_, err := service.Sync(context.Background(), user.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGearListsAthleteBikes(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "alice")
	linkUser(t, db, user.ID, time.Now().Add(time.Hour))

	httpmock.RegisterResponder("GET", apiBaseURL+"/athlete",
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "Bearer access-token" {
				return httpmock.NewStringResponse(401, `{"message":"Authorization Error"}`), nil
			}
			return httpmock.NewStringResponse(200, `{
				"id": 12345,
				"firstname": "Alice",
				"bikes": [
					{"id": "b100", "name": "Trek Domane", "primary": true, "distance": 476612.9},
					{"id": "b200", "name": "Winter beater", "primary": false, "distance": 12000.0}
				]
			}`), nil
		})

	gear, err := service.Gear(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, gear, 2)
	assert.Equal(t, "b100", gear[0].ID)
	assert.Equal(t, "Trek Domane", gear[0].Name)
	assert.True(t, gear[0].Primary)
	assert.Equal(t, 476612.9, gear[0].DistanceMeters)
	assert.Equal(t, "b200", gear[1].ID)
}

func TestGearWithoutBikes(t *testing.T) {
	service, db := newTestService(t)
	user := createUser(t, db, "alice")
	linkUser(t, db, user.ID, time.Now().Add(time.Hour))

	httpmock.RegisterResponder("GET", apiBaseURL+"/athlete",
		httpmock.NewStringResponder(200, `{"id": 12345, "firstname": "Alice"}`))

	gear, err := service.Gear(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, gear)
	assert.Empty(t, gear)
}

func TestGearWithoutLink(t *testing.T) {
	service, db := newTestService(t)
	user := createUser(t, db, "alice")

	_, err := service.Gear(context.Background(), user.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateLastSync(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "alice")
	linkUser(t, db, user.ID, time.Now().Add(time.Hour))

	rewind := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	link, err := service.UpdateLastSync(ctx, user.ID, rewind)
	require.NoError(t, err)
	assert.True(t, link.LastSync.Equal(rewind))

	// The new watermark is persisted, not just returned.
	link, err = service.Link(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, link.LastSync.Equal(rewind))
	assert.Equal(t, "access-token", link.AccessToken)
}

func TestUpdateLastSyncWithoutLink(t *testing.T) {
	service, db := newTestService(t)
	user := createUser(t, db, "alice")

	_, err := service.UpdateLastSync(context.Background(), user.ID, time.Now())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSyncRefreshesExpiredToken(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "alice")
	createBike(t, db, user.ID, "Trek", "b100")
	linkUser(t, db, user.ID, time.Now().Add(-time.Hour))

	httpmock.RegisterResponder("POST", tokenURL,
		httpmock.NewStringResponder(200, `{
			"access_token": "access-token",
			"refresh_token": "rotated-refresh",
			"token_type": "Bearer",
			"expires_in": 21600
		}`))
	registerActivities(`[]`)

	created, err := service.Sync(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	link, err := service.Link(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh", link.RefreshToken)
	assert.True(t, link.ExpiresAt.After(time.Now()))

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info[fmt.Sprintf("POST %s", tokenURL)])
}
