package strava

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/config"
	"github.com/velolog/backend/internal/dbtime"
	"github.com/velolog/backend/internal/metrics"
	"github.com/velolog/backend/internal/repository"
)

const (
	authURL    = "https://www.strava.com/oauth/authorize"
	tokenURL   = "https://www.strava.com/oauth/token"
	apiBaseURL = "https://www.strava.com/api/v3"

	// requiredScopes is what we ask for and what the callback must grant.
	// Strava expects the scopes comma-joined in a single parameter.
	requiredScopes = "read_all,activity:read_all"

	// activitiesPerPage is the provider page size used during sync.
	activitiesPerPage = 30

	// refreshBuffer renews tokens slightly before they actually expire so a
	// sync never starts with a token that dies mid-run.
	refreshBuffer = time.Minute
)

// Service drives the OAuth handshake and the activity sync.
type Service struct {
	oauth  *oauth2.Config
	links  *repository.StravaRepository
	bikes  *repository.BikeRepository
	rides  *repository.RideRepository
	states *StateStore

	// http is used for every oauth2 and API call so tests can substitute a
	// mocked transport.
	http *http.Client
	log  *slog.Logger
	now  func() time.Time
}

func NewService(
	cfg *config.StravaConfig,
	links *repository.StravaRepository,
	bikes *repository.BikeRepository,
	rides *repository.RideRepository,
	log *slog.Logger,
) *Service {
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectOrigin + "/api/strava/redirect",
			Scopes:       []string{requiredScopes},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		links:  links,
		bikes:  bikes,
		rides:  rides,
		states: NewStateStore(),
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log,
		now:    time.Now,
	}
}

// oauthContext makes the oauth2 package use our HTTP client.
func (s *Service) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.http)
}

// AuthorizationURL registers a fresh state for the user and returns the
// provider URL to send them to.
func (s *Service) AuthorizationURL(userID int64) string {
	state := s.states.Put(userID)
	return s.oauth.AuthCodeURL(state.String())
}

// Link returns the user's link, or a not-found error when unlinked.
func (s *Service) Link(ctx context.Context, userID int64) (*repository.StravaLink, error) {
	link, err := s.links.TryGet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperr.NotFound("no strava account linked")
	}
	return link, nil
}

// Unlink removes the user's link. Unlinking an unlinked account is a no-op.
func (s *Service) Unlink(ctx context.Context, userID int64) error {
	return s.links.Delete(ctx, userID)
}

// UpdateLastSync moves the sync watermark. Rewinding it makes the next sync
// revisit older activities; the dedup keeps that harmless.
func (s *Service) UpdateLastSync(ctx context.Context, userID int64, lastSync time.Time) (*repository.StravaLink, error) {
	link, err := s.Link(ctx, userID)
	if err != nil {
		return nil, err
	}

	link.LastSync = lastSync.UTC().Truncate(time.Second)
	if err := s.links.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Gear lists the bicycles on the athlete's provider profile so the user can
// map their gear ids onto local bikes.
func (s *Service) Gear(ctx context.Context, userID int64) ([]GearBike, error) {
	link, err := s.Link(ctx, userID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.keepFreshToken(ctx, link)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBaseURL+"/athlete", nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, apperr.Internalf("fetching athlete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperr.Internalf("fetching athlete: %s: %s", resp.Status, body)
	}

	var athlete detailedAthlete
	if err := json.NewDecoder(resp.Body).Decode(&athlete); err != nil {
		return nil, apperr.Internalf("decoding athlete: %w", err)
	}

	if athlete.Bikes == nil {
		athlete.Bikes = []GearBike{}
	}
	return athlete.Bikes, nil
}

// HandleCallback completes the OAuth handshake: it validates the granted
// scopes, redeems the single-use state, exchanges the code, and stores the
// link. The sync watermark starts at zero so the first sync imports the
// entire history.
func (s *Service) HandleCallback(ctx context.Context, state, code, scope string) error {
	if !scopesGranted(scope) {
		return apperr.BadRequest("required scopes not granted")
	}

	stateID, err := uuid.Parse(state)
	if err != nil {
		return apperr.BadRequest("invalid state")
	}
	userID, ok := s.states.Take(stateID)
	if !ok {
		return apperr.BadRequest("invalid state")
	}

	token, err := s.oauth.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return apperr.Internalf("exchanging authorization code: %w", err)
	}

	stravaID, stravaName, err := athleteFromToken(token)
	if err != nil {
		return err
	}

	existing, err := s.links.TryGet(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		// Re-linking replaces the old link but keeps nothing from it.
		if err := s.links.Delete(ctx, userID); err != nil {
			return err
		}
	}

	return s.links.Create(ctx, &repository.StravaLink{
		UserID:       userID,
		StravaID:     stravaID,
		StravaName:   stravaName,
		LastSync:     time.Unix(0, 0).UTC(),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.UTC(),
	})
}

// scopesGranted reports whether the callback's comma-separated scope list
// covers everything we asked for.
func scopesGranted(scope string) bool {
	granted := make(map[string]bool)
	for _, part := range strings.Split(scope, ",") {
		granted[strings.TrimSpace(part)] = true
	}
	for _, required := range strings.Split(requiredScopes, ",") {
		if !granted[required] {
			return false
		}
	}
	return true
}

// athleteFromToken pulls the athlete summary Strava attaches to the token
// response.
func athleteFromToken(token *oauth2.Token) (int64, string, error) {
	athlete, ok := token.Extra("athlete").(map[string]any)
	if !ok {
		return 0, "", apperr.Internalf("token response carries no athlete")
	}
	id, ok := athlete["id"].(float64)
	if !ok {
		return 0, "", apperr.Internalf("token response carries no athlete id")
	}
	firstname, _ := athlete["firstname"].(string)
	lastname, _ := athlete["lastname"].(string)
	return int64(id), strings.TrimSpace(firstname + " " + lastname), nil
}

// keepFreshToken refreshes the link's tokens when they are expired or about
// to expire, persisting the new ones. It returns a valid access token.
func (s *Service) keepFreshToken(ctx context.Context, link *repository.StravaLink) (string, error) {
	if s.now().Before(link.ExpiresAt.Add(-refreshBuffer)) {
		return link.AccessToken, nil
	}

	source := s.oauth.TokenSource(s.oauthContext(ctx), &oauth2.Token{
		AccessToken:  link.AccessToken,
		RefreshToken: link.RefreshToken,
		Expiry:       link.ExpiresAt,
	})
	token, err := source.Token()
	if err != nil {
		return "", apperr.Internalf("refreshing access token: %w", err)
	}

	link.AccessToken = token.AccessToken
	link.RefreshToken = token.RefreshToken
	link.ExpiresAt = token.Expiry.UTC()
	if err := s.links.Update(ctx, link); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Sync imports the user's new bike activities since the last sync and
// returns how many rides it created. The watermark only advances after a
// fully successful run, so a failed sync is retried from the same point.
func (s *Service) Sync(ctx context.Context, userID int64) (int, error) {
	link, err := s.Link(ctx, userID)
	if err != nil {
		return 0, err
	}

	accessToken, err := s.keepFreshToken(ctx, link)
	if err != nil {
		metrics.StravaSyncsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	started := s.now()
	created := 0
	// Bikes resolved per gear id, so repeated gear lookups hit the map.
	gearBikes := make(map[string][]*repository.Bike)

	for page := 1; ; page++ {
		activities, err := s.fetchActivities(ctx, accessToken, link.LastSync, page)
		if err != nil {
			metrics.StravaSyncsTotal.WithLabelValues("error").Inc()
			return created, err
		}
		if len(activities) == 0 {
			break
		}

		for _, activity := range activities {
			n, err := s.importActivity(ctx, userID, gearBikes, activity)
			if err != nil {
				metrics.StravaSyncsTotal.WithLabelValues("error").Inc()
				return created, err
			}
			created += n
		}
	}

	link.LastSync = started.UTC()
	if err := s.links.Update(ctx, link); err != nil {
		metrics.StravaSyncsTotal.WithLabelValues("error").Inc()
		return created, err
	}

	metrics.StravaSyncsTotal.WithLabelValues("success").Inc()
	metrics.StravaRidesImported.Add(float64(created))
	s.log.Info("strava sync finished", "user_id", userID, "created", created)
	return created, nil
}

// importActivity creates a ride on every bike mapped to the activity's gear.
// Activities that are not bike rides, have no gear, or were imported before
// (even if since deleted) are skipped.
func (s *Service) importActivity(ctx context.Context, userID int64, gearBikes map[string][]*repository.Bike, activity SummaryActivity) (int, error) {
	if ClassifySport(activity.SportType) != SportBikeRide || activity.GearID == "" {
		return 0, nil
	}

	bikes, ok := gearBikes[activity.GearID]
	if !ok {
		var err error
		bikes, err = s.bikes.GetByStravaGear(ctx, userID, activity.GearID)
		if err != nil {
			return 0, err
		}
		gearBikes[activity.GearID] = bikes
	}

	created := 0
	for _, bike := range bikes {
		existing, err := s.rides.TryGetByStravaRide(ctx, bike.ID, activity.ID, true)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		stravaRide := activity.ID
		_, err = s.rides.Create(ctx, bike.ID, &repository.RidePartial{
			Date:        dbtime.NewDate(activity.StartDateLocal),
			Distance:    activity.DistanceMeters / 1000,
			Description: activity.Name,
			StravaRide:  &stravaRide,
		})
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// fetchActivities loads one page of the athlete's activities after the
// given watermark.
func (s *Service) fetchActivities(ctx context.Context, accessToken string, after time.Time, page int) ([]SummaryActivity, error) {
	query := url.Values{}
	query.Set("after", strconv.FormatInt(after.Unix(), 10))
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(activitiesPerPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		apiBaseURL+"/athlete/activities?"+query.Encode(), nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, apperr.Internalf("fetching activities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperr.Internalf("fetching activities: %s: %s", resp.Status, body)
	}

	var activities []SummaryActivity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, apperr.Internalf("decoding activities: %w", err)
	}
	return activities, nil
}
