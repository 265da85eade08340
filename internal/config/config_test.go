package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	assert.Equal(t, int64(defaultSessionMaxInactivity), cfg.Session.MaxInactivitySeconds)
	assert.Equal(t, "./data.db", cfg.DatabaseURL)
	assert.Nil(t, cfg.Strava)
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BIKE_ADDRESS", "127.0.0.1")
	t.Setenv("BIKE_PORT", "9000")
	t.Setenv("BIKE_SESSION_MAX_INACTIVITY", "3600")
	t.Setenv("BIKE_HOSTNAMES", "bikes.example.com, www.bikes.example.com ,")
	t.Setenv("BIKE_DEBUG", "true")

	cfg := Load()

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())
	assert.Equal(t, int64(3600), cfg.Session.MaxInactivitySeconds)
	assert.Equal(t, []string{"bikes.example.com", "www.bikes.example.com"}, cfg.Hostnames)
	assert.True(t, cfg.Debug)
}

func TestStravaConfigRequiresAllSettings(t *testing.T) {
	t.Setenv("BIKE_STRAVA_CLIENT_ID", "id")
	t.Setenv("BIKE_STRAVA_CLIENT_SECRET", "secret")
	assert.Nil(t, Load().Strava)

	t.Setenv("BIKE_STRAVA_REDIRECT_ORIGIN", "https://bikes.example.com")
	strava := Load().Strava
	if assert.NotNil(t, strava) {
		assert.Equal(t, "id", strava.ClientID)
		assert.Equal(t, "https://bikes.example.com", strava.RedirectOrigin)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("BIKE_SESSION_MAX_INACTIVITY", "soon")
	assert.Equal(t, int64(defaultSessionMaxInactivity), Load().Session.MaxInactivitySeconds)
}
