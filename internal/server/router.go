// Package server assembles the HTTP router from configuration. It exists
// apart from the main package so tests can run requests against the full
// stack.
package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"github.com/velolog/backend/internal/auth"
	"github.com/velolog/backend/internal/bike"
	"github.com/velolog/backend/internal/config"
	"github.com/velolog/backend/internal/data"
	"github.com/velolog/backend/internal/httputil"
	"github.com/velolog/backend/internal/metrics"
	"github.com/velolog/backend/internal/middleware"
	"github.com/velolog/backend/internal/repository"
	"github.com/velolog/backend/internal/ride"
	"github.com/velolog/backend/internal/status"
	"github.com/velolog/backend/internal/strava"
	"github.com/velolog/backend/internal/user"
)

// NewRouter wires repositories, services, and handlers into the full
// application router.
func NewRouter(cfg *config.Config, db *sqlx.DB, log *slog.Logger, version string) chi.Router {
	rsp := httputil.NewResponder(log, cfg.Debug)

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	bikeRepo := repository.NewBikeRepository(db)
	rideRepo := repository.NewRideRepository(db)
	stravaRepo := repository.NewStravaRepository(db)

	maxInactivity := time.Duration(cfg.Session.MaxInactivitySeconds) * time.Second
	authService := auth.NewService(userRepo, sessionRepo, maxInactivity)

	authHandler := auth.NewHandler(authService, rsp)
	userHandler := user.NewHandler(userRepo, rsp)
	bikeHandler := bike.NewHandler(bikeRepo, rsp)
	rideHandler := ride.NewHandler(bikeRepo, rideRepo, rsp)
	dataHandler := data.NewHandler(rideRepo, bikeRepo, rsp)
	statusHandler := status.NewHandler(version, cfg.Hostnames, cfg.Strava != nil, rsp)

	authMiddleware := middleware.NewAuthMiddleware(authService, rsp)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.Metrics)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.Hostnames),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)

		status.RegisterRoutes(r, statusHandler)
		auth.RegisterRoutes(r, authHandler, authMiddleware.Authenticate)
		user.RegisterRoutes(r, userHandler, authMiddleware.Authenticate)
		bike.RegisterRoutes(r, bikeHandler, authMiddleware.Authenticate, func(r chi.Router) {
			ride.RegisterRoutes(r, rideHandler)
		})
		data.RegisterRoutes(r, dataHandler, authMiddleware.Authenticate)

		if cfg.Strava != nil {
			stravaService := strava.NewService(cfg.Strava, stravaRepo, bikeRepo, rideRepo, log)
			stravaHandler := strava.NewHandler(stravaService, rsp)
			strava.RegisterRoutes(r, stravaHandler, authMiddleware.Authenticate)
		}
	})

	r.Handle("/metrics", metrics.Handler())

	r.NotFound(spaHandler(cfg.StaticDir))

	return r
}

// allowedOrigins turns configured hostnames into CORS origins. Without any
// configured hostname the API stays open, which suits local development.
func allowedOrigins(hostnames []string) []string {
	if len(hostnames) == 0 {
		return []string{"*"}
	}
	origins := make([]string, 0, len(hostnames)*2)
	for _, hostname := range hostnames {
		origins = append(origins, "https://"+hostname, "http://"+hostname)
	}
	return origins
}
