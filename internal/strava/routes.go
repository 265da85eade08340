package strava

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware.
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers the Strava routes.
// Public: GET /strava/redirect (provider callback).
// Protected: GET/PUT/POST/DELETE /strava, GET /strava/oauth,
// GET /strava/bikes.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware Middleware) {
	r.Route("/strava", func(r chi.Router) {
		r.Get("/redirect", handler.Redirect)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/", handler.GetLink)
			r.Put("/", handler.UpdateLink)
			r.Get("/oauth", handler.Authorize)
			r.Get("/bikes", handler.Gear)
			r.Post("/", handler.Sync)
			r.Delete("/", handler.Unlink)
		})
	})
}
