package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware.
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers the user routes.
// Public: POST /users (signup).
// Protected: GET/PUT/DELETE /users (current user).
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware Middleware) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", handler.Create)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/", handler.Current)
			r.Put("/", handler.Update)
			r.Delete("/", handler.Delete)
		})
	})
}
