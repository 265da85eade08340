package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware.
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers the auth routes.
// Public: POST /auth (login).
// Protected: GET /auth, DELETE /auth, GET /auth/sessions,
// DELETE /auth/sessions/{id}.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware Middleware) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/", handler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/", handler.Whoami)
			r.Delete("/", handler.Logout)
			r.Get("/sessions", handler.ListSessions)
			r.Delete("/sessions/{id}", handler.RevokeSession)
		})
	})
}
