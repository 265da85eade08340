package data

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware.
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers the export/import routes behind the auth gate.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware Middleware) {
	r.Route("/data", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/export", handler.Export)
		r.Post("/import", handler.Import)
	})
}
