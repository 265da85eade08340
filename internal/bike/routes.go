package bike

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware.
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers the bike routes. All are protected; the nested
// ride routes are registered by the caller under /bikes/{id}/rides.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware Middleware, nested func(chi.Router)) {
	r.Route("/bikes", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", handler.GetAll)
		r.Post("/", handler.Create)
		r.Get("/{id}", handler.GetOne)
		r.Put("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)

		if nested != nil {
			r.Route("/{id}/rides", nested)
		}
	})
}
