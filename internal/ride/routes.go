package ride

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the ride routes on a router already nested
// under /bikes/{id}/rides and behind the auth gate.
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Get("/", handler.GetAll)
	r.Post("/", handler.Create)
	r.Get("/years", handler.ActiveYears)
	r.Get("/total/{year}", handler.TotalForYear)
	r.Get("/monthly/{year}", handler.Monthly)
	r.Get("/monthly/{year}/{month}", handler.GetMonth)
	r.Get("/{rideID}", handler.GetOne)
	r.Put("/{rideID}", handler.Update)
	r.Delete("/{rideID}", handler.Delete)
}
