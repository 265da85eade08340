// Package status exposes the version/health endpoint used by the frontend
// sync worker.
package status

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velolog/backend/internal/httputil"
)

// Status is the GET /status response body.
type Status struct {
	Version      string   `json:"version"`
	Hostnames    []string `json:"hostnames"`
	Integrations []string `json:"integrations"`
}

// Handler exposes the status endpoints.
type Handler struct {
	status Status
	rsp    *httputil.Responder
}

// NewHandler creates a status Handler. stravaEnabled reflects whether the
// integration is configured, not whether any user has linked.
func NewHandler(version string, hostnames []string, stravaEnabled bool, rsp *httputil.Responder) *Handler {
	integrations := []string{}
	if stravaEnabled {
		integrations = append(integrations, "strava")
	}
	if hostnames == nil {
		hostnames = []string{}
	}
	return &Handler{
		status: Status{
			Version:      version,
			Hostnames:    hostnames,
			Integrations: integrations,
		},
		rsp: rsp,
	}
}

// Get handles GET /status.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.rsp.JSON(w, http.StatusOK, h.status)
}

// Check handles HEAD /status.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// RegisterRoutes registers the public status routes.
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Get("/status", handler.Get)
	r.Head("/status", handler.Check)
}
