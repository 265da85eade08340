package strava

import (
	"net/http"
	"time"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/appctx"
	"github.com/velolog/backend/internal/httputil"
)

// LinkUpdate is the PUT /strava payload.
type LinkUpdate struct {
	LastSync time.Time `json:"lastSync"`
}

// afterLinkPath is where the browser lands once the handshake succeeded.
const afterLinkPath = "/integrate/strava"

// Handler exposes the Strava link endpoints.
type Handler struct {
	service *Service
	rsp     *httputil.Responder
}

// NewHandler creates a strava Handler.
func NewHandler(service *Service, rsp *httputil.Responder) *Handler {
	return &Handler{service: service, rsp: rsp}
}

// GetLink handles GET /strava. It returns the link info without tokens, or
// 404 when the account is not linked.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	link, err := h.service.Link(r.Context(), user.ID)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, link)
}

// UpdateLink handles PUT /strava. It currently only moves the sync
// watermark.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	var update LinkUpdate
	if err := httputil.Decode(r, &update); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if update.LastSync.IsZero() {
		h.rsp.Error(w, r, apperr.BadRequest("lastSync is required"))
		return
	}

	link, err := h.service.UpdateLastSync(r.Context(), user.ID, update.LastSync)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, link)
}

// Gear handles GET /strava/bikes: the bicycles on the linked athlete's
// profile.
func (h *Handler) Gear(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	gear, err := h.service.Gear(r.Context(), user.ID)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, gear)
}

// Authorize handles GET /strava/oauth. It sends the browser to the provider
// consent screen with a fresh state.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	http.Redirect(w, r, h.service.AuthorizationURL(user.ID), http.StatusTemporaryRedirect)
}

// Redirect handles GET /strava/redirect, the provider callback. It is the
// only unauthenticated route in the package; the state ties the callback
// back to the initiating user.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	err := h.service.HandleCallback(r.Context(),
		query.Get("state"), query.Get("code"), query.Get("scope"))
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	http.Redirect(w, r, afterLinkPath, http.StatusTemporaryRedirect)
}

// Sync handles POST /strava. It imports new activities and reports how many
// rides were created.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	created, err := h.service.Sync(r.Context(), user.ID)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, map[string]int{"created": created})
}

// Unlink handles DELETE /strava.
func (h *Handler) Unlink(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	if err := h.service.Unlink(r.Context(), user.ID); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.NoContent(w)
}
