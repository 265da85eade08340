// Package bike exposes the bike CRUD endpoints, all ownership-gated.
package bike

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/appctx"
	"github.com/velolog/backend/internal/httputil"
	"github.com/velolog/backend/internal/repository"
)

// Handler exposes the bike endpoints.
type Handler struct {
	bikes    *repository.BikeRepository
	rsp      *httputil.Responder
	validate *validator.Validate
}

// NewHandler creates a bike Handler.
func NewHandler(bikes *repository.BikeRepository, rsp *httputil.Responder) *Handler {
	return &Handler{
		bikes:    bikes,
		rsp:      rsp,
		validate: validator.New(),
	}
}

// GetAll handles GET /bikes.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	bikes, err := h.bikes.GetAll(r.Context(), user.ID)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, bikes)
}

// Create handles POST /bikes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	var partial repository.BikePartial
	if err := httputil.Decode(r, &partial); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(partial); err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("invalid bike payload"))
		return
	}

	bike, err := h.bikes.Create(r.Context(), user.ID, &partial)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusCreated, bike)
}

// GetOne handles GET /bikes/{id}.
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	bikeID, err := PathID(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	if err := h.bikes.AssertOwner(r.Context(), bikeID, user.ID); err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	bike, err := h.bikes.GetOne(r.Context(), bikeID)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, bike)
}

// Update handles PUT /bikes/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	bikeID, err := PathID(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	if err := h.bikes.AssertOwner(r.Context(), bikeID, user.ID); err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	var partial repository.BikePartial
	if err := httputil.Decode(r, &partial); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(partial); err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("invalid bike payload"))
		return
	}

	bike, err := h.bikes.Update(r.Context(), bikeID, &partial)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, bike)
}

// Delete handles DELETE /bikes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	bikeID, err := PathID(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	if err := h.bikes.AssertOwner(r.Context(), bikeID, user.ID); err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	if err := h.bikes.Delete(r.Context(), bikeID); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.NoContent(w)
}

// PathID parses the {id} route parameter. Shared with the nested ride
// routes.
func PathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("invalid bike id")
	}
	return id, nil
}
