// Package user exposes account management endpoints.
package user

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/appctx"
	"github.com/velolog/backend/internal/httputil"
	"github.com/velolog/backend/internal/repository"
)

// Handler exposes the user endpoints.
type Handler struct {
	users    *repository.UserRepository
	rsp      *httputil.Responder
	validate *validator.Validate
}

// NewHandler creates a user Handler.
func NewHandler(users *repository.UserRepository, rsp *httputil.Responder) *Handler {
	return &Handler{
		users:    users,
		rsp:      rsp,
		validate: validator.New(),
	}
}

// Create handles POST /users: signup.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var partial repository.UserPartial
	if err := httputil.Decode(r, &partial); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(partial); err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("invalid user payload"))
		return
	}

	existing, err := h.users.TryGetByUsername(r.Context(), partial.Username)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if existing != nil {
		h.rsp.Error(w, r, apperr.Conflict("username already exists"))
		return
	}

	user, err := h.users.Create(r.Context(), &partial)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	h.rsp.JSON(w, http.StatusCreated, user)
}

// Current handles GET /users: the authenticated user.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}
	h.rsp.JSON(w, http.StatusOK, user)
}

// Update handles PUT /users.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	var partial repository.UserPartial
	if err := httputil.Decode(r, &partial); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(partial); err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("invalid user payload"))
		return
	}

	if partial.Username != user.Username {
		existing, err := h.users.TryGetByUsername(r.Context(), partial.Username)
		if err != nil {
			h.rsp.Error(w, r, err)
			return
		}
		if existing != nil {
			h.rsp.Error(w, r, apperr.Conflict("username already exists"))
			return
		}
	}

	updated, err := h.users.Update(r.Context(), user.ID, &partial)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	h.rsp.JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /users: soft-delete the authenticated account.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	if err := h.users.Delete(r.Context(), user.ID); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.NoContent(w)
}
