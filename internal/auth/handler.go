package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/appctx"
	"github.com/velolog/backend/internal/httputil"
)

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
}

// Handler exposes the auth endpoints.
type Handler struct {
	service  *Service
	rsp      *httputil.Responder
	validate *validator.Validate
}

// NewHandler creates an auth Handler.
func NewHandler(service *Service, rsp *httputil.Responder) *Handler {
	return &Handler{
		service:  service,
		rsp:      rsp,
		validate: validator.New(),
	}
}

// Login handles POST /auth.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.Decode(r, &req); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("invalid login payload"))
		return
	}

	session, err := h.service.Login(r.Context(), req.Username, r.UserAgent())
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	h.rsp.JSON(w, http.StatusOK, session)
}

// Whoami handles GET /auth.
func (h *Handler) Whoami(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}
	h.rsp.JSON(w, http.StatusOK, user)
}

// Logout handles DELETE /auth: revoke the caller's own session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := appctx.SessionFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	if err := h.service.Revoke(r.Context(), session.UserID, session.ID); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.NoContent(w)
}

// ListSessions handles GET /auth/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	sessions, err := h.service.Sessions(r.Context(), user.ID)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, sessions)
}

// RevokeSession handles DELETE /auth/sessions/{id}.
func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		h.rsp.Error(w, r, apperr.Unauthenticated())
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("invalid session id"))
		return
	}

	if err := h.service.Revoke(r.Context(), user.ID, sessionID); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.NoContent(w)
}
