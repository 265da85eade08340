// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/appctx"
	"github.com/velolog/backend/internal/auth"
	"github.com/velolog/backend/internal/httputil"
)

// AuthMiddleware gates routes behind bearer-token authentication.
type AuthMiddleware struct {
	service *auth.Service
	rsp     *httputil.Responder
}

// NewAuthMiddleware creates an AuthMiddleware instance.
func NewAuthMiddleware(service *auth.Service, rsp *httputil.Responder) *AuthMiddleware {
	return &AuthMiddleware{service: service, rsp: rsp}
}

// Authenticate resolves the Authorization header into a (user, session)
// pair on the request context. Every failure is a plain 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.rsp.Error(w, r, apperr.Unauthenticated())
			return
		}

		user, session, err := m.service.Authenticate(r.Context(), token)
		if err != nil {
			m.rsp.Error(w, r, err)
			return
		}

		ctx := appctx.WithIdentity(r.Context(), user, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
