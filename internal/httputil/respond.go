// Package httputil is the single place where application errors become HTTP
// responses.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/velolog/backend/internal/apperr"
)

// ErrorBody is the JSON body written for failed requests.
type ErrorBody struct {
	Error string `json:"error"`
}

// Responder writes JSON responses and converts apperr values to status codes.
type Responder struct {
	log   *slog.Logger
	debug bool
}

// NewResponder creates a Responder. In debug mode internal error detail is
// echoed to the client; otherwise it is logged and replaced with a generic
// message.
func NewResponder(log *slog.Logger, debug bool) *Responder {
	if log == nil {
		log = slog.Default()
	}
	return &Responder{log: log, debug: debug}
}

// JSON writes v with the given status code.
func (rsp *Responder) JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rsp.log.Error("encoding response", "error", err)
	}
}

// NoContent writes a 204 response.
func (rsp *Responder) NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error converts err into its fixed status code and client message.
func (rsp *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		rsp.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	} else {
		rsp.log.Warn("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	rsp.JSON(w, status, ErrorBody{Error: apperr.Message(err, rsp.debug)})
}

// Decode parses the request body as JSON into v, returning a BadRequest
// error on malformed input.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	return nil
}
