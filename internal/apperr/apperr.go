// Package apperr defines the application error taxonomy. Repositories and
// services return these values unchanged; the HTTP layer converts them to
// status codes and response bodies in exactly one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	// KindInternal is the catch-all for parse/IO/third-party failures.
	KindInternal Kind = iota
	// KindDatabase wraps an underlying storage error.
	KindDatabase
	// KindNotFound means the resource does not exist or is soft-deleted.
	KindNotFound
	// KindBadRequest means the client sent an invalid payload or query.
	KindBadRequest
	// KindUnauthenticated means no valid session was presented.
	KindUnauthenticated
	// KindForbidden means the resource exists but belongs to someone else.
	KindForbidden
	// KindConflict means a uniqueness constraint would be violated.
	KindConflict
)

// Error is the application error type. The message is client-facing for the
// request-scoped kinds; Database and Internal detail is only exposed in
// debug mode.
type Error struct {
	kind Kind
	msg  string
	err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		if e.msg != "" {
			return e.msg + ": " + e.err.Error()
		}
		return e.err.Error()
	}
	return e.msg
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Kind returns the error classification.
func (e *Error) Kind() Kind { return e.kind }

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// BadRequest builds a KindBadRequest error.
func BadRequest(format string, args ...any) *Error {
	return &Error{kind: KindBadRequest, msg: fmt.Sprintf(format, args...)}
}

// Unauthenticated builds a KindUnauthenticated error.
func Unauthenticated() *Error {
	return &Error{kind: KindUnauthenticated, msg: "Unauthorized"}
}

// Forbidden builds a KindForbidden error.
func Forbidden() *Error {
	return &Error{kind: KindForbidden, msg: "Forbidden"}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{kind: KindConflict, msg: fmt.Sprintf(format, args...)}
}

// Database wraps a storage error.
func Database(err error) *Error {
	return &Error{kind: KindDatabase, err: err}
}

// Internal wraps any other unexpected error.
func Internal(err error) *Error {
	return &Error{kind: KindInternal, err: err}
}

// Internalf builds a KindInternal error from a format string.
func Internalf(format string, args ...any) *Error {
	return &Error{kind: KindInternal, err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind of err, defaulting to KindInternal for foreign
// errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindInternal
}

// StatusOf maps err to its fixed HTTP status code.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. When debug is false the
// detail of Database and Internal errors is replaced with a generic message
// so schema and dependency internals never leak to clients.
func Message(err error, debug bool) string {
	kind := KindOf(err)
	var appErr *Error
	if !errors.As(err, &appErr) {
		if debug {
			return "Internal Server Error: " + err.Error()
		}
		return "Internal Server Error"
	}

	switch kind {
	case KindNotFound:
		return "Not Found: " + appErr.msg
	case KindBadRequest:
		return "Bad Request: " + appErr.msg
	case KindUnauthenticated:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindConflict:
		return "Conflict: " + appErr.msg
	case KindDatabase:
		if debug {
			return "Database Error: " + appErr.Error()
		}
		return "Internal Server Error"
	default:
		if debug {
			return "Internal Server Error: " + appErr.Error()
		}
		return "Internal Server Error"
	}
}
