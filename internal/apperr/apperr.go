// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package apperr defines the error kinds handlers map to HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP layer.
type Kind string

const (
	KindBadRequest      Kind = "BAD_REQUEST"
	KindUnauthenticated Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindUpstream        Kind = "EXTERNAL_SERVICE_FAILED"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// Error is an error with a client-facing detail and an HTTP status.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind so callers can use sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Detail == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrBadRequest      = &Error{Kind: KindBadRequest, Status: http.StatusBadRequest}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Status: http.StatusUnauthorized}
	ErrForbidden       = &Error{Kind: KindForbidden, Status: http.StatusForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound, Status: http.StatusNotFound}
	ErrUpstream        = &Error{Kind: KindUpstream, Status: http.StatusBadGateway}
)

// BadRequest returns a 400 error.
func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Status: http.StatusBadRequest, Detail: fmt.Sprintf(format, args...)}
}

// Unauthenticated returns a 401 error.
func Unauthenticated(detail string) *Error {
	return &Error{Kind: KindUnauthenticated, Status: http.StatusUnauthorized, Detail: detail}
}

// Forbidden returns a 403 error.
func Forbidden(detail string) *Error {
	return &Error{Kind: KindForbidden, Status: http.StatusForbidden, Detail: detail}
}

// NotFound returns a 404 error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Detail: fmt.Sprintf(format, args...)}
}

// Upstream returns an error carrying the status an external service answered
// with. A status outside 4xx/5xx becomes 502.
func Upstream(status int, detail string, err error) *Error {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	return &Error{Kind: KindUpstream, Status: status, Detail: detail, Err: err}
}

// Internal wraps an unexpected failure. The detail shown to clients is generic.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Detail: "Internal server error", Err: err}
}

// From returns err as an *Error, wrapping anything else as Internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
