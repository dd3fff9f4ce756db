// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package authz

import (
	"net/http"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/auth"
	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
)

// Middleware enforces admin access on routes it wraps.
type Middleware struct {
	enforcer *Enforcer
	security *logging.SecurityLogger
}

// NewMiddleware creates the admin guard.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer, security: logging.NewSecurityLogger()}
}

// RequireAdmin answers 403 unless the authenticated user is an admin. It
// runs after the auth Gate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, _ := auth.UserFromContext(r.Context())

		allowed, err := m.enforcer.Enforce(name, r.URL.Path, r.Method)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Admin check failed")
		}
		if !allowed {
			metrics.RecordAuthDecision("forbidden")
			m.security.LogAdminDenied(name, r.URL.Path)
			apperr.Write(w, apperr.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
