// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

/*
Package api is the HTTP surface of the curtains service, routed with chi.

# Middleware Order

Global middleware runs in this order for every request:

 1. RequestID: X-Request-ID plus logging context
 2. RealIP, Recoverer (chi)
 3. CORS (go-chi/cors)
 4. SecurityHeaders
 5. PrometheusMetrics
 6. Gate: the authorization layer (see package auth)
 7. RateLimit (go-chi/httprate), per client IP

Route groups then add a stricter limit on /control and /api/chat/send and
the admin guard on /api/admin.

# Errors

Handlers return failures as *apperr.Error values and write them with
apperr.Write, which produces {"detail": "...", "code": "..."} with the
error's status.
*/
package api
