// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package middleware holds HTTP middleware shared by every route: request
// IDs for log correlation and Prometheus request instrumentation.
package middleware
