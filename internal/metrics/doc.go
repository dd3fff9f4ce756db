// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package metrics registers the service's Prometheus collectors.
//
// Collectors are package-level and registered with promauto against the
// default registry, which /metrics exposes. Record* helpers keep label
// values consistent across callers.
package metrics
