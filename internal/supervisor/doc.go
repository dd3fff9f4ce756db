// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package supervisor runs the long-lived parts of the service under a
// suture supervisor tree.
//
// The tree has three layers, each its own supervisor so a failing service
// is restarted without disturbing the others:
//
//	curtains (root)
//	├── data-layer         Badger value log GC (badger backend only)
//	├── maintenance-layer  cache janitors (ISP verdict cache)
//	└── api-layer          HTTP server
//
// Supervisor events are logged through sutureslog, backed by the zerolog
// slog adapter in the logging package.
package supervisor
