// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package logging provides centralized zerolog-based structured logging.
//
// The package keeps one global zerolog logger that every component writes
// through. JSON output is the default; console output is meant for local
// development. When a run-log directory is configured, every process start
// also writes a numbered file such as
//
//	logs/007_20261016_091500_run.log
//
// so operators can correlate a restart with its log.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("room", room).Msg("Curtain command sent")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Stats update failed")
//
// # Suture integration
//
// NewSlogLogger returns an slog.Logger backed by zerolog so sutureslog can
// report supervisor events through the same pipeline.
package logging
