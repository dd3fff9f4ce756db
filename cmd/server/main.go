// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package main is the entry point for the Curtains server.
//
// Curtains lets students raise, lower and stop the motorized curtains of a
// room from their phone. Requests are authorized by an Azure AD login (or,
// in ISP mode, by the caller's internet provider) and relayed to the
// building's curtain controller.
//
// # Startup
//
//  1. Configuration: defaults, optional config file, environment (Koanf v2)
//  2. Logging: zerolog to stdout plus a numbered run log under LOG_DIR
//  3. Storage: JSON documents on disk, or Badger when STORAGE_BACKEND=badger
//  4. Components: room directory, identity provider, session codec, gate,
//     admin enforcer, curtain controller, statistics, users, chat
//  5. Supervisor tree: HTTP server, ISP cache janitor, Badger GC
//
// # Test Mode
//
// TEST_MODE=true logs every visitor in as TEST_MODE_USER and logs curtain
// commands instead of sending them:
//
//	export TEST_MODE=true
//	export TEST_MODE_USER="Test User"
//	./curtains
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. In-flight requests get
// 10 seconds to complete.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/curtains/internal/config"
	"github.com/tomtom215/curtains/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stdout,
		Dir:       cfg.Logging.Dir,
	})
	defer func() {
		if err := logging.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close run log: %v\n", err)
		}
	}()

	logging.Info().
		Str("auth_mode", cfg.Security.AuthMode).
		Str("storage", cfg.Storage.Backend).
		Bool("test_mode", cfg.TestMode).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize")
		cancel()
		os.Exit(1) //nolint:gocritic // deferred cleanup already ran via cancel
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	logging.Info().Msg("Starting supervisor tree")
	if err := a.serve(ctx, server); err != nil {
		logging.Error().Err(err).Msg("Supervisor tree error")
		return
	}
	logging.Info().Msg("Application stopped gracefully")
}
