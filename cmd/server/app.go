// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/curtains/internal/api"
	"github.com/tomtom215/curtains/internal/auth"
	"github.com/tomtom215/curtains/internal/authz"
	"github.com/tomtom215/curtains/internal/cache"
	"github.com/tomtom215/curtains/internal/chat"
	"github.com/tomtom215/curtains/internal/config"
	"github.com/tomtom215/curtains/internal/curtains"
	"github.com/tomtom215/curtains/internal/feedback"
	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/rooms"
	"github.com/tomtom215/curtains/internal/stats"
	"github.com/tomtom215/curtains/internal/storage"
	"github.com/tomtom215/curtains/internal/supervisor"
	"github.com/tomtom215/curtains/internal/supervisor/services"
	"github.com/tomtom215/curtains/internal/users"
)

// stores is where each document family lives.
type stores struct {
	users    storage.Store
	usersKey string
	chat     storage.Store
	chatKey  string
	stats    storage.Store
	badger   *storage.BadgerStore
	closeAll func() error
}

// documentKey turns "data/users.json" into the file store key "users".
func documentKey(file string) string {
	return strings.TrimSuffix(filepath.Base(file), ".json")
}

func openStores(cfg config.StorageConfig) (*stores, error) {
	statsStore, err := storage.NewFileStore(cfg.StatisticsFolder)
	if err != nil {
		return nil, err
	}

	if cfg.Backend == "badger" {
		db, err := storage.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:    storage.WithPrefix(db, "users/"),
			usersKey: "users",
			chat:     storage.WithPrefix(db, "chat/"),
			chatKey:  "messages",
			stats:    storage.WithPrefix(db, "stats/"),
			badger:   db,
			closeAll: db.Close,
		}, nil
	}

	usersStore, err := storage.NewFileStore(filepath.Dir(cfg.UsersFile))
	if err != nil {
		return nil, err
	}
	chatStore, err := storage.NewFileStore(filepath.Dir(cfg.ChatFile))
	if err != nil {
		return nil, err
	}
	return &stores{
		users:    usersStore,
		usersKey: documentKey(cfg.UsersFile),
		chat:     chatStore,
		chatKey:  documentKey(cfg.ChatFile),
		stats:    statsStore,
		closeAll: func() error { return nil },
	}, nil
}

// identityProvider picks the login backend for the configured mode.
func identityProvider(ctx context.Context, cfg *config.Config) (auth.IdentityProvider, error) {
	switch {
	case cfg.TestMode:
		logging.Warn().Str("user", cfg.Identity.TestUser).Msg("TEST MODE: every login succeeds as the test user")
		return auth.NewStaticProvider(cfg.Identity.TestUser), nil
	case cfg.Security.AuthMode == "isp" && cfg.Identity.TenantID == "":
		logging.Info().Msg("ISP mode without an identity registration, login disabled")
		return auth.NoLoginProvider{}, nil
	default:
		p, err := auth.NewAzureProviderFromConfig(ctx, cfg.Identity, cfg.Server.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("identity provider: %w", err)
		}
		return p, nil
	}
}

func curtainGateway(cfg *config.Config) curtains.Gateway {
	if cfg.TestMode {
		logging.Warn().Msg("TEST MODE: curtain commands are logged, not sent")
		return curtains.DryRunGateway{}
	}
	return curtains.NewBreakerGateway(curtains.NewHTTPGateway(cfg.Curtains.Timeout), curtains.DefaultBreakerSettings())
}

// app is the assembled service.
type app struct {
	handler http.Handler
	tree    *supervisor.SupervisorTree
	stores  *stores
}

// Close releases storage.
func (a *app) Close() error {
	return a.stores.closeAll()
}

// buildApp wires every component and registers the supervised services.
// The HTTP server itself is added by the caller.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	directory, err := rooms.Load(cfg.Server.RoomsFile)
	if err != nil {
		return nil, err
	}
	logging.Info().Int("rooms", directory.Len()).Str("file", cfg.Server.RoomsFile).Msg("Room directory loaded")

	st, err := openStores(cfg.Storage)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			_ = st.closeAll()
		}
	}()

	provider, err := identityProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewCookieCodec(cfg.Security.SessionSecretKey, cfg.Security.SessionTTL, cfg.Security.CookieSecure)
	if err != nil {
		return nil, err
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		return nil, err
	}

	var gateOpts []auth.GateOption
	if cfg.Security.AuthMode == "isp" {
		guard := auth.NewISPGuard(cfg.Security.AllowedISP, cfg.Security.ISPCacheTTL)
		gateOpts = append(gateOpts, auth.WithISPGuard(guard))
		tree.AddMaintenanceService(cache.NewJanitor("isp", guard.Cache(), cfg.Security.ISPCacheTTL))
		logging.Info().Str("allowed_isp", cfg.Security.AllowedISP).Msg("ISP authorization enabled")
	}
	if st.badger != nil {
		tree.AddDataService(services.NewBadgerGCService(st.badger, 0))
	}
	gate := auth.NewGate(codec, provider, gateOpts...)

	enforcer, err := authz.NewEnforcer(cfg.Security.AdminUsernames)
	if err != nil {
		return nil, err
	}

	userStore := users.NewStore(st.users, st.usersKey)
	aggregator := stats.NewAggregator(st.stats)
	controller := curtains.NewController(directory, curtainGateway(cfg), cfg.Curtains, aggregator, userStore,
		stats.NewControlLog(filepath.Join(cfg.Storage.StatisticsFolder, "log"), nil))

	handler := api.NewHandler(api.Deps{
		Rooms:      directory,
		Controller: controller,
		Stats:      aggregator,
		Users:      userStore,
		Referrals:  users.NewReferrals(userStore),
		Chat:       chat.NewLog(st.chat, st.chatKey),
		Reports:    feedback.NewJournal(cfg.Storage.ReportsFile),
		TShirts:    feedback.NewJournal(cfg.Storage.TShirtRequestsFile),
		Codec:      codec,
		Gate:       gate,
		Provider:   provider,
		PublicURL:  cfg.Server.PublicURL,
		StaticDir:  cfg.Server.StaticDir,
	})

	mwConfig := api.ChiMiddlewareConfigFrom(cfg.Security)
	if mwConfig.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig), gate, authz.NewMiddleware(enforcer))

	ok = true
	return &app{handler: router.SetupChi(), tree: tree, stores: st}, nil
}

// serve runs the tree with server until ctx is canceled.
func (a *app) serve(ctx context.Context, server *http.Server) error {
	a.tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	err := <-a.tree.ServeBackground(ctx)

	unstopped, _ := a.tree.UnstoppedServiceReport() //nolint:errcheck
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
