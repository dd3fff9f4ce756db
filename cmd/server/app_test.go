// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/tomtom215/curtains/internal/auth"
	"github.com/tomtom215/curtains/internal/config"
	"github.com/tomtom215/curtains/internal/users"
)

const testRooms = `{"1A01": [{"name": "Window", "start": "11", "stop": "12"}]}`

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	roomsFile := filepath.Join(dir, "rooms.json")
	if err := os.WriteFile(roomsFile, []byte(testRooms), 0o600); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		TestMode: true,
		Server: config.ServerConfig{
			Host:      "127.0.0.1",
			Port:      8080,
			Timeout:   time.Second,
			RoomsFile: roomsFile,
			StaticDir: filepath.Join(dir, "Frontend"),
		},
		Curtains: config.CurtainsConfig{PortA: "8443", Timeout: time.Second},
		Identity: config.IdentityConfig{TestUser: "Test User"},
		Security: config.SecurityConfig{
			AuthMode:          "identity",
			SessionTTL:        time.Hour,
			RateLimitDisabled: true,
		},
		Storage: config.StorageConfig{
			Backend:            backend,
			BadgerPath:         filepath.Join(dir, "badger"),
			UsersFile:          filepath.Join(dir, "data", "users.json"),
			ChatFile:           filepath.Join(dir, "data", "chat.json"),
			StatisticsFolder:   filepath.Join(dir, "statistics"),
			ReportsFile:        filepath.Join(dir, "reports.txt"),
			TShirtRequestsFile: filepath.Join(dir, "tshirt_requests.txt"),
		},
	}
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func get(h http.Handler, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Accept", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildAppTestMode(t *testing.T) {
	for _, backend := range []string{"file", "badger"} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			a, err := buildApp(context.Background(), cfg)
			if err != nil {
				t.Fatalf("buildApp() error = %v", err)
			}
			defer a.Close()

			if rec := get(a.handler, "/healthz", nil); rec.Code != http.StatusOK {
				t.Fatalf("/healthz = %d", rec.Code)
			}

			rec := get(a.handler, "/login", nil)
			if rec.Code != http.StatusFound {
				t.Fatalf("/login = %d", rec.Code)
			}
			rec = get(a.handler, rec.Header().Get("Location"), cookieFrom(t, rec))
			if rec.Code != http.StatusFound || rec.Header().Get("Location") != auth.LandingPage {
				t.Fatalf("callback = %d %s: %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
			}
			session := cookieFrom(t, rec)

			rec = get(a.handler, "/control/1a01/up", session)
			if rec.Code != http.StatusOK {
				t.Fatalf("/control = %d: %s", rec.Code, rec.Body.String())
			}

			u, ok, err := users.NewStore(a.stores.users, a.stores.usersKey).Get(context.Background(), "Test User")
			if err != nil || !ok {
				t.Fatalf("Get() = %v, %v", ok, err)
			}
			if !slices.Equal(u.Rooms, []string{"1A01"}) {
				t.Errorf("rooms = %v", u.Rooms)
			}

			if backend == "file" {
				if _, err := os.Stat(cfg.Storage.UsersFile); err != nil {
					t.Errorf("users file: %v", err)
				}
			}
		})
	}
}

func TestBuildAppMissingRooms(t *testing.T) {
	cfg := testConfig(t, "file")
	cfg.Server.RoomsFile = filepath.Join(t.TempDir(), "missing.json")
	if _, err := buildApp(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing rooms file")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	a, err := buildApp(context.Background(), testConfig(t, "file"))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.serve(ctx, &http.Server{Addr: "127.0.0.1:0", Handler: a.handler, ReadHeaderTimeout: time.Second})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestDocumentKey(t *testing.T) {
	tests := map[string]string{
		"users.json":         "users",
		"/var/lib/chat.json": "chat",
		"data/other":         "other",
	}
	for in, want := range tests {
		if got := documentKey(in); got != want {
			t.Errorf("documentKey(%q) = %q, want %q", in, got, want)
		}
	}
}
