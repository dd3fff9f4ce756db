// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	cookie := sessionCookie(t, codec, &Session{UserName: "Alice", PendingReferral: "Bob"})

	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
	}
	if strings.Contains(cookie.Value, "Alice") {
		t.Error("cookie value should be encrypted")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err := codec.Load(req)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.UserName != "Alice" || sess.PendingReferral != "Bob" {
		t.Errorf("Load() = %+v", sess)
	}
	if sess.IssuedAt.IsZero() {
		t.Error("IssuedAt should be stamped on save")
	}
}

func TestCookieCodec_MissingCookie(t *testing.T) {
	codec := newTestCodec(t)
	sess, err := codec.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.Authenticated() {
		t.Error("empty session should not be authenticated")
	}
}

func TestCookieCodec_TamperedCookie(t *testing.T) {
	codec := newTestCodec(t)
	cookie := sessionCookie(t, codec, &Session{UserName: "Alice"})
	cookie.Value += "AA"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err := codec.Load(req)
	if err == nil {
		t.Fatal("Load() should fail for a tampered cookie")
	}
	if sess == nil || sess.Authenticated() {
		t.Error("tampered cookie should yield an empty session")
	}
}

func TestCookieCodec_OtherSecretRejected(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCookieCodec("another-secret-another-secret-xx", time.Hour, false)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, other, &Session{UserName: "Mallory"}))

	if _, err := codec.Load(req); err == nil {
		t.Error("cookie from another key should be rejected")
	}
}

func TestCookieCodec_Expired(t *testing.T) {
	codec := newTestCodec(t)
	issued := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issued }
	cookie := sessionCookie(t, codec, &Session{UserName: "Alice"})

	codec.now = func() time.Time { return issued.Add(2 * time.Hour) }
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	_, err := codec.Load(req)
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Load() error = %v, want ErrSessionExpired", err)
	}
}

func TestCookieCodec_RefreshSlidesExpiry(t *testing.T) {
	codec := newTestCodec(t)
	issued := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issued }
	sess := &Session{UserName: "Alice"}
	sessionCookie(t, codec, sess)

	later := issued.Add(50 * time.Minute)
	codec.now = func() time.Time { return later }
	rec := httptest.NewRecorder()
	if err := codec.Refresh(rec, sess); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	codec.now = func() time.Time { return issued.Add(90 * time.Minute) }
	if got := loadFromResponse(t, codec, rec); !got.IssuedAt.Equal(later) {
		t.Errorf("IssuedAt = %v, want %v", got.IssuedAt, later)
	}
}

func TestCookieCodec_DropsOversizedToken(t *testing.T) {
	codec := newTestCodec(t)
	rec := httptest.NewRecorder()
	sess := &Session{UserName: "Alice", AccessToken: strings.Repeat("t", 5000)}
	if err := codec.Save(rec, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := loadFromResponse(t, codec, rec)
	if got.UserName != "Alice" {
		t.Errorf("UserName = %q", got.UserName)
	}
	if got.AccessToken != "" {
		t.Error("oversized access token should be dropped")
	}
}

func TestCookieCodec_Clear(t *testing.T) {
	codec := newTestCodec(t)
	rec := httptest.NewRecorder()
	codec.Clear(rec)

	cookie := findCookie(t, rec.Result().Cookies())
	if cookie.MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative", cookie.MaxAge)
	}
}

func TestNewCookieCodec_RandomSecret(t *testing.T) {
	a, err := NewCookieCodec("", time.Hour, false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCookieCodec("", time.Hour, false)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, a, &Session{UserName: "Alice"}))
	if _, err := b.Load(req); err == nil {
		t.Error("codecs with random secrets should not share keys")
	}
}

func TestNewState_Unique(t *testing.T) {
	a, err := NewState()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewState() //nolint:errcheck
	if a == "" || a == b {
		t.Errorf("NewState() = %q, %q", a, b)
	}
}
