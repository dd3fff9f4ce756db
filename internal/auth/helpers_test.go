// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec(t *testing.T) *CookieCodec {
	t.Helper()
	codec, err := NewCookieCodec(testSecret, time.Hour, false)
	if err != nil {
		t.Fatalf("NewCookieCodec() error = %v", err)
	}
	return codec
}

// sessionCookie encodes s and returns the resulting cookie.
func sessionCookie(t *testing.T, codec *CookieCodec, s *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := codec.Save(rec, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return findCookie(t, rec.Result().Cookies())
}

func findCookie(t *testing.T, cookies []*http.Cookie) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %q cookie in response", SessionCookieName)
	return nil
}

// loadFromResponse decodes the session cookie a handler set.
func loadFromResponse(t *testing.T, codec *CookieCodec, rec *httptest.ResponseRecorder) *Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(findCookie(t, rec.Result().Cookies()))
	sess, err := codec.Load(req)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return sess
}

func selfSignedCert(t *testing.T) (*rsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "curtains-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return key, cert
}
