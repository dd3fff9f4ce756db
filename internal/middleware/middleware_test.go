// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if len(seen) != 36 {
		t.Errorf("generated request ID = %q", seen)
	}
	if w.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, want %q", w.Header().Get(RequestIDHeader), seen)
	}
}

func TestRequestIDReusedOrReplaced(t *testing.T) {
	tests := []struct {
		name, in string
		reuse    bool
	}{
		{"client id", "abc-123", true},
		{"oversized", strings.Repeat("x", 200), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = logging.RequestIDFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.in)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if (seen == tt.in) != tt.reuse {
				t.Errorf("seen = %q, reuse = %v", seen, tt.reuse)
			}
		})
	}
}

func TestPrometheusMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/register/{room}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	c := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/register/{room}", "404")
	before := testutil.ToFloat64(c)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/register/RA101", nil))

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}

func TestRealIP(t *testing.T) {
	trusted := NewTrustedProxies([]string{"10.0.0.1", "172.16.0.0/12", "not-an-ip"})

	tests := []struct {
		name   string
		remote string
		xff    string
		realIP string
		want   string
	}{
		{"untrusted peer keeps socket address", "203.0.113.9:5000", "127.0.0.1", "127.0.0.1", "203.0.113.9"},
		{"trusted peer forwards client", "10.0.0.1:4000", "198.51.100.7", "", "198.51.100.7"},
		{"trusted range", "172.20.1.2:4000", "198.51.100.7", "", "198.51.100.7"},
		{"nearest untrusted hop wins", "10.0.0.1:4000", "127.0.0.1, 198.51.100.7, 172.16.0.5", "", "198.51.100.7"},
		{"x-real-ip from trusted peer", "10.0.0.1:4000", "", "198.51.100.8", "198.51.100.8"},
		{"garbage header ignored", "10.0.0.1:4000", "nonsense", "", "10.0.0.1"},
		{"no headers", "10.0.0.1:4000", "", "", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _, _ = strings.Cut(r.RemoteAddr, ":")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if seen != tt.want {
				t.Errorf("client address = %q, want %q", seen, tt.want)
			}
		})
	}
}

func TestRealIPWithoutTrustedProxies(t *testing.T) {
	var seen string
	h := RealIP(NewTrustedProxies(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9000"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "127.0.0.1:9000" {
		t.Errorf("RemoteAddr = %q, want it unchanged", seen)
	}
}
