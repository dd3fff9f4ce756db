// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("control: %w", NotFound("incorrect building %s", "X"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
	if errors.Is(err, ErrBadRequest) {
		t.Error("did not expect ErrBadRequest")
	}
	if got := From(err).Detail; got != "incorrect building X" {
		t.Errorf("Detail = %q", got)
	}
}

func TestUpstreamStatus(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{http.StatusServiceUnavailable, http.StatusServiceUnavailable},
		{http.StatusForbidden, http.StatusForbidden},
		{http.StatusOK, http.StatusBadGateway},
		{0, http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := Upstream(tt.in, "x", nil).Status; got != tt.want {
			t.Errorf("Upstream(%d).Status = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFromWrapsUnknown(t *testing.T) {
	e := From(errors.New("disk on fire"))
	if e.Status != http.StatusInternalServerError || e.Kind != KindInternal {
		t.Errorf("From = %+v", e)
	}
	if e.Detail == "disk on fire" {
		t.Error("internal detail must not leak")
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, Unauthenticated("Authentication required"))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := `{"detail":"Authentication required","code":"UNAUTHORIZED"}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestWriteHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, errors.New("disk on fire"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk") {
		t.Errorf("internal detail leaked: %s", rec.Body.String())
	}
}
