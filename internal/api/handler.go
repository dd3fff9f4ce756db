// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package api

import (
	"io/fs"
	"net/http"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/auth"
	"github.com/tomtom215/curtains/internal/chat"
	"github.com/tomtom215/curtains/internal/curtains"
	"github.com/tomtom215/curtains/internal/feedback"
	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/rooms"
	"github.com/tomtom215/curtains/internal/stats"
	"github.com/tomtom215/curtains/internal/users"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Rooms      *rooms.Directory
	Controller *curtains.Controller
	Stats      *stats.Aggregator
	Users      *users.Store
	Referrals  *users.Referrals
	Chat       *chat.Log
	Reports    *feedback.Journal
	TShirts    *feedback.Journal

	Codec    *auth.CookieCodec
	Gate     *auth.Gate
	Provider auth.IdentityProvider

	// PublicURL prefixes referral links; empty derives it from the request.
	PublicURL string

	// Static serves /Frontend. Nil uses StaticDir on disk.
	Static    fs.FS
	StaticDir string
}

// Handler holds the HTTP handlers.
type Handler struct {
	rooms      *rooms.Directory
	controller *curtains.Controller
	stats      *stats.Aggregator
	users      *users.Store
	referrals  *users.Referrals
	chat       *chat.Log
	reports    *feedback.Journal
	tshirts    *feedback.Journal

	codec    *auth.CookieCodec
	gate     *auth.Gate
	provider auth.IdentityProvider

	publicURL string
	static    fs.FS
	security  *logging.SecurityLogger
}

// NewHandler creates the handlers.
func NewHandler(d Deps) *Handler {
	static := d.Static
	if static == nil && d.StaticDir != "" {
		static = os.DirFS(d.StaticDir)
	}
	return &Handler{
		rooms:      d.Rooms,
		controller: d.Controller,
		stats:      d.Stats,
		users:      d.Users,
		referrals:  d.Referrals,
		chat:       d.Chat,
		reports:    d.Reports,
		tshirts:    d.TShirts,
		codec:      d.Codec,
		gate:       d.Gate,
		provider:   d.Provider,
		publicURL:  d.PublicURL,
		static:     static,
		security:   logging.NewSecurityLogger(),
	}
}

// respondJSON writes v as JSON with status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		apperr.Write(w, apperr.Internal(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError logs unexpected failures and writes err.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	if appErr.Kind == apperr.KindInternal || appErr.Kind == apperr.KindUpstream {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	apperr.Write(w, appErr)
}

// session returns the session the Gate decoded, decoding it again when the
// Gate did not run.
func (h *Handler) session(r *http.Request) *auth.Session {
	if s, ok := auth.SessionFromContext(r.Context()); ok {
		return s
	}
	s, _ := h.codec.Load(r) //nolint:errcheck // an unreadable cookie is an empty session
	return s
}

// requireUser returns the authenticated name or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, ok := auth.UserFromContext(r.Context())
	if !ok {
		apperr.Write(w, apperr.Unauthenticated("Authentication required"))
		return "", false
	}
	return name, true
}

// refreshSession slides the session TTL. Failures only cost the refresh.
func (h *Handler) refreshSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		return
	}
	if err := h.codec.Refresh(w, sess); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Session refresh failed")
	}
}
