// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/auth"
	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
	"github.com/tomtom215/curtains/internal/users"
)

// CheckAuthResponse is the body of GET /check-auth.
type CheckAuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserName      string `json:"user_name"`
}

// Login sends the browser to the identity provider.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.RedirectToLogin(w, r, h.session(r)); err != nil {
		respondError(w, r, err)
	}
}

// Logout clears the session and sends the browser to the provider's logout
// page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := h.session(r); sess.Authenticated() {
		h.security.LogLogout(sess.UserName, auth.ClientIP(r))
	}
	h.codec.Clear(w)
	http.Redirect(w, r, h.provider.LogoutURL(), http.StatusFound)
}

// CheckAuth reports whether the caller is logged in.
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	respondJSON(w, http.StatusOK, CheckAuthResponse{
		Authenticated: sess.Authenticated(),
		UserName:      sess.UserName,
	})
}

// Callback completes the authorization code flow.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	ip := auth.ClientIP(r)

	if e := q.Get("error"); e != "" {
		h.loginFailed(w, r, apperr.BadRequest("Authentication failed: %s", e))
		return
	}
	code := q.Get("code")
	if code == "" {
		h.loginFailed(w, r, apperr.BadRequest("No code received"))
		return
	}

	sess := h.session(r)
	if sess.OAuthState != "" && q.Get("state") != sess.OAuthState {
		h.loginFailed(w, r, apperr.BadRequest("Invalid state parameter"))
		return
	}

	id, err := h.provider.Exchange(ctx, code)
	if err != nil {
		h.loginFailed(w, r, err)
		return
	}

	lookup, err := h.users.Lookup(ctx, id.DisplayName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if referrer := sess.PendingReferral; referrer != "" {
		if _, err := h.referrals.Resolve(ctx, referrer, id.DisplayName, lookup); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("referrer", referrer).Msg("Failed to resolve pending referral")
		}
	}

	next := &auth.Session{UserName: id.DisplayName, AccessToken: id.AccessToken}
	if err := h.codec.Save(w, next); err != nil {
		respondError(w, r, err)
		return
	}

	result := "existing_user"
	if lookup.Created {
		result = "new_user"
	}
	metrics.LoginsTotal.WithLabelValues(result).Inc()
	h.security.LogLoginSuccess(id.DisplayName, lookup.Created, ip)

	http.Redirect(w, r, auth.LandingPage, http.StatusFound)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, err error) {
	metrics.LoginsTotal.WithLabelValues("failure").Inc()
	h.security.LogLoginFailure(err.Error(), auth.ClientIP(r))
	respondError(w, r, err)
}

// Referral handles a visit to a referral link.
func (h *Handler) Referral(w http.ResponseWriter, r *http.Request) {
	referrer, ok := users.DecodeReferralCode(chi.URLParam(r, "code"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	sess := h.session(r)
	if !sess.Authenticated() {
		sess.PendingReferral = referrer
		if err := h.gate.RedirectToLogin(w, r, sess); err != nil {
			respondError(w, r, err)
		}
		return
	}

	ctx := r.Context()
	lookup, err := h.users.Lookup(ctx, sess.UserName)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := h.referrals.Resolve(ctx, referrer, sess.UserName, lookup); err != nil {
		respondError(w, r, err)
		return
	}
	http.Redirect(w, r, auth.LandingPage, http.StatusFound)
}
