// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/curtains/internal/users"
)

// ProfileResponse is the body of GET /api/user/profile.
type ProfileResponse struct {
	Username     string   `json:"username"`
	IsPremium    bool     `json:"is_premium"`
	Points       int      `json:"points"`
	Rooms        []string `json:"rooms"`
	ReferralCode string   `json:"referral_code"`
}

// PremiumStatusResponse is the body of GET /api/premium/status.
type PremiumStatusResponse struct {
	IsPremium    bool `json:"is_premium"`
	Points       int  `json:"points"`
	PointsNeeded int  `json:"points_needed"`
	Threshold    int  `json:"threshold"`
}

// RoomsResponse is the body of GET /api/user/rooms.
type RoomsResponse struct {
	Rooms []string `json:"rooms"`
}

// ReferralResponse is the body of GET /api/user/referral.
type ReferralResponse struct {
	ReferralCode string `json:"referral_code"`
	ReferralLink string `json:"referral_link"`
}

// MessagesResponse is the body of GET /api/messages.
type MessagesResponse struct {
	Messages []users.Message `json:"messages"`
}

// currentUser resolves the authenticated user, creating the record when
// needed.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (string, users.User, bool) {
	name, ok := requireUser(w, r)
	if !ok {
		return "", users.User{}, false
	}
	u, err := h.users.GetOrCreate(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return "", users.User{}, false
	}
	return name, u, true
}

// Profile returns the caller's profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	name, u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ProfileResponse{
		Username:     name,
		IsPremium:    u.IsPremium,
		Points:       u.Points,
		Rooms:        u.Rooms,
		ReferralCode: users.EncodeReferralCode(name),
	})
}

// PremiumStatus returns the caller's progress towards premium.
func (h *Handler) PremiumStatus(w http.ResponseWriter, r *http.Request) {
	_, u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, PremiumStatusResponse{
		IsPremium:    u.IsPremium,
		Points:       u.Points,
		PointsNeeded: u.PointsNeeded(),
		Threshold:    users.PremiumThreshold,
	})
}

// UserRooms returns the rooms the caller has controlled.
func (h *Handler) UserRooms(w http.ResponseWriter, r *http.Request) {
	_, u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, RoomsResponse{Rooms: u.Rooms})
}

// ReferralInfo returns the caller's referral code and link.
func (h *Handler) ReferralInfo(w http.ResponseWriter, r *http.Request) {
	name, ok := requireUser(w, r)
	if !ok {
		return
	}
	code := users.EncodeReferralCode(name)
	respondJSON(w, http.StatusOK, ReferralResponse{
		ReferralCode: code,
		ReferralLink: h.baseURL(r) + "/referral/" + code,
	})
}

// Messages drains the caller's message queue.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	name, ok := requireUser(w, r)
	if !ok {
		return
	}
	msgs, err := h.users.GetAndClearMessages(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessagesResponse{Messages: msgs})
}

// baseURL is the configured public URL, or scheme and host of r.
func (h *Handler) baseURL(r *http.Request) string {
	if h.publicURL != "" {
		return strings.TrimRight(h.publicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
