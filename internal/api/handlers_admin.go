// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/users"
)

// AdminUsersResponse is the body of GET /api/admin/users.
type AdminUsersResponse struct {
	Users map[string]users.User `json:"users"`
}

// GrantPointsResponse is the body of GET /api/admin/grant-points/{user}/{points}.
type GrantPointsResponse struct {
	Status    string `json:"status"`
	Username  string `json:"username"`
	Points    int    `json:"points"`
	IsPremium bool   `json:"is_premium"`
}

// SendMessageRequest is the body of POST /api/admin/send-message.
type SendMessageRequest struct {
	Username string `json:"username" validate:"notblank"`
	Type     string `json:"type" validate:"required,oneof=success warning failure"`
	Title    string `json:"title" validate:"notblank"`
	Text     string `json:"text" validate:"notblank"`
}

// AdminUsers lists every user record.
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	all, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AdminUsersResponse{Users: all})
}

// GrantPoints adds points to an existing user. Negative grants are allowed;
// the balance never drops below zero.
func (h *Handler) GrantPoints(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "user")
	points, err := strconv.Atoi(chi.URLParam(r, "points"))
	if err != nil {
		apperr.Write(w, apperr.BadRequest("Points must be an integer"))
		return
	}

	u, err := h.users.GrantPoints(r.Context(), username, points)
	if users.IsNotFound(err) {
		apperr.Write(w, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("username", username).
		Int("points", points).
		Int("total", u.Points).
		Msg("Admin granted points")
	respondJSON(w, http.StatusOK, GrantPointsResponse{
		Status:    "success",
		Username:  username,
		Points:    u.Points,
		IsPremium: u.IsPremium,
	})
}

// SendMessage queues a message for an existing user.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	err := h.users.SendMessage(r.Context(), req.Username, users.Message{
		Type:  users.MessageType(req.Type),
		Title: req.Title,
		Text:  req.Text,
	})
	if users.IsNotFound(err) {
		apperr.Write(w, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
