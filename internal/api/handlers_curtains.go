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
	"github.com/tomtom215/curtains/internal/curtains"
	"github.com/tomtom215/curtains/internal/stats"
)

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Data      []stats.Row `json:"data"`
	RoomCount int         `json:"room_count"`
}

// AllStatsResponse is the body of GET /stats/all.
type AllStatsResponse struct {
	Data             []stats.Day `json:"data"`
	TotalUniqueRooms int         `json:"total_unique_rooms"`
}

// Register lists the direction names of a room.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	names, err := h.rooms.DirectionNames(chi.URLParam(r, "room"))
	if err != nil {
		apperr.Write(w, apperr.NotFound("Room not found"))
		return
	}
	h.refreshSession(w, r)
	respondJSON(w, http.StatusOK, names)
}

// Control sends a curtain command.
func (h *Handler) Control(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	result, err := h.controller.Control(r.Context(), curtains.Command{
		Room:      chi.URLParam(r, "room"),
		Action:    chi.URLParam(r, "action"),
		Direction: r.URL.Query().Get("direction"),
		User:      user,
		ClientIP:  auth.ClientIP(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.refreshSession(w, r)
	respondJSON(w, http.StatusOK, result)
}

// Stats returns today's per-room counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.stats.Daily(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	count, err := h.stats.RoomCount(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, StatsResponse{Data: rows, RoomCount: count})
}

// AllStats returns every recorded day, newest first.
func (h *Handler) AllStats(w http.ResponseWriter, r *http.Request) {
	days, err := h.stats.All(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := h.stats.TotalUniqueRooms(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AllStatsResponse{Data: days, TotalUniqueRooms: total})
}
