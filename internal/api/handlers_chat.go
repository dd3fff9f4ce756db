// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/chat"
	"github.com/tomtom215/curtains/internal/validation"
)

const maxBodyBytes = 64 << 10

// ChatSendRequest is the body of POST /api/chat/send.
type ChatSendRequest struct {
	Message string `json:"message" validate:"notblank"`
}

// ChatMessagesResponse is the body of GET /api/chat/messages.
type ChatMessagesResponse struct {
	Messages []chat.Message `json:"messages"`
}

// decodeBody reads a JSON request body into dst and validates it.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return apperr.BadRequest("Invalid JSON body")
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr.ToAppError()
	}
	return nil
}

// ChatMessages returns the recent chat log.
func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.Recent(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ChatMessagesResponse{Messages: msgs})
}

// ChatSend posts a message as the caller.
func (h *Handler) ChatSend(w http.ResponseWriter, r *http.Request) {
	name, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ChatSendRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	u, _, err := h.users.Get(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	msg, err := h.chat.Send(r.Context(), name, req.Message, u.IsPremium)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		respondError(w, r, apperr.BadRequest("Message cannot be empty"))
		return
	case errors.Is(err, chat.ErrMessageTooLong):
		respondError(w, r, apperr.BadRequest("Message cannot exceed %d characters", chat.MaxMessageLength))
		return
	case err != nil:
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "message": msg})
}
