// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package api

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/auth"
	"github.com/tomtom215/curtains/internal/feedback"
	"github.com/tomtom215/curtains/internal/logging"
)

// FeedbackResponse is returned by the report and t-shirt endpoints.
type FeedbackResponse struct {
	Message string `json:"message"`
}

// Root redirects to the landing page.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, auth.LandingPage, http.StatusFound)
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SubmitReport appends a problem report.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	h.appendFeedback(w, r, h.reports, chi.URLParam(r, "report"))
}

// SubmitTShirtRequest appends a t-shirt request.
func (h *Handler) SubmitTShirtRequest(w http.ResponseWriter, r *http.Request) {
	h.appendFeedback(w, r, h.tshirts, chi.URLParam(r, "content"))
}

func (h *Handler) appendFeedback(w http.ResponseWriter, r *http.Request, j *feedback.Journal, text string) {
	name, ok := requireUser(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(text) == "" {
		apperr.Write(w, apperr.BadRequest("Report cannot be empty"))
		return
	}
	if err := j.Append(name, text); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, FeedbackResponse{Message: "Report submitted successfully"})
}

// Static serves files under /Frontend. Directory requests get index.html
// directly, without the redirect http.FileServer would issue, so the
// authorization layer can rewrite the landing page.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	if h.static == nil {
		apperr.Write(w, apperr.NotFound("Not found"))
		return
	}

	// The Gate classifies requests with the same resolver, so a file is only
	// served under the name it was authorized as.
	name, ok := auth.StaticFileName(r.URL.Path)
	if !ok {
		apperr.Write(w, apperr.NotFound("Not found"))
		return
	}

	f, err := h.static.Open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Ctx(r.Context()).Warn().Err(err).Str("file", name).Msg("Static file open failed")
		}
		apperr.Write(w, apperr.NotFound("Not found"))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		apperr.Write(w, apperr.NotFound("Not found"))
		return
	}

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			respondError(w, r, err)
			return
		}
		rs = strings.NewReader(string(data))
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), rs)
}
