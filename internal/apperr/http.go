// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package apperr

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Body is the JSON shape of every error response.
type Body struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// Write renders err as a JSON error response. Anything that is not an
// *Error is reported as a 500 with a generic detail.
func Write(w http.ResponseWriter, err error) {
	e := From(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(Body{Detail: e.Detail, Code: string(e.Kind)})
}
