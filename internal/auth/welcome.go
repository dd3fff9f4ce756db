// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"bytes"
	"html"
	"net/http"
	"strconv"
)

const welcomePlaceholder = `<div id="welcome-message" class="welcome-message"></div>`

func welcomeMessage(name string) string {
	return `<div id="welcome-message" class="welcome-message">Hello ` + html.EscapeString(name) + `!</div>`
}

// bufferedResponse collects a downstream response so it can be rewritten.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// serveWithWelcome serves the landing page with the greeting filled in.
// Conditional and range headers are dropped so the full body is always
// produced and rewritten.
func serveWithWelcome(w http.ResponseWriter, r *http.Request, next http.Handler, name string) {
	r = r.Clone(r.Context())
	for _, h := range []string{"If-Modified-Since", "If-None-Match", "If-Range", "Range"} {
		r.Header.Del(h)
	}

	buf := &bufferedResponse{header: make(http.Header)}
	next.ServeHTTP(buf, r)
	if buf.status == 0 {
		buf.status = http.StatusOK
	}

	body := buf.body.Bytes()
	if buf.status == http.StatusOK {
		body = bytes.Replace(body, []byte(welcomePlaceholder), []byte(welcomeMessage(name)), 1)
	}

	dst := w.Header()
	for k, v := range buf.header {
		dst[k] = v
	}
	dst.Del("ETag")
	dst.Set("Content-Length", strconv.Itoa(len(body)))
	dst.Set("Cache-Control", "no-store")

	w.WriteHeader(buf.status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body) //nolint:errcheck // client went away
	}
}
