// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
)

// Route prefixes and pages the Gate knows about.
const (
	StaticPrefix = "/Frontend/"
	LandingPage  = "/Frontend/index.html"
	BlockedPage  = "/Frontend/blocked.html"
	CallbackPath = "/auth/callback"
)

// Authorization decisions, used as metric labels.
const (
	decisionPublic       = "public"
	decisionStatic       = "static"
	decisionAllow        = "allow"
	decisionRedirect     = "redirect"
	decisionUnauthorized = "unauthorized"
	decisionBlocked      = "blocked"
)

var publicPaths = map[string]bool{
	CallbackPath:  true,
	"/login":      true,
	"/logout":     true,
	"/check-auth": true,
	"/healthz":    true,
	"/metrics":    true,
	BlockedPage:   true,
}

// IsPublicPath reports whether path is served without authentication.
func IsPublicPath(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, "/referral/")
}

// StaticFileName maps a request path under /Frontend to the file it names.
// ok is false for non-canonical paths (trailing slash on a file, "." or ".."
// segments, repeated slashes); those are never served.
func StaticFileName(p string) (name string, ok bool) {
	if p == "/Frontend" || p == StaticPrefix {
		return "index.html", true
	}
	if !strings.HasPrefix(p, StaticPrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(p, StaticPrefix)
	if path.Clean("/"+rest) != "/"+rest {
		return "", false
	}
	return rest, true
}

// isStaticHTML reports whether a /Frontend path needs a session. Anything
// under /Frontend that does not resolve to a canonical non-HTML file is
// treated as a page.
func isStaticHTML(p string) bool {
	if p != "/Frontend" && !strings.HasPrefix(p, StaticPrefix) {
		return false
	}
	name, ok := StaticFileName(p)
	return !ok || strings.HasSuffix(strings.ToLower(name), ".html")
}

func isLandingPage(p string) bool {
	name, ok := StaticFileName(p)
	return ok && name == "index.html"
}

// isProgrammatic reports whether the caller expects a JSON error rather
// than a redirect.
func isProgrammatic(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return r.URL.Path == "/stats" || strings.HasPrefix(r.URL.Path, "/stats/")
}

// Gate is the request authorization middleware.
type Gate struct {
	codec    *CookieCodec
	provider IdentityProvider
	isp      *ISPGuard
	security *logging.SecurityLogger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithISPGuard replaces the session check with the ISP allow-list.
func WithISPGuard(g *ISPGuard) GateOption {
	return func(gate *Gate) { gate.isp = g }
}

// NewGate creates the authorization middleware.
func NewGate(codec *CookieCodec, provider IdentityProvider, opts ...GateOption) *Gate {
	g := &Gate{
		codec:    codec,
		provider: provider,
		security: logging.NewSecurityLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware evaluates the authorization rules in order; the first match
// wins.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path

		switch {
		case IsPublicPath(p):
			metrics.RecordAuthDecision(decisionPublic)
			sess, _ := g.session(r) //nolint:errcheck // public routes treat a bad cookie as empty
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))

		case isStaticHTML(p):
			sess, ok := g.authenticate(r)
			if !ok {
				g.deny(w, r, sess, false)
				return
			}
			metrics.RecordAuthDecision(decisionAllow)
			r = g.attach(r, sess)
			if isLandingPage(p) && sess.UserName != "" {
				serveWithWelcome(w, r, next, sess.UserName)
				return
			}
			next.ServeHTTP(w, r)

		case strings.HasPrefix(p, StaticPrefix):
			metrics.RecordAuthDecision(decisionStatic)
			next.ServeHTTP(w, r)

		default:
			sess, ok := g.authenticate(r)
			if !ok {
				g.deny(w, r, sess, isProgrammatic(r))
				return
			}
			metrics.RecordAuthDecision(decisionAllow)
			next.ServeHTTP(w, g.attach(r, sess))
		}
	})
}

// RedirectToLogin stores a fresh OAuth state in the session and sends the
// browser to the provider.
func (g *Gate) RedirectToLogin(w http.ResponseWriter, r *http.Request, sess *Session) error {
	state, err := NewState()
	if err != nil {
		return err
	}
	if sess == nil {
		sess = &Session{}
	}
	sess.OAuthState = state
	if err := g.codec.Save(w, sess); err != nil {
		return err
	}
	http.Redirect(w, r, g.provider.AuthURL(state), http.StatusFound)
	return nil
}

// session decodes the cookie. A decode failure yields an empty session.
func (g *Gate) session(r *http.Request) (*Session, error) {
	sess, err := g.codec.Load(r)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Discarding unreadable session cookie")
	}
	return sess, err
}

// authenticate decides whether r may proceed. A panic counts as a denial.
func (g *Gate) authenticate(r *http.Request) (sess *Session, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Ctx(r.Context()).Error().
				Str("panic", fmt.Sprint(rec)).
				Str("path", r.URL.Path).
				Msg("Authorization check panicked, treating as unauthenticated")
			sess, ok = &Session{}, false
		}
	}()

	sess, _ = g.session(r) //nolint:errcheck // logged in session()
	if g.isp != nil {
		return sess, g.isp.Allow(r.Context(), ClientIP(r))
	}
	return sess, sess.Authenticated()
}

func (g *Gate) attach(r *http.Request, sess *Session) *http.Request {
	ctx := WithSession(r.Context(), sess)
	if sess.UserName != "" {
		ctx = WithUser(ctx, sess.UserName)
	}
	return r.WithContext(ctx)
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, sess *Session, programmatic bool) {
	if g.isp != nil {
		metrics.RecordAuthDecision(decisionBlocked)
		http.Redirect(w, r, BlockedPage, http.StatusFound)
		return
	}

	if programmatic {
		metrics.RecordAuthDecision(decisionUnauthorized)
		apperr.Write(w, apperr.Unauthenticated("Authentication required"))
		return
	}

	metrics.RecordAuthDecision(decisionRedirect)
	if err := g.RedirectToLogin(w, r, sess); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to start login redirect")
		apperr.Write(w, apperr.Unauthenticated("Authentication required"))
	}
}
