// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"context"
	"net/url"

	"github.com/tomtom215/curtains/internal/apperr"
)

// Identity is what a successful code exchange yields.
type Identity struct {
	DisplayName string
	AccessToken string
}

// IdentityProvider runs the authorization code flow against an external
// identity service. Exchange failures are *apperr.Error values carrying the
// status the callback should answer with.
type IdentityProvider interface {
	// AuthURL returns where to send the browser to log in.
	AuthURL(state string) string

	// Exchange trades an authorization code for the caller's identity.
	Exchange(ctx context.Context, code string) (Identity, error)

	// LogoutURL returns where to send the browser after clearing the
	// session, or "/" when the provider has no logout endpoint.
	LogoutURL() string
}

// StaticProvider logs everyone in as one fixed user. It is used in test
// mode, where no identity service is reachable.
type StaticProvider struct {
	User string
}

// NewStaticProvider returns a provider that always logs in as user.
func NewStaticProvider(user string) *StaticProvider {
	if user == "" {
		user = "Test User"
	}
	return &StaticProvider{User: user}
}

// AuthURL points straight back at the callback with a fixed code.
func (p *StaticProvider) AuthURL(state string) string {
	q := url.Values{}
	q.Set("code", "test")
	q.Set("state", state)
	return "/auth/callback?" + q.Encode()
}

// Exchange accepts any non-empty code.
func (p *StaticProvider) Exchange(_ context.Context, code string) (Identity, error) {
	if code == "" {
		return Identity{}, apperr.BadRequest("No code received")
	}
	return Identity{DisplayName: p.User, AccessToken: "test-token"}, nil
}

// LogoutURL returns the site root.
func (p *StaticProvider) LogoutURL() string { return "/" }

// NoLoginProvider is used in ISP mode without an identity registration.
// Login attempts land on the blocked page.
type NoLoginProvider struct{}

// AuthURL returns the blocked page.
func (NoLoginProvider) AuthURL(string) string { return BlockedPage }

// Exchange always fails.
func (NoLoginProvider) Exchange(context.Context, string) (Identity, error) {
	return Identity{}, apperr.Unauthenticated("Login is not available")
}

// LogoutURL returns the site root.
func (NoLoginProvider) LogoutURL() string { return "/" }

var (
	_ IdentityProvider = (*StaticProvider)(nil)
	_ IdentityProvider = NoLoginProvider{}
)
