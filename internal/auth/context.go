// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

type contextKey string

const (
	userContextKey    contextKey = "auth_user"
	sessionContextKey contextKey = "auth_session"
)

// WithUser stores the authenticated display name in ctx.
func WithUser(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, userContextKey, name)
}

// UserFromContext returns the authenticated display name, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(userContextKey).(string)
	return name, ok && name != ""
}

// WithSession stores the decoded session in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext returns the session the Gate decoded, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok && s != nil
}

func generateSecureRandom(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
