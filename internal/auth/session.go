// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"

	"github.com/tomtom215/curtains/internal/logging"
)

// SessionCookieName is the cookie holding the encoded session.
const SessionCookieName = "session"

// maxCookieSize keeps the encoded cookie under the common 4KB browser limit.
const maxCookieSize = 4000

// ErrSessionExpired is returned by Load for a session older than the TTL.
var ErrSessionExpired = errors.New("session expired")

// Session is the per-browser state.
type Session struct {
	UserName        string    `json:"user_name,omitempty"`
	PendingReferral string    `json:"pending_referral,omitempty"`
	AccessToken     string    `json:"access_token,omitempty"`
	OAuthState      string    `json:"oauth_state,omitempty"`
	IssuedAt        time.Time `json:"issued_at"`
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserName != ""
}

// jsonSerializer lets securecookie encode sessions with goccy/go-json.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(src interface{}) ([]byte, error) {
	return json.Marshal(src)
}

func (jsonSerializer) Deserialize(src []byte, dst interface{}) error {
	return json.Unmarshal(src, dst)
}

// CookieCodec reads and writes the session cookie.
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// deriveKeys expands secret into independent HMAC and AES keys.
func deriveKeys(secret []byte) (hashKey, blockKey []byte, err error) {
	r := hkdf.New(sha256.New, secret, []byte("curtains-session"), []byte("cookie keys"))
	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, nil, err
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}

// NewCookieCodec derives cookie keys from secret. An empty secret gets a
// random one, so sessions do not survive a restart.
func NewCookieCodec(secret string, ttl time.Duration, secure bool) (*CookieCodec, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
		logging.Warn().Msg("SESSION_SECRET_KEY not set, using a random key; sessions end on restart")
	}
	hashKey, blockKey, err := deriveKeys(key)
	if err != nil {
		return nil, fmt.Errorf("derive session keys: %w", err)
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(jsonSerializer{})
	sc.MaxAge(int(ttl.Seconds()))
	sc.MaxLength(0)

	return &CookieCodec{sc: sc, ttl: ttl, secure: secure, now: time.Now}, nil
}

// Load decodes the session cookie. A missing cookie yields an empty session
// and no error; an invalid or expired cookie yields an empty session and
// the reason.
func (c *CookieCodec) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return &Session{}, nil
	}
	if err != nil {
		return &Session{}, err
	}

	var s Session
	if err := c.sc.Decode(SessionCookieName, cookie.Value, &s); err != nil {
		return &Session{}, fmt.Errorf("decode session: %w", err)
	}
	if !s.IssuedAt.IsZero() && c.now().Sub(s.IssuedAt) > c.ttl {
		return &Session{}, ErrSessionExpired
	}
	return &s, nil
}

// Save encodes s into the cookie. IssuedAt is stamped on first save. When
// the encoded cookie would be too large the access token is dropped.
func (c *CookieCodec) Save(w http.ResponseWriter, s *Session) error {
	if s.IssuedAt.IsZero() {
		s.IssuedAt = c.now()
	}
	value, err := c.sc.Encode(SessionCookieName, s)
	if (err != nil || len(value) > maxCookieSize) && s.AccessToken != "" {
		logging.Debug().Int("size", len(value)).Msg("Session cookie too large, dropping access token")
		trimmed := *s
		trimmed.AccessToken = ""
		value, err = c.sc.Encode(SessionCookieName, &trimmed)
	}
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		Expires:  s.IssuedAt.Add(c.ttl),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Refresh restarts the TTL of an authenticated session.
func (c *CookieCodec) Refresh(w http.ResponseWriter, s *Session) error {
	if !s.Authenticated() {
		return nil
	}
	s.IssuedAt = c.now()
	return c.Save(w, s)
}

// Clear deletes the cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// NewState returns a random value for the OAuth state parameter.
func NewState() (string, error) {
	return generateSecureRandom(32)
}
