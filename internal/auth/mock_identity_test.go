// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

const clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// mockIdentityServer serves OIDC discovery, JWKS, a token endpoint that
// requires a certificate client assertion, and a Graph-style /me endpoint.
type mockIdentityServer struct {
	Server   *httptest.Server
	Issuer   string
	ClientID string

	// ClientKey verifies client assertions; Thumbprint is the expected x5t.
	ClientKey  *rsa.PublicKey
	Thumbprint string

	// Response knobs.
	DisplayName     string
	IDTokenName     string
	GraphStatus     int
	OmitAccessToken bool

	signingKey *rsa.PrivateKey
	keyID      string

	mu     sync.Mutex
	codes  map[string]bool
	tokens map[string]bool
}

func newMockIdentityServer(t *testing.T, clientID string, cert *ClientCertificate) *mockIdentityServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	m := &mockIdentityServer{
		ClientID:    clientID,
		ClientKey:   &cert.Key.PublicKey,
		Thumbprint:  cert.Thumbprint,
		DisplayName: "Alice Graph",
		IDTokenName: "Alice Token",
		GraphStatus: http.StatusOK,
		signingKey:  key,
		keyID:       "test-key",
		codes:       make(map[string]bool),
		tokens:      make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", m.handleDiscovery)
	mux.HandleFunc("/jwks", m.handleJWKS)
	mux.HandleFunc("/token", m.handleToken)
	mux.HandleFunc("/me", m.handleMe)

	m.Server = httptest.NewServer(mux)
	m.Issuer = m.Server.URL
	t.Cleanup(m.Server.Close)
	return m
}

// IssueCode registers a valid authorization code.
func (m *mockIdentityServer) IssueCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	code := fmt.Sprintf("code-%d", len(m.codes)+1)
	m.codes[code] = true
	return code
}

func (m *mockIdentityServer) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"issuer":                                m.Issuer,
		"authorization_endpoint":                m.Issuer + "/authorize",
		"token_endpoint":                        m.Issuer + "/token",
		"jwks_uri":                              m.Issuer + "/jwks",
		"end_session_endpoint":                  m.Issuer + "/logout",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"pairwise"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (m *mockIdentityServer) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	pub := m.signingKey.PublicKey
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys": []map[string]interface{}{{
			"kty": "RSA",
			"kid": m.keyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (m *mockIdentityServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		m.tokenError(w, "invalid_request", "")
		return
	}

	clientID := r.FormValue("client_id")
	if user, _, ok := r.BasicAuth(); ok && clientID == "" {
		clientID = user
	}
	if clientID != m.ClientID {
		m.tokenError(w, "invalid_client", "AADSTS700016: Application not found.")
		return
	}
	if r.FormValue("client_assertion_type") != clientAssertionType {
		m.tokenError(w, "invalid_client", "AADSTS7000218: client_assertion required.")
		return
	}
	if err := m.verifyAssertion(r.FormValue("client_assertion")); err != nil {
		m.tokenError(w, "invalid_client", "AADSTS700027: "+err.Error())
		return
	}

	code := r.FormValue("code")
	m.mu.Lock()
	valid := m.codes[code]
	delete(m.codes, code)
	m.mu.Unlock()
	if !valid {
		m.tokenError(w, "invalid_grant", "AADSTS70008: The provided authorization code has expired.")
		return
	}

	accessToken := ""
	if !m.OmitAccessToken {
		accessToken = "access-" + code
		m.mu.Lock()
		m.tokens[accessToken] = true
		m.mu.Unlock()
	}

	idToken, err := m.idToken()
	if err != nil {
		m.tokenError(w, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     idToken,
	})
}

func (m *mockIdentityServer) verifyAssertion(assertion string) error {
	token, err := jwt.Parse(assertion, func(*jwt.Token) (interface{}, error) {
		return m.ClientKey, nil
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(m.Issuer+"/token"),
		jwt.WithIssuer(m.ClientID),
		jwt.WithSubject(m.ClientID),
	)
	if err != nil {
		return err
	}
	if token.Header["x5t"] != m.Thumbprint {
		return fmt.Errorf("unexpected x5t %v", token.Header["x5t"])
	}
	return nil
}

func (m *mockIdentityServer) idToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  m.Issuer,
		"sub":  "subject-1",
		"aud":  m.ClientID,
		"exp":  now.Add(time.Hour).Unix(),
		"iat":  now.Unix(),
		"name": m.IDTokenName,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = m.keyID
	return token.SignedString(m.signingKey)
}

func (m *mockIdentityServer) handleMe(w http.ResponseWriter, r *http.Request) {
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	m.mu.Lock()
	known := m.tokens[bearer]
	m.mu.Unlock()
	if !known {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if m.GraphStatus != http.StatusOK {
		http.Error(w, "graph unavailable", m.GraphStatus)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"displayName": m.DisplayName})
}

func (m *mockIdentityServer) tokenError(w http.ResponseWriter, code, description string) {
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	writeJSON(w, http.StatusBadRequest, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test server
}
