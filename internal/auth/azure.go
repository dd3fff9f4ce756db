// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"
	"golang.org/x/oauth2"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/config"
	"github.com/tomtom215/curtains/internal/logging"
)

const (
	defaultExchangeTimeout = 15 * time.Second
	clientAssertionTTL     = 10 * time.Minute
	fallbackDisplayName    = "User"
)

// AzureOptions configures an AzureProvider.
type AzureOptions struct {
	Issuer      string
	ClientID    string
	RedirectURI string
	Scopes      []string

	// GraphURL is the profile endpoint queried for the display name.
	GraphURL string

	// PostLogoutRedirectURI is appended to the end-session URL when set.
	PostLogoutRedirectURI string

	Certificate *ClientCertificate
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// AzureProvider runs the Azure AD (Entra ID) authorization code flow. The
// application authenticates to the token endpoint with a certificate-signed
// client assertion instead of a client secret.
type AzureProvider struct {
	rp         rp.RelyingParty
	clientID   string
	graphURL   string
	postLogout string
	cert       *ClientCertificate
	timeout    time.Duration
	httpClient *http.Client
	now        func() time.Time
}

// NewAzureProvider performs OIDC discovery against opts.Issuer.
func NewAzureProvider(ctx context.Context, opts AzureOptions) (*AzureProvider, error) {
	if opts.Certificate == nil {
		return nil, errors.New("client certificate is required")
	}
	if opts.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultExchangeTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if len(opts.Scopes) == 0 {
		opts.Scopes = []string{oidc.ScopeOpenID, oidc.ScopeProfile, "User.Read"}
	}

	relyingParty, err := rp.NewRelyingPartyOIDC(ctx,
		opts.Issuer,
		opts.ClientID,
		"",
		opts.RedirectURI,
		opts.Scopes,
		rp.WithHTTPClient(opts.HTTPClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create relying party: %w", err)
	}

	return &AzureProvider{
		rp:         relyingParty,
		clientID:   opts.ClientID,
		graphURL:   opts.GraphURL,
		postLogout: opts.PostLogoutRedirectURI,
		cert:       opts.Certificate,
		timeout:    opts.Timeout,
		httpClient: opts.HTTPClient,
		now:        time.Now,
	}, nil
}

// NewAzureProviderFromConfig loads the client certificate and discovers the
// tenant's endpoints.
func NewAzureProviderFromConfig(ctx context.Context, cfg config.IdentityConfig, publicURL string) (*AzureProvider, error) {
	cert, err := LoadClientCertificate(cfg.CertPath, cfg.CertPassword, cfg.CertThumbprint)
	if err != nil {
		return nil, err
	}
	return NewAzureProvider(ctx, AzureOptions{
		Issuer:                cfg.IssuerURL(),
		ClientID:              cfg.ClientID,
		RedirectURI:           cfg.RedirectURI,
		Scopes:                cfg.Scopes,
		GraphURL:              cfg.GraphURL,
		PostLogoutRedirectURI: publicURL,
		Certificate:           cert,
		Timeout:               cfg.Timeout,
	})
}

// AuthURL returns the authorization endpoint URL carrying state.
func (p *AzureProvider) AuthURL(state string) string {
	return rp.AuthURL(state, p.rp)
}

// LogoutURL returns the tenant's end-session endpoint, or "/".
func (p *AzureProvider) LogoutURL() string {
	endpoint := p.rp.GetEndSessionEndpoint()
	if endpoint == "" {
		return "/"
	}
	if p.postLogout == "" {
		return endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	q.Set("post_logout_redirect_uri", p.postLogout)
	u.RawQuery = q.Encode()
	return u.String()
}

// Exchange redeems code at the token endpoint and resolves the display name.
func (p *AzureProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	assertion, err := p.clientAssertion()
	if err != nil {
		return Identity{}, apperr.Upstream(0, "Authentication error: "+err.Error(), err)
	}

	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, p.rp, rp.WithClientAssertionJWT(assertion))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			detail := re.ErrorDescription
			if detail == "" {
				detail = "Authentication failed"
			}
			e := apperr.Unauthenticated(detail)
			e.Err = err
			return Identity{}, e
		}
		// x/oauth2 rejects a token response without an access token
		// before it reaches the caller.
		if strings.Contains(err.Error(), "missing access_token") {
			return Identity{}, apperr.Unauthenticated("No access token received")
		}
		return Identity{}, apperr.Upstream(0, "Authentication error: "+err.Error(), err)
	}

	if tokens.Token == nil || tokens.AccessToken == "" {
		return Identity{}, apperr.Unauthenticated("No access token received")
	}

	name, err := p.fetchDisplayName(ctx, tokens.AccessToken)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Graph profile lookup failed, using ID token name")
	}
	if name == "" && tokens.IDTokenClaims != nil {
		name = tokens.IDTokenClaims.Name
	}
	if name == "" {
		name = fallbackDisplayName
	}

	return Identity{DisplayName: name, AccessToken: tokens.AccessToken}, nil
}

// clientAssertion signs the RFC 7523 JWT Azure AD accepts in place of a
// client secret.
func (p *AzureProvider) clientAssertion() (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		Issuer:    p.clientID,
		Subject:   p.clientID,
		Audience:  jwt.ClaimStrings{p.rp.OAuthConfig().Endpoint.TokenURL},
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(clientAssertionTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["x5t"] = p.cert.Thumbprint

	signed, err := token.SignedString(p.cert.Key)
	if err != nil {
		return "", fmt.Errorf("sign client assertion: %w", err)
	}
	return signed, nil
}

type graphProfile struct {
	DisplayName string `json:"displayName"`
}

func (p *AzureProvider) fetchDisplayName(ctx context.Context, accessToken string) (string, error) {
	if p.graphURL == "" {
		return "", nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphURL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return "", fmt.Errorf("graph returned status %d", resp.StatusCode)
	}

	var profile graphProfile
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&profile); err != nil {
		return "", fmt.Errorf("decode graph profile: %w", err)
	}
	return profile.DisplayName, nil
}
