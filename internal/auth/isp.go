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
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tomtom215/curtains/internal/cache"
	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
)

const (
	// DefaultISPEndpoint is the ip-api.com lookup; {ip} is replaced.
	DefaultISPEndpoint = "http://ip-api.com/json/{ip}?fields=isp"

	ispLookupTimeout = 5 * time.Second

	// ip-api.com free tier allows 45 requests per minute.
	ispRequestsPerMinute = 45
)

var errISPRateLimited = errors.New("ISP lookup rate limit reached")

// ISPGuard admits callers whose IP is registered to one ISP.
type ISPGuard struct {
	allowed  string
	endpoint string
	client   *http.Client
	cache    *cache.Cache[bool]
	group    singleflight.Group
	limiter  *rate.Limiter
	security *logging.SecurityLogger
}

// ISPOption configures an ISPGuard.
type ISPOption func(*ISPGuard)

// WithISPEndpoint overrides the lookup URL template.
func WithISPEndpoint(endpoint string) ISPOption {
	return func(g *ISPGuard) { g.endpoint = endpoint }
}

// WithISPHTTPClient overrides the HTTP client.
func WithISPHTTPClient(c *http.Client) ISPOption {
	return func(g *ISPGuard) { g.client = c }
}

// WithISPLimiter overrides the outbound lookup limiter.
func WithISPLimiter(l *rate.Limiter) ISPOption {
	return func(g *ISPGuard) { g.limiter = l }
}

// NewISPGuard creates a guard allowing allowedISP. Verdicts are cached for
// ttl.
func NewISPGuard(allowedISP string, ttl time.Duration, opts ...ISPOption) *ISPGuard {
	g := &ISPGuard{
		allowed:  allowedISP,
		endpoint: DefaultISPEndpoint,
		client:   &http.Client{Timeout: ispLookupTimeout},
		cache:    cache.New[bool](ttl),
		limiter:  rate.NewLimiter(rate.Every(time.Minute/ispRequestsPerMinute), ispRequestsPerMinute),
		security: logging.NewSecurityLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cache exposes the verdict cache so a janitor can expire entries.
func (g *ISPGuard) Cache() *cache.Cache[bool] { return g.cache }

// Allow reports whether ip may proceed. Loopback is always allowed; any
// lookup failure denies.
func (g *ISPGuard) Allow(ctx context.Context, ip string) bool {
	if ip == "127.0.0.1" {
		return true
	}
	if ip == "" {
		return false
	}

	if allowed, ok := g.cache.Get(ip); ok {
		metrics.ISPLookupsTotal.WithLabelValues("cached").Inc()
		return allowed
	}

	v, err, _ := g.group.Do(ip, func() (interface{}, error) {
		return g.lookup(ctx, ip)
	})
	if err != nil {
		metrics.ISPLookupsTotal.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("ip", ip).Msg("ISP lookup failed, denying")
		return false
	}
	allowed, _ := v.(bool) //nolint:errcheck // lookup only returns bool
	return allowed
}

type ispResponse struct {
	ISP     string `json:"isp"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (g *ISPGuard) lookup(ctx context.Context, ip string) (bool, error) {
	if !g.limiter.Allow() {
		return false, errISPRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, ispLookupTimeout)
	defer cancel()

	target := strings.ReplaceAll(g.endpoint, "{ip}", url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return false, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("ISP lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("ISP lookup returned status %d", resp.StatusCode)
	}

	var body ispResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return false, fmt.Errorf("decode ISP lookup: %w", err)
	}
	if body.Status == "fail" {
		return false, fmt.Errorf("ISP lookup failed: %s", body.Message)
	}

	allowed := body.ISP == g.allowed
	g.cache.Set(ip, allowed)
	if allowed {
		metrics.ISPLookupsTotal.WithLabelValues("allowed").Inc()
	} else {
		metrics.ISPLookupsTotal.WithLabelValues("blocked").Inc()
		g.security.LogISPBlocked(ip, body.ISP)
	}
	return allowed, nil
}
