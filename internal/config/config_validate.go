// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package config

import (
	"fmt"
	"net/netip"
	"path/filepath"
	"strconv"
	"strings"
)

// minSessionKeyLength is the shortest SESSION_SECRET_KEY accepted in production.
const minSessionKeyLength = 32

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCurtains(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateCurtains() error {
	if c.Curtains.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.TestMode {
		return nil
	}
	if c.Curtains.ServerIP == "" {
		return fmt.Errorf("SERVER_IP is required")
	}
	if c.Curtains.Username == "" {
		return fmt.Errorf("CURTAINS_USERNAME is required")
	}
	for _, suffix := range []string{"A", "B", "C"} {
		p := c.Curtains.Port(suffix)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("SERVER_PORT_%s must be a port number, got %q", suffix, p)
		}
	}
	return nil
}

func (c *Config) validateIdentity() error {
	if c.TestMode || c.Security.AuthMode == "isp" {
		return nil
	}
	if c.Identity.TenantID == "" {
		return fmt.Errorf("AZURE_TENANT_ID is required")
	}
	if c.Identity.ClientID == "" {
		return fmt.Errorf("AZURE_CLIENT_ID is required")
	}
	if c.Identity.RedirectURI == "" {
		return fmt.Errorf("AZURE_REDIRECT_URI is required")
	}
	if c.Identity.CertPath == "" {
		return fmt.Errorf("CERT_PATH is required")
	}
	hasOpenID := false
	for _, s := range c.Identity.Scopes {
		if s == "openid" {
			hasOpenID = true
		}
	}
	if !hasOpenID {
		return fmt.Errorf("AZURE_SCOPES must include 'openid'")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "identity":
	case "isp":
		if c.Security.AllowedISP == "" {
			return fmt.Errorf("ALLOWED_ISP is required when AUTH_MODE=isp")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be 'identity' or 'isp', got %q", c.Security.AuthMode)
	}

	if c.IsProduction() && len(c.Security.SessionSecretKey) < minSessionKeyLength {
		return fmt.Errorf("SESSION_SECRET_KEY must be at least %d characters in production", minSessionKeyLength)
	}
	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	if err := c.validateTrustedProxies(); err != nil {
		return err
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

// validateCORS rejects a wildcard origin in production: the session cookie
// is sent with credentials.
func (c *Config) validateCORS() error {
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed in production; list the allowed origins explicitly")
	}
	return nil
}

// validateTrustedProxies requires every entry to be an address or a CIDR range.
func (c *Config) validateTrustedProxies() error {
	for _, p := range c.Security.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP address or CIDR range", p)
		}
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "file":
		if !strings.HasSuffix(c.Storage.UsersFile, ".json") {
			return fmt.Errorf("USERS_FILE must end in .json, got %q", c.Storage.UsersFile)
		}
		if !strings.HasSuffix(c.Storage.ChatFile, ".json") {
			return fmt.Errorf("CHAT_FILE must end in .json, got %q", c.Storage.ChatFile)
		}
	case "badger":
		if c.Storage.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required when STORAGE_BACKEND=badger")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'file' or 'badger', got %q", c.Storage.Backend)
	}
	if c.Storage.StatisticsFolder == "" {
		return fmt.Errorf("STATISTICS_FOLDER is required")
	}
	if filepath.Clean(c.Storage.ReportsFile) == filepath.Clean(c.Storage.TShirtRequestsFile) {
		return fmt.Errorf("REPORTS_FILE and TSHIRT_REQUESTS_FILE must differ")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
