// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Curtains CurtainsConfig `koanf:"curtains"`
	Identity IdentityConfig `koanf:"identity"`
	Security SecurityConfig `koanf:"security"`
	Storage  StorageConfig  `koanf:"storage"`
	Logging  LoggingConfig  `koanf:"logging"`

	// TestMode swaps the identity provider and the curtain gateway for
	// local stand-ins so the service runs without Azure or a controller.
	TestMode bool `koanf:"test_mode"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`

	// PublicURL is used to build referral links. Empty means derive from the request.
	PublicURL string `koanf:"public_url"`

	StaticDir string `koanf:"static_dir"`
	RoomsFile string `koanf:"rooms_file"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CurtainsConfig describes the building-automation controller.
type CurtainsConfig struct {
	ServerIP string `koanf:"server_ip"`
	PortA    string `koanf:"port_a"`
	PortB    string `koanf:"port_b"`
	PortC    string `koanf:"port_c"`

	// Username is the base controller user; the building suffix is appended.
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	MD5Value string `koanf:"md5_value"`

	Timeout time.Duration `koanf:"timeout"`
}

// Port returns the controller port for a building suffix, or "".
func (c CurtainsConfig) Port(suffix string) string {
	switch suffix {
	case "A":
		return c.PortA
	case "B":
		return c.PortB
	case "C":
		return c.PortC
	default:
		return ""
	}
}

// IdentityConfig holds the Azure AD application registration.
type IdentityConfig struct {
	TenantID       string        `koanf:"tenant_id"`
	ClientID       string        `koanf:"client_id"`
	RedirectURI    string        `koanf:"redirect_uri"`
	CertPath       string        `koanf:"cert_path"`
	CertPassword   string        `koanf:"cert_password"`
	CertThumbprint string        `koanf:"cert_thumbprint"`
	Scopes         []string      `koanf:"scopes"`
	GraphURL       string        `koanf:"graph_url"`
	Timeout        time.Duration `koanf:"timeout"`

	// TestUser is the display name the test-mode provider logs in as.
	TestUser string `koanf:"test_user"`
}

// IssuerURL returns the tenant's v2.0 OIDC issuer.
func (c IdentityConfig) IssuerURL() string {
	return "https://login.microsoftonline.com/" + c.TenantID + "/v2.0"
}

// SecurityConfig holds session, authorization and rate limiting settings.
type SecurityConfig struct {
	// AuthMode is "identity" (Azure login) or "isp" (ISP allow-list).
	AuthMode string `koanf:"auth_mode"`

	SessionSecretKey string        `koanf:"session_secret_key"`
	SessionTTL       time.Duration `koanf:"session_ttl"`
	CookieSecure     bool          `koanf:"cookie_secure"`

	AdminUsernames []string `koanf:"admin_usernames"`

	AllowedISP  string        `koanf:"allowed_isp"`
	ISPCacheTTL time.Duration `koanf:"isp_cache_ttl"`

	CORSOrigins []string `koanf:"cors_origins"`

	// TrustedProxies may report the client address via X-Forwarded-For.
	// Addresses or CIDR ranges; empty means forwarding headers are ignored.
	TrustedProxies []string `koanf:"trusted_proxies"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// StorageConfig locates persisted documents.
type StorageConfig struct {
	// Backend is "file" (JSON documents on disk) or "badger".
	Backend    string `koanf:"backend"`
	BadgerPath string `koanf:"badger_path"`

	UsersFile          string `koanf:"users_file"`
	ChatFile           string `koanf:"chat_file"`
	StatisticsFolder   string `koanf:"statistics_folder"`
	ReportsFile        string `koanf:"reports_file"`
	TShirtRequestsFile string `koanf:"tshirt_requests_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
	Dir    string `koanf:"dir"`
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// Load reads configuration from defaults, an optional file, and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
