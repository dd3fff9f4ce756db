// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/curtains/config.yaml",
	"/etc/curtains/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
			StaticDir:   "Frontend",
			RoomsFile:   "rooms.json",
		},
		Curtains: CurtainsConfig{
			Timeout: 10 * time.Second,
		},
		Identity: IdentityConfig{
			Scopes:   []string{"openid", "profile", "User.Read"},
			GraphURL: "https://graph.microsoft.com/v1.0/me",
			Timeout:  15 * time.Second,
			TestUser: "Test User",
		},
		Security: SecurityConfig{
			AuthMode:        "identity",
			SessionTTL:      7 * 24 * time.Hour,
			ISPCacheTTL:     10 * time.Minute,
			CORSOrigins:     []string{"*"},
			TrustedProxies:  []string{},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Storage: StorageConfig{
			Backend:            "file",
			BadgerPath:         "data/badger",
			UsersFile:          "users.json",
			ChatFile:           "chat.json",
			StatisticsFolder:   "statistics",
			ReportsFile:        "reports.txt",
			TShirtRequestsFile: "tshirt_requests.txt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Dir:    "logs",
		},
	}
}

// LoadWithKoanf layers defaults, the config file and the environment, then validates.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings.
var sliceConfigPaths = []string{
	"security.admin_usernames",
	"security.cors_origins",
	"security.trusted_proxies",
	"identity.scopes",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Controller
	"server_ip":         "curtains.server_ip",
	"server_port_a":     "curtains.port_a",
	"server_port_b":     "curtains.port_b",
	"server_port_c":     "curtains.port_c",
	"curtains_username": "curtains.username",
	"curtains_password": "curtains.password",
	"md5_value":         "curtains.md5_value",
	"gateway_timeout":   "curtains.timeout",

	// Azure AD
	"azure_client_id":    "identity.client_id",
	"azure_tenant_id":    "identity.tenant_id",
	"azure_redirect_uri": "identity.redirect_uri",
	"azure_scopes":       "identity.scopes",
	"cert_path":          "identity.cert_path",
	"cert_password":      "identity.cert_password",
	"cert_thumbprint":    "identity.cert_thumbprint",
	"graph_url":          "identity.graph_url",
	"identity_timeout":   "identity.timeout",
	"test_mode_user":     "identity.test_user",

	// Security
	"auth_mode":           "security.auth_mode",
	"session_secret_key":  "security.session_secret_key",
	"session_ttl":         "security.session_ttl",
	"cookie_secure":       "security.cookie_secure",
	"admin_usernames":     "security.admin_usernames",
	"allowed_isp":         "security.allowed_isp",
	"isp_cache_ttl":       "security.isp_cache_ttl",
	"cors_origins":        "security.cors_origins",
	"trusted_proxies":     "security.trusted_proxies",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Storage
	"storage_backend":      "storage.backend",
	"badger_path":          "storage.badger_path",
	"users_file":           "storage.users_file",
	"chat_file":            "storage.chat_file",
	"statistics_folder":    "storage.statistics_folder",
	"reports_file":         "storage.reports_file",
	"tshirt_requests_file": "storage.tshirt_requests_file",

	// Server
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",
	"public_url":   "server.public_url",
	"static_dir":   "server.static_dir",
	"rooms_file":   "server.rooms_file",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
	"log_dir":    "logging.dir",

	"test_mode": "test_mode",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unknown names map to "" and are dropped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
