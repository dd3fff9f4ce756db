// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validEnv is the minimum environment for a non-test-mode deployment.
var validEnv = map[string]string{
	"SERVER_IP":          "10.0.0.5",
	"SERVER_PORT_A":      "8443",
	"SERVER_PORT_B":      "8444",
	"CURTAINS_USERNAME":  "ctl",
	"CURTAINS_PASSWORD":  "pw",
	"AZURE_TENANT_ID":    "tenant",
	"AZURE_CLIENT_ID":    "client",
	"AZURE_REDIRECT_URI": "https://curtains.example.com/auth/callback",
	"CERT_PATH":          "/certs/app.pfx",
}

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "none.yaml"))
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Security.AuthMode != "identity" {
		t.Errorf("Security.AuthMode = %q, want identity", cfg.Security.AuthMode)
	}
	if cfg.Security.SessionTTL != 7*24*time.Hour {
		t.Errorf("Security.SessionTTL = %v, want 168h", cfg.Security.SessionTTL)
	}
	if cfg.Curtains.Timeout != 10*time.Second {
		t.Errorf("Curtains.Timeout = %v, want 10s", cfg.Curtains.Timeout)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.UsersFile != "users.json" {
		t.Errorf("Storage.UsersFile = %q, want users.json", cfg.Storage.UsersFile)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	setEnv(t, validEnv)
	t.Setenv("ADMIN_USERNAMES", "Alice Smith, bob ,")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1,192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Curtains.ServerIP != "10.0.0.5" {
		t.Errorf("ServerIP = %q", cfg.Curtains.ServerIP)
	}
	if cfg.Curtains.Port("A") != "8443" || cfg.Curtains.Port("B") != "8444" || cfg.Curtains.Port("C") != "" {
		t.Errorf("ports = %q %q %q", cfg.Curtains.Port("A"), cfg.Curtains.Port("B"), cfg.Curtains.Port("C"))
	}
	if cfg.Curtains.Timeout != 3*time.Second {
		t.Errorf("Curtains.Timeout = %v, want 3s", cfg.Curtains.Timeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	admins := cfg.Security.AdminUsernames
	if len(admins) != 2 || admins[0] != "Alice Smith" || admins[1] != "bob" {
		t.Errorf("AdminUsernames = %v", admins)
	}
	if proxies := cfg.Security.TrustedProxies; len(proxies) != 2 || proxies[1] != "192.168.0.0/16" {
		t.Errorf("TrustedProxies = %v", proxies)
	}
	if got := cfg.Identity.IssuerURL(); got != "https://login.microsoftonline.com/tenant/v2.0" {
		t.Errorf("IssuerURL = %q", got)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
test_mode: true
server:
  port: 7000
security:
  admin_usernames: ["root"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.TestMode {
		t.Error("TestMode should come from the file")
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("env should override file: Port = %d", cfg.Server.Port)
	}
	if len(cfg.Security.AdminUsernames) != 1 || cfg.Security.AdminUsernames[0] != "root" {
		t.Errorf("AdminUsernames = %v", cfg.Security.AdminUsernames)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.TestMode = true
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"test mode defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "AUTH_MODE"},
		{"isp without isp", func(c *Config) { c.Security.AuthMode = "isp" }, "ALLOWED_ISP"},
		{"short key in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.CORSOrigins = []string{"https://x.example"}
			c.Security.SessionSecretKey = "short"
		}, "SESSION_SECRET_KEY"},
		{"wildcard cors in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.SessionSecretKey = strings.Repeat("k", 32)
		}, "CORS_ORIGINS"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, "STORAGE_BACKEND"},
		{"users file extension", func(c *Config) { c.Storage.UsersFile = "users.db" }, "USERS_FILE"},
		{"trusted proxies", func(c *Config) { c.Security.TrustedProxies = []string{"10.0.0.1", "172.16.0.0/12"} }, ""},
		{"bad trusted proxy", func(c *Config) { c.Security.TrustedProxies = []string{"proxy.local"} }, "TRUSTED_PROXIES"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"controller required outside test mode", func(c *Config) { c.TestMode = false }, "SERVER_IP"},
		{"bad controller port", func(c *Config) {
			c.TestMode = false
			c.Curtains.ServerIP = "10.0.0.1"
			c.Curtains.Username = "u"
			c.Curtains.PortA = "http"
		}, "SERVER_PORT_A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	if got := envTransformFunc("SERVER_PORT_C"); got != "curtains.port_c" {
		t.Errorf("SERVER_PORT_C -> %q", got)
	}
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("PATH -> %q, want empty", got)
	}
}
