// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package logging

import (
	"github.com/rs/zerolog"
)

// SecurityLogger records authentication and access decisions with
// sensitive values masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("auth")}
}

// NewSecurityLoggerWithLogger creates a security logger on a specific logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// LogLoginSuccess records a completed identity callback.
func (l *SecurityLogger) LogLoginSuccess(username string, created bool, ip string) {
	l.logger.Info().
		Str("event", "login_success").
		Str("username", username).
		Bool("new_user", created).
		Str("ip", ip).
		Msg("")
}

// LogLoginFailure records a rejected identity callback.
func (l *SecurityLogger) LogLoginFailure(reason, ip string) {
	l.logger.Warn().
		Str("event", "login_failure").
		Str("reason", truncateString(reason, 200)).
		Str("ip", ip).
		Msg("")
}

// LogLogout records an explicit logout.
func (l *SecurityLogger) LogLogout(username, ip string) {
	l.logger.Info().Str("event", "logout").Str("username", username).Str("ip", ip).Msg("")
}

// LogAdminDenied records a non-admin hitting an admin route.
func (l *SecurityLogger) LogAdminDenied(username, path string) {
	l.logger.Warn().Str("event", "admin_denied").Str("username", username).Str("path", path).Msg("")
}

// LogISPBlocked records a caller rejected by the ISP allow-list.
func (l *SecurityLogger) LogISPBlocked(ip, isp string) {
	l.logger.Warn().Str("event", "isp_blocked").Str("ip", ip).Str("isp", isp).Msg("")
}

// SanitizeToken masks a token, keeping the first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
