// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package config loads service configuration with koanf.
//
// Sources are layered, later ones win:
//
//  1. Defaults from defaultConfig()
//  2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/curtains/config.yaml)
//  3. Environment variables
//
// Environment names are the ones the service has always used (SERVER_IP,
// SERVER_PORT_A, CURTAINS_USERNAME, AZURE_CLIENT_ID, SESSION_SECRET_KEY,
// ADMIN_USERNAMES, ALLOWED_ISP, ...). envTransformFunc maps each of them to
// its dotted koanf path; unknown variables are ignored. Comma separated
// values (ADMIN_USERNAMES, CORS_ORIGINS, AZURE_SCOPES) become slices.
package config
