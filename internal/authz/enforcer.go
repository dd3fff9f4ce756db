// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package authz guards the admin API with a Casbin RBAC enforcer.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var embeddedModel string

// RoleAdmin is the role granted to configured admin usernames. Roles and
// user subjects live in separate namespaces so a user named "admin" is never
// mistaken for the role itself.
const RoleAdmin = "role:admin"

// userPrefix namespaces user subjects.
const userPrefix = "user:"

// AdminPathPattern is the object pattern the admin role may access.
const AdminPathPattern = "/api/admin/*"

// Enforcer wraps the Casbin enforcer. Usernames are lower-cased so they
// match the allow-list case-insensitively.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer grants the admin role to every name in admins.
func NewEnforcer(admins []string) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if _, err := enforcer.AddPolicy(RoleAdmin, AdminPathPattern, "*"); err != nil {
		return nil, fmt.Errorf("failed to add admin policy: %w", err)
	}
	for _, name := range admins {
		subject := userSubject(name)
		if subject == "" {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(subject, RoleAdmin); err != nil {
			return nil, fmt.Errorf("failed to add admin %q: %w", name, err)
		}
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// Enforce reports whether username may perform action on object.
func (e *Enforcer) Enforce(username, object, action string) (bool, error) {
	subject := userSubject(username)
	if subject == "" {
		return false, nil
	}
	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}

// userSubject maps a username to its namespaced, lower-cased subject, or ""
// for a blank name.
func userSubject(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	return userPrefix + name
}
