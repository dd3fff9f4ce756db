// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package users

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// CurrentVersion is the schema version written by this package.
//
//	0: bare {name: record} map; records may lack points and messages and
//	   may carry pending_premium_from or referred_by.
//	2: {"version": 2, "users": {name: record}}.
const CurrentVersion = 2

type document struct {
	Version int              `json:"version"`
	Users   map[string]*User `json:"users"`
}

func emptyDocument() *document {
	return &document{Version: CurrentVersion, Users: map[string]*User{}}
}

// legacyUser decodes a version 0 record, keeping track of which fields
// were present.
type legacyUser struct {
	IsPremium          bool            `json:"is_premium"`
	Rooms              []string        `json:"rooms"`
	Points             *int            `json:"points"`
	Messages           *[]Message      `json:"messages"`
	PendingPremiumFrom json.RawMessage `json:"pending_premium_from"`
	ReferredBy         json.RawMessage `json:"referred_by"`
}

// envelope probes for the versioned layout.
type envelope struct {
	Version *int            `json:"version"`
	Users   json.RawMessage `json:"users"`
}

// migrate decodes raw into the current schema. It reports whether the
// result differs from raw and must be written back. An already current
// document is never reported as changed.
func migrate(raw []byte) (*document, bool, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false, fmt.Errorf("empty user document")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Version != nil && len(env.Users) > 0 && env.Users[0] == '{' {
		if *env.Version > CurrentVersion {
			return nil, false, fmt.Errorf("user document version %d is newer than %d", *env.Version, CurrentVersion)
		}
		doc := &document{Version: *env.Version}
		if err := json.Unmarshal(env.Users, &doc.Users); err != nil {
			return nil, false, fmt.Errorf("decode users: %w", err)
		}
		changed := doc.Version != CurrentVersion
		doc.Version = CurrentVersion
		if doc.Users == nil {
			doc.Users = map[string]*User{}
		}
		for name, u := range doc.Users {
			if u == nil {
				doc.Users[name] = newUser()
				changed = true
				continue
			}
			u.normalize()
		}
		return doc, changed, nil
	}

	var legacy map[string]legacyUser
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, false, fmt.Errorf("decode legacy users: %w", err)
	}
	doc := emptyDocument()
	for name, l := range legacy {
		u := &User{IsPremium: l.IsPremium, Rooms: l.Rooms}
		if l.Points != nil {
			u.Points = *l.Points
		}
		if l.Messages != nil {
			u.Messages = *l.Messages
		}
		u.normalize()
		doc.Users[name] = u
	}
	// The envelope itself is new, so a legacy document is always rewritten.
	return doc, true, nil
}
