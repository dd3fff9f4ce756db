// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package users holds the user, points and referral state.
//
// All users live in one versioned JSON document. Every operation is a
// read-modify-write of that document under its storage key lock, so no
// two mutations can lose each other's changes.
package users

import (
	"errors"
	"strings"
)

const (
	// PremiumThreshold is the point total at which premium is granted.
	PremiumThreshold = 60

	// ReferralBonus is credited to a referrer for every new user.
	ReferralBonus = 20
)

// ErrUserNotFound is returned by operations that require an existing user.
var ErrUserNotFound = errors.New("user not found")

// MessageType classifies a queued message.
type MessageType string

const (
	MessageSuccess MessageType = "success"
	MessageWarning MessageType = "warning"
	MessageFailure MessageType = "failure"
)

// Valid reports whether t is one of the known types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageSuccess, MessageWarning, MessageFailure:
		return true
	}
	return false
}

// Message is a notification queued for a user until they read it.
type Message struct {
	Type  MessageType `json:"type"`
	Title string      `json:"title"`
	Text  string      `json:"text"`
}

// User is one persisted record. The name is the document key, not a field.
type User struct {
	IsPremium bool      `json:"is_premium"`
	Points    int       `json:"points"`
	Rooms     []string  `json:"rooms"`
	Messages  []Message `json:"messages"`
}

func newUser() *User {
	return &User{Rooms: []string{}, Messages: []Message{}}
}

// normalize replaces nil slices so records always encode as arrays.
func (u *User) normalize() {
	if u.Rooms == nil {
		u.Rooms = []string{}
	}
	if u.Messages == nil {
		u.Messages = []Message{}
	}
}

func (u *User) clone() User {
	c := *u
	c.Rooms = append([]string{}, u.Rooms...)
	c.Messages = append([]Message{}, u.Messages...)
	return c
}

// addPoints applies n and reports whether the user just became premium.
// Points never go below zero.
func (u *User) addPoints(n int) bool {
	u.Points += n
	if u.Points < 0 {
		u.Points = 0
	}
	if !u.IsPremium && u.Points >= PremiumThreshold {
		u.IsPremium = true
		return true
	}
	return false
}

// addRoom inserts the upper-cased room and reports whether it was new.
func (u *User) addRoom(room string) bool {
	room = strings.ToUpper(room)
	for _, r := range u.Rooms {
		if r == room {
			return false
		}
	}
	u.Rooms = append(u.Rooms, room)
	return true
}

// PointsNeeded is how many points remain until premium, never negative.
func (u User) PointsNeeded() int {
	if n := PremiumThreshold - u.Points; n > 0 {
		return n
	}
	return 0
}

// Lookup is the result of the new-user protocol: existence is tested
// before insertion, inside the same serialized update.
type Lookup struct {
	Name    string
	User    User
	Created bool
}
