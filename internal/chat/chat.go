// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package chat keeps a bounded log of recent chat messages.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
	"github.com/tomtom215/curtains/internal/storage"
)

const (
	// DefaultKey is the storage key of the chat document.
	DefaultKey = "chat"

	// DefaultLimit is how many messages are kept.
	DefaultLimit = 100

	// MaxMessageLength bounds a message in characters, after trimming.
	MaxMessageLength = 500
)

var (
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrMessageTooLong = fmt.Errorf("message cannot exceed %d characters", MaxMessageLength)
)

// Message is one chat line.
type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsPremium bool      `json:"is_premium"`
}

type document struct {
	Messages []Message `json:"messages"`
}

// Log appends to and reads the chat document.
type Log struct {
	store storage.Store
	key   string
	limit int
	now   func() time.Time
}

// NewLog returns a Log under key (DefaultKey when empty) keeping DefaultLimit messages.
func NewLog(s storage.Store, key string) *Log {
	if key == "" {
		key = DefaultKey
	}
	return &Log{store: s, key: key, limit: DefaultLimit, now: time.Now}
}

// Normalize trims text and checks its length.
func Normalize(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return "", ErrEmptyMessage
	case n > MaxMessageLength:
		return "", ErrMessageTooLong
	}
	return text, nil
}

// Send appends a message from username, dropping the oldest beyond the limit.
func (l *Log) Send(ctx context.Context, username, text string, isPremium bool) (Message, error) {
	text, err := Normalize(text)
	if err != nil {
		return Message{}, err
	}
	msg := Message{
		ID:        uuid.NewString(),
		Username:  username,
		Message:   text,
		Timestamp: l.now().UTC(),
		IsPremium: isPremium,
	}
	err = storage.UpdateJSON(ctx, l.store, l.key, func(doc *document, _ bool) (bool, error) {
		doc.Messages = append(doc.Messages, msg)
		if over := len(doc.Messages) - l.limit; over > 0 {
			doc.Messages = append([]Message(nil), doc.Messages[over:]...)
		}
		return true, nil
	})
	if err != nil {
		return Message{}, fmt.Errorf("append chat message: %w", err)
	}
	metrics.ChatMessagesTotal.Inc()
	logging.Ctx(ctx).Debug().Str("username", username).Int("length", len(text)).Msg("Chat message stored")
	return msg, nil
}

// Recent returns the stored messages, oldest first.
func (l *Log) Recent(ctx context.Context) ([]Message, error) {
	var doc document
	_, err := storage.GetJSON(ctx, l.store, l.key, &doc)
	if errors.Is(err, storage.ErrCorrupt) {
		logging.Ctx(ctx).Warn().Err(err).Msg("Corrupt chat log, treating as empty")
		return []Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chat log: %w", err)
	}
	if doc.Messages == nil {
		return []Message{}, nil
	}
	return doc.Messages, nil
}
