// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tomtom215/curtains/internal/storage"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	s, err := storage.OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return NewLog(s, "")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"  hello  ", "hello", nil},
		{"", "", ErrEmptyMessage},
		{" \t\n", "", ErrEmptyMessage},
		{strings.Repeat("a", MaxMessageLength), strings.Repeat("a", MaxMessageLength), nil},
		{strings.Repeat("a", MaxMessageLength+1), "", ErrMessageTooLong},
		{strings.Repeat("ü", MaxMessageLength), strings.Repeat("ü", MaxMessageLength), nil},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Normalize(%.10q) err = %v, want %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Normalize(%.10q) = %.10q", tt.in, got)
		}
	}
}

func TestSendAndRecent(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	msgs, err := l.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("Recent on empty log = %#v", msgs)
	}

	m, err := l.Send(ctx, "Alice", "  hi all ", true)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m.ID == "" || m.Message != "hi all" || !m.IsPremium || m.Timestamp.IsZero() {
		t.Errorf("Send = %+v", m)
	}

	msgs, err = l.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Username != "Alice" {
		t.Errorf("Recent = %+v", msgs)
	}
}

func TestSendRejectsInvalid(t *testing.T) {
	l := newTestLog(t)
	if _, err := l.Send(context.Background(), "Alice", "   ", false); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestLogIsCapped(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	for i := 0; i < DefaultLimit+5; i++ {
		if _, err := l.Send(ctx, "Bob", fmt.Sprintf("msg %d", i), false); err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := l.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != DefaultLimit {
		t.Fatalf("len = %d, want %d", len(msgs), DefaultLimit)
	}
	if msgs[0].Message != "msg 5" || msgs[len(msgs)-1].Message != fmt.Sprintf("msg %d", DefaultLimit+4) {
		t.Errorf("window = %q .. %q", msgs[0].Message, msgs[len(msgs)-1].Message)
	}
}

func TestCorruptLogReadsEmpty(t *testing.T) {
	ctx := context.Background()
	s, err := storage.OpenBadger("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Put(ctx, DefaultKey, []byte("nope")); err != nil {
		t.Fatal(err)
	}
	l := NewLog(s, "")
	msgs, err := l.Recent(ctx)
	if err != nil || len(msgs) != 0 {
		t.Errorf("Recent = %v, %v", msgs, err)
	}
	if _, err := l.Send(ctx, "Cy", "fresh", false); err != nil {
		t.Fatalf("Send over corrupt log: %v", err)
	}
}
