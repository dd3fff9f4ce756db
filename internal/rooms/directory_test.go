// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package rooms

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleRooms = `{
  "RA101": [{"name": "only", "start": "11", "stop": "12"}],
  "rb202": [
    {"name": "north", "start": 21, "stop": 22},
    {"name": "south", "start": "23", "stop": "24"}
  ]
}`

func mustParse(t *testing.T) *Directory {
	t.Helper()
	d, err := Parse(strings.NewReader(sampleRooms))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func TestDirectionNames(t *testing.T) {
	d := mustParse(t)

	tests := []struct {
		room string
		want []string
	}{
		{"RA101", []string{"only"}},
		{"ra101", []string{"only"}},
		{"RB202", []string{"north", "south"}},
	}
	for _, tt := range tests {
		got, err := d.DirectionNames(tt.room)
		if err != nil {
			t.Fatalf("DirectionNames(%s): %v", tt.room, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DirectionNames(%s) = %v, want %v", tt.room, got, tt.want)
		}
	}

	if _, err := d.DirectionNames("RZ999"); !errors.Is(err, ErrUnknownRoom) {
		t.Errorf("unknown room err = %v, want ErrUnknownRoom", err)
	}
}

func TestResolve(t *testing.T) {
	d := mustParse(t)

	tests := []struct {
		room, direction string
		wantStart       Code
	}{
		{"RB202", "south", "23"},
		{"RB202", "north", "21"},
		{"RB202", "", "21"},
		{"RB202", "east", "21"},
		{"RA101", "south", "11"},
	}
	for _, tt := range tests {
		got, err := d.Resolve(tt.room, tt.direction)
		if err != nil {
			t.Fatalf("Resolve(%s, %s): %v", tt.room, tt.direction, err)
		}
		if got.Start != tt.wantStart {
			t.Errorf("Resolve(%s, %s).Start = %s, want %s", tt.room, tt.direction, got.Start, tt.wantStart)
		}
	}
}

func TestNumericCodes(t *testing.T) {
	d := mustParse(t)
	dir, _ := d.Resolve("RB202", "north")
	if dir.Stop != "22" {
		t.Errorf("numeric stop code = %q, want 22", dir.Stop)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.json")
	if err := os.WriteFile(path, []byte(sampleRooms), 0o600); err != nil {
		t.Fatal(err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("Len = %d, want 2", d.Len())
	}
	if _, err := d.Resolve("RA101", "only"); err != nil {
		t.Errorf("Resolve after Load: %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewRejectsEmptyRoom(t *testing.T) {
	if _, err := New(map[string][]Direction{"RA1": nil}); err == nil {
		t.Error("expected error for room without directions")
	}
}
