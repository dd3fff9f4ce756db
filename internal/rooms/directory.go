// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package rooms holds the static room directory: which rooms exist, which
// curtain directions each has, and the controller group codes that start and
// stop each direction.
package rooms

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// ErrUnknownRoom is returned for rooms missing from the directory.
var ErrUnknownRoom = errors.New("room not found")

// Code is a controller group code. rooms.json carries codes as strings or numbers.
type Code string

// UnmarshalJSON accepts "12", 12 and null.
func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("group code must be a string or number: %w", err)
	}
	*c = Code(n.String())
	return nil
}

// Direction is one curtain motor of a room.
type Direction struct {
	Name  string `json:"name"`
	Start Code   `json:"start"`
	Stop  Code   `json:"stop"`
}

// Directory maps upper-case room identifiers to their directions.
// It is immutable after Load.
type Directory struct {
	rooms map[string][]Direction
}

// New builds a directory from an in-memory map. Room names are upper-cased.
func New(rooms map[string][]Direction) (*Directory, error) {
	d := &Directory{rooms: make(map[string][]Direction, len(rooms))}
	for name, dirs := range rooms {
		if len(dirs) == 0 {
			return nil, fmt.Errorf("room %s has no directions", name)
		}
		key := strings.ToUpper(strings.TrimSpace(name))
		if _, dup := d.rooms[key]; dup {
			return nil, fmt.Errorf("room %s listed twice", key)
		}
		d.rooms[key] = append([]Direction(nil), dirs...)
	}
	return d, nil
}

// Parse reads a rooms.json document.
func Parse(r io.Reader) (*Directory, error) {
	var raw map[string][]Direction
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return New(raw)
}

// Load reads the directory file at path.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("open rooms file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Directions returns the directions of room (case-insensitive).
func (d *Directory) Directions(room string) ([]Direction, error) {
	dirs, ok := d.rooms[strings.ToUpper(room)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, room)
	}
	return append([]Direction(nil), dirs...), nil
}

// DirectionNames lists the direction names of room in directory order.
func (d *Directory) DirectionNames(room string) ([]string, error) {
	dirs, err := d.Directions(room)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(dirs))
	for i, dir := range dirs {
		names[i] = dir.Name
	}
	return names, nil
}

// Resolve picks the direction to drive. A named direction is matched only
// when the room has more than one; otherwise, or when nothing matches, the
// first direction is used.
func (d *Directory) Resolve(room, direction string) (Direction, error) {
	dirs, err := d.Directions(room)
	if err != nil {
		return Direction{}, err
	}
	if direction != "" && len(dirs) > 1 {
		for _, dir := range dirs {
			if dir.Name == direction {
				return dir, nil
			}
		}
	}
	return dirs[0], nil
}

// Len is the number of rooms.
func (d *Directory) Len() int { return len(d.rooms) }
