// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package stats keeps per-day counters of curtain actions per room.
//
// Each calendar day (process-local clock) is one document keyed
// "2006-01-02" holding a row per room. Updates to a day are serialized by
// the storage layer's per-key lock; days never share a lock.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
	"github.com/tomtom215/curtains/internal/storage"
)

const (
	// DateLayout is the machine-sortable day key.
	DateLayout = "2006-01-02"

	// DisplayLayout is the human-readable day label.
	DisplayLayout = "Monday, January 2, 2006"
)

// Action is a curtain action that is counted.
type Action string

const (
	ActionUp   Action = "up"
	ActionDown Action = "down"
	ActionStop Action = "stop"
)

// ErrInvalidAction is returned by Update for anything but up, down or stop.
var ErrInvalidAction = errors.New("invalid action")

// ParseAction validates s.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionUp, ActionDown, ActionStop:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Row is one room's counters for a day.
type Row struct {
	Room string `json:"room"`
	Up   int    `json:"up"`
	Down int    `json:"down"`
	Stop int    `json:"stop"`
}

func (r *Row) inc(a Action) {
	switch a {
	case ActionUp:
		r.Up++
	case ActionDown:
		r.Down++
	case ActionStop:
		r.Stop++
	}
}

// dayRecord is the persisted document.
type dayRecord struct {
	Date string `json:"date"`
	Rows []Row  `json:"rows"`
}

// Day is one historical record as returned by All.
type Day struct {
	Date          string `json:"date"`
	FormattedDate string `json:"formatted_date"`
	Rows          []Row  `json:"rows"`
}

// Aggregator reads and updates daily records.
type Aggregator struct {
	store storage.Store
	now   func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an Aggregator over store.
func NewAggregator(store storage.Store, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) today() string {
	return a.now().Format(DateLayout)
}

// Update increments today's counter for room and action.
func (a *Aggregator) Update(ctx context.Context, room string, action Action) error {
	if _, err := ParseAction(string(action)); err != nil {
		return err
	}
	day := a.today()
	err := storage.UpdateJSON(ctx, a.store, day, func(rec *dayRecord, _ bool) (bool, error) {
		rec.Date = day
		for i := range rec.Rows {
			if rec.Rows[i].Room == room {
				rec.Rows[i].inc(action)
				return true, nil
			}
		}
		row := Row{Room: room}
		row.inc(action)
		rec.Rows = append(rec.Rows, row)
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("update stats for %s: %w", day, err)
	}
	metrics.StatsUpdatesTotal.WithLabelValues(string(action)).Inc()
	return nil
}

// load reads one day. Missing and corrupt records both read as empty.
func (a *Aggregator) load(ctx context.Context, day string) ([]Row, error) {
	var rec dayRecord
	_, err := storage.GetJSON(ctx, a.store, day, &rec)
	if errors.Is(err, storage.ErrCorrupt) {
		logging.Ctx(ctx).Warn().Err(err).Str("day", day).Msg("Corrupt statistics record, treating as empty")
		return []Row{}, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.Rows == nil {
		return []Row{}, nil
	}
	return rec.Rows, nil
}

// Daily returns today's rows; empty when nothing happened yet.
func (a *Aggregator) Daily(ctx context.Context) ([]Row, error) {
	return a.load(ctx, a.today())
}

// RoomCount is the number of distinct rooms used today.
func (a *Aggregator) RoomCount(ctx context.Context) (int, error) {
	rows, err := a.Daily(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[r.Room] = struct{}{}
	}
	return len(seen), nil
}

// days lists stored day keys, newest first. Keys that are not dates are skipped.
func (a *Aggregator) days(ctx context.Context) ([]string, error) {
	keys, err := a.store.Keys(ctx, "")
	if err != nil {
		return nil, err
	}
	days := keys[:0]
	for _, k := range keys {
		if _, err := time.Parse(DateLayout, k); err == nil {
			days = append(days, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// All returns every recorded day, newest first.
func (a *Aggregator) All(ctx context.Context) ([]Day, error) {
	days, err := a.days(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Day, 0, len(days))
	for _, day := range days {
		rows, err := a.load(ctx, day)
		if err != nil {
			return nil, err
		}
		t, _ := time.Parse(DateLayout, day)
		out = append(out, Day{Date: day, FormattedDate: t.Format(DisplayLayout), Rows: rows})
	}
	return out, nil
}

// TotalUniqueRooms counts distinct rooms across every recorded day.
func (a *Aggregator) TotalUniqueRooms(ctx context.Context) (int, error) {
	all, err := a.All(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{})
	for _, d := range all {
		for _, r := range d.Rows {
			seen[r.Room] = struct{}{}
		}
	}
	return len(seen), nil
}
