// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/curtains/internal/storage"
)

var (
	_ suture.Service   = (*BadgerGCService)(nil)
	_ GarbageCollector = (*storage.BadgerStore)(nil)
)

type fakeCollector struct {
	runs atomic.Int32
	err  error
}

func (f *fakeCollector) RunGC() error {
	f.runs.Add(1)
	return f.err
}

func runFor(t *testing.T, svc *BadgerGCService, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return svc.Serve(ctx)
}

func TestBadgerGCService(t *testing.T) {
	t.Run("collects on every tick", func(t *testing.T) {
		gc := &fakeCollector{}
		err := runFor(t, NewBadgerGCService(gc, 10*time.Millisecond), 100*time.Millisecond)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v, want deadline exceeded", err)
		}
		if n := gc.runs.Load(); n < 2 {
			t.Errorf("RunGC called %d times, want at least 2", n)
		}
	})

	t.Run("keeps running after a failed collection", func(t *testing.T) {
		gc := &fakeCollector{err: errors.New("disk full")}
		_ = runFor(t, NewBadgerGCService(gc, 10*time.Millisecond), 100*time.Millisecond)
		if n := gc.runs.Load(); n < 2 {
			t.Errorf("RunGC called %d times, want at least 2", n)
		}
	})

	t.Run("default interval", func(t *testing.T) {
		if svc := NewBadgerGCService(&fakeCollector{}, 0); svc.interval != 10*time.Minute {
			t.Errorf("interval = %v, want 10m", svc.interval)
		}
	})
}

func TestBadgerGCService_RealStore(t *testing.T) {
	db, err := storage.OpenBadger(filepath.Join(t.TempDir(), "badger"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.Put(context.Background(), "users", []byte(`{"users":{}}`)); err != nil {
		t.Fatal(err)
	}
	// An almost empty value log has nothing to rewrite.
	if err := db.RunGC(); err != nil {
		t.Errorf("RunGC() = %v", err)
	}
}
