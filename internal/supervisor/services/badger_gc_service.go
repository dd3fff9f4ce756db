// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package services

import (
	"context"
	"time"

	"github.com/tomtom215/curtains/internal/logging"
)

// GarbageCollector is a store whose space can be reclaimed.
// *storage.BadgerStore satisfies it.
type GarbageCollector interface {
	RunGC() error
}

// BadgerGCService reclaims Badger value log space on an interval.
type BadgerGCService struct {
	store    GarbageCollector
	interval time.Duration
}

// NewBadgerGCService runs store.RunGC every interval (default 10m).
func NewBadgerGCService(store GarbageCollector, interval time.Duration) *BadgerGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &BadgerGCService{store: store, interval: interval}
}

// Serve implements suture.Service. A failed collection is logged and
// retried on the next tick rather than restarting the service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.store.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Badger value log GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Badger value log GC complete")
		}
	}
}

// String names the service in supervisor logs.
func (s *BadgerGCService) String() string {
	return "badger-gc"
}
