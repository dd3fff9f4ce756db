// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package stats

import (
	"crypto/sha1" //nolint:gosec // pseudonymization, not security
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// controlLogHeader is written once at the top of each day's file.
var controlLogHeader = []string{"room", "user", "direction"}

// ControlLog appends one CSV line per successful command to a per-day file.
// Client IPs are stored as SHA-1 hex so usage can be counted per caller
// without keeping addresses.
type ControlLog struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewControlLog writes under dir (created on first write).
func NewControlLog(dir string, now func() time.Time) *ControlLog {
	if now == nil {
		now = time.Now
	}
	return &ControlLog{dir: dir, now: now}
}

// HashIP pseudonymizes a client address.
func HashIP(ip string) string {
	sum := sha1.Sum([]byte(ip)) //nolint:gosec // see ControlLog
	return hex.EncodeToString(sum[:])
}

// Path returns today's file.
func (l *ControlLog) Path() string {
	return filepath.Join(l.dir, l.now().Format(DateLayout)+".csv")
}

// Append records room, hashed clientIP and action.
func (l *ControlLog) Append(room, clientIP string, action Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return fmt.Errorf("create control log dir: %w", err)
	}
	path := l.Path()
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640) //nolint:gosec // dir from config
	if err != nil {
		return fmt.Errorf("open control log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(controlLogHeader); err != nil {
			return err
		}
	}
	if err := w.Write([]string{room, HashIP(clientIP), string(action)}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
