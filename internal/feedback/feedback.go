// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package feedback appends user reports and t-shirt requests to plain text files.
package feedback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// Journal appends "{time} - {user} - {text}" lines to one file.
type Journal struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewJournal writes to path; the parent directory is created on demand.
func NewJournal(path string) *Journal {
	return &Journal{path: path, now: time.Now}
}

// Path is the journal file.
func (j *Journal) Path() string { return j.path }

// Append writes one entry. Line breaks in text are flattened so one entry
// is always one line.
func (j *Journal) Append(user, text string) error {
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	line := fmt.Sprintf("%s - %s - %s\n", j.now().Format(timeLayout), user, text)

	j.mu.Lock()
	defer j.mu.Unlock()

	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640) //nolint:gosec // path from config
	if err != nil {
		return fmt.Errorf("open %s: %w", j.path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append %s: %w", j.path, err)
	}
	return f.Close()
}
