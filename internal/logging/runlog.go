// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const runLogSuffix = "_run.log"

// nextRunNumber returns 1 + the highest NNN prefix among *_run.log files in dir.
func nextRunNumber(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, err
	}

	highest := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, runLogSuffix) {
			continue
		}
		prefix, _, found := strings.Cut(name, "_")
		if !found {
			continue
		}
		n, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// RunLogName formats the file name for run number n started at t.
func RunLogName(n int, t time.Time) string {
	return fmt.Sprintf("%03d_%s%s", n, t.Format("20060102_150405"), runLogSuffix)
}

func openRunLog(dir string, now time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, "", fmt.Errorf("create log dir: %w", err)
	}
	n, err := nextRunNumber(dir)
	if err != nil {
		return nil, "", fmt.Errorf("scan log dir: %w", err)
	}
	path := filepath.Join(dir, RunLogName(n, now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640) //nolint:gosec // path built from config dir
	if err != nil {
		return nil, "", fmt.Errorf("open run log: %w", err)
	}
	return f, path, nil
}
