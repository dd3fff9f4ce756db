// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/curtains/internal/logging"
)

// GetJSON decodes the document at key into dst. It reports found=false for
// a missing document and wraps ErrCorrupt when the bytes do not decode.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, fmt.Errorf("%w: %s is empty", ErrCorrupt, key)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// UpdateJSON runs a typed read-modify-write of the document at key.
//
// fn receives the decoded document (the zero value when the document is
// missing or corrupt) and reports whether it changed it. Nothing is written
// when it did not. A corrupt document is logged and replaced on the next
// write rather than failing the caller.
func UpdateJSON[T any](ctx context.Context, s Store, key string, fn func(doc *T, found bool) (bool, error)) error {
	return s.Update(ctx, key, func(current []byte, found bool) ([]byte, error) {
		var doc T
		if found {
			if len(current) == 0 {
				found = false
			} else if err := json.Unmarshal(current, &doc); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Corrupt document, starting from empty")
				var zero T
				doc = zero
				found = false
			}
		}

		changed, err := fn(&doc, found)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, ErrSkipWrite
		}
		return json.MarshalIndent(&doc, "", "  ")
	})
}
