// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned by Get when no document exists for the key.
	ErrNotFound = errors.New("document not found")

	// ErrCorrupt is returned when a document exists but cannot be decoded.
	ErrCorrupt = errors.New("document corrupt")

	// ErrSkipWrite may be returned by an UpdateFunc to end the update
	// without writing anything.
	ErrSkipWrite = errors.New("skip write")

	// ErrInvalidKey is returned for keys that are empty or escape the store.
	ErrInvalidKey = errors.New("invalid document key")
)

// UpdateFunc receives the current document (nil when absent) and returns the
// replacement.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Store persists raw documents by key.
type Store interface {
	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the document stored under key.
	Put(ctx context.Context, key string, data []byte) error

	// Update performs a read-modify-write of key. Updates of the same key
	// are serialized.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Keys lists the stored keys that start with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// keyLocks hands out one mutex per key.
type keyLocks struct {
	locks sync.Map // string -> *sync.Mutex
}

func (k *keyLocks) lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func validKey(key string) bool {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, "\\\x00") {
		return false
	}
	return !strings.HasPrefix(key, "/")
}

// prefixed namespaces every key of an underlying Store.
type prefixed struct {
	Store
	prefix string
}

// WithPrefix returns a Store whose keys are stored as prefix+key.
// Closing it does not close the underlying store.
func WithPrefix(s Store, prefix string) Store {
	return &prefixed{Store: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Put(ctx context.Context, key string, data []byte) error {
	return p.Store.Put(ctx, p.prefix+key, data)
}

func (p *prefixed) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return p.Store.Update(ctx, p.prefix+key, fn)
}

func (p *prefixed) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.Store.Keys(ctx, p.prefix+prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, p.prefix))
	}
	sort.Strings(out)
	return out, nil
}

func (p *prefixed) Close() error { return nil }
