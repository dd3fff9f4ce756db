// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

// Package storage persists whole JSON documents by key.
//
// Every document is read and written in full. Update runs a
// read-modify-write under a per-key lock, so two concurrent updates of the
// same key never lose each other's changes, while updates of different keys
// proceed in parallel.
//
// Two backends implement Store:
//
//   - FileStore keeps one file per key under a directory (users.json,
//     statistics/2026-10-16.json). Writes go to a temp file and are renamed
//     into place.
//   - BadgerStore keeps every document in one BadgerDB, namespaced with
//     WithPrefix.
package storage
