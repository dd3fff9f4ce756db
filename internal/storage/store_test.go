// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

type counterDoc struct {
	N int `json:"n"`
}

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	bs, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { _ = bs.Close() })

	return map[string]Store{
		"file":   fs,
		"badger": bs,
		"prefix": WithPrefix(bs, "ns/"),
	}
}

func TestStoreGetPut(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
			}
			if err := s.Put(ctx, "doc", []byte(`{"n":1}`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := s.Get(ctx, "doc")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `{"n":1}` {
				t.Errorf("Get = %s", got)
			}
		})
	}
}

func TestStoreInvalidKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			keys := []string{"", "../escape", "/abs"}
			if name == "prefix" {
				keys = []string{"../escape"}
			}
			for _, key := range keys {
				if err := s.Put(ctx, key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Put(%q) err = %v, want ErrInvalidKey", key, err)
				}
			}
		})
	}
}

func TestUpdateJSONConcurrent(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			const workers = 25
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := UpdateJSON(ctx, s, "counter", func(d *counterDoc, _ bool) (bool, error) {
						d.N++
						return true, nil
					})
					if err != nil {
						t.Errorf("UpdateJSON: %v", err)
					}
				}()
			}
			wg.Wait()

			var d counterDoc
			found, err := GetJSON(ctx, s, "counter", &d)
			if err != nil || !found {
				t.Fatalf("GetJSON found=%v err=%v", found, err)
			}
			if d.N != workers {
				t.Errorf("N = %d, want %d (lost update)", d.N, workers)
			}
		})
	}
}

func TestUpdateJSONSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := UpdateJSON(ctx, s, "untouched", func(*counterDoc, bool) (bool, error) {
				return false, nil
			})
			if err != nil {
				t.Fatalf("UpdateJSON: %v", err)
			}
			if _, err := s.Get(ctx, "untouched"); !errors.Is(err, ErrNotFound) {
				t.Errorf("document written despite no change: err = %v", err)
			}
		})
	}
}

func TestUpdateJSONRecoversCorrupt(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "bad", []byte("{not json")); err != nil {
				t.Fatal(err)
			}

			var d counterDoc
			if _, err := GetJSON(ctx, s, "bad", &d); !errors.Is(err, ErrCorrupt) {
				t.Errorf("GetJSON err = %v, want ErrCorrupt", err)
			}

			var sawFound bool
			err := UpdateJSON(ctx, s, "bad", func(d *counterDoc, found bool) (bool, error) {
				sawFound = found
				d.N = 7
				return true, nil
			})
			if err != nil {
				t.Fatalf("UpdateJSON: %v", err)
			}
			if sawFound {
				t.Error("corrupt document should be presented as not found")
			}
			if _, err := GetJSON(ctx, s, "bad", &d); err != nil || d.N != 7 {
				t.Errorf("after repair N=%d err=%v", d.N, err)
			}
		})
	}
}

func TestUpdatePropagatesError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Update(ctx, "k", func([]byte, bool) ([]byte, error) { return nil, boom })
			if !errors.Is(err, boom) {
				t.Errorf("Update err = %v, want boom", err)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"2026-10-02", "2026-10-01", "other"} {
				if err := s.Put(ctx, k, []byte("{}")); err != nil {
					t.Fatal(err)
				}
			}
			keys, err := s.Keys(ctx, "2026-")
			if err != nil {
				t.Fatalf("Keys: %v", err)
			}
			want := []string{"2026-10-01", "2026-10-02"}
			if !reflect.DeepEqual(keys, want) {
				t.Errorf("Keys = %v, want %v", keys, want)
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), "users", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "users.json")); err != nil {
		t.Errorf("expected users.json on disk: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestBadgerRunGCInMemory(t *testing.T) {
	s, err := OpenBadger("")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.RunGC(); err != nil {
		t.Errorf("RunGC: %v", err)
	}
}
