// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
	"github.com/tomtom215/curtains/internal/storage"
)

// DefaultKey is the storage key of the user document.
const DefaultKey = "users"

// Store reads and mutates the user document.
type Store struct {
	store storage.Store
	key   string
}

// NewStore returns a Store persisting under key (DefaultKey when empty).
func NewStore(s storage.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{store: s, key: key}
}

// mutate loads the document, migrating it when needed, and hands it to fn.
// The document is written when fn reports a change or when migration
// changed it. A corrupt document is logged and replaced by an empty one.
func (s *Store) mutate(ctx context.Context, fn func(doc *document) (bool, error)) error {
	return s.store.Update(ctx, s.key, func(current []byte, found bool) ([]byte, error) {
		doc := emptyDocument()
		migrated := false
		if found {
			d, changed, err := migrate(current)
			switch {
			case err != nil:
				logging.Ctx(ctx).Warn().Err(err).Str("key", s.key).Msg("Corrupt user document, starting from empty")
			case changed:
				logging.Ctx(ctx).Info().Int("users", len(d.Users)).Int("version", CurrentVersion).Msg("Migrated user document")
				doc, migrated = d, true
			default:
				doc = d
			}
		}

		changed, err := fn(doc)
		if err != nil {
			return nil, err
		}
		if !changed && !migrated {
			return nil, storage.ErrSkipWrite
		}
		return json.MarshalIndent(doc, "", "  ")
	})
}

func (d *document) getOrCreate(ctx context.Context, name string) (*User, bool) {
	if u, ok := d.Users[name]; ok {
		return u, false
	}
	u := newUser()
	d.Users[name] = u
	logging.Ctx(ctx).Info().Str("username", name).Msg("Created new user")
	return u, true
}

// Lookup returns the user, creating it when absent, and reports whether it
// was created by this call.
func (s *Store) Lookup(ctx context.Context, name string) (Lookup, error) {
	res := Lookup{Name: name}
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		u, created := doc.getOrCreate(ctx, name)
		res.User, res.Created = u.clone(), created
		return created, nil
	})
	if err != nil {
		return Lookup{}, fmt.Errorf("lookup user: %w", err)
	}
	return res, nil
}

// GetOrCreate returns the user, creating a zero record when absent.
func (s *Store) GetOrCreate(ctx context.Context, name string) (User, error) {
	l, err := s.Lookup(ctx, name)
	return l.User, err
}

// Get returns the user without creating it.
func (s *Store) Get(ctx context.Context, name string) (User, bool, error) {
	var (
		out   User
		found bool
	)
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		if u, ok := doc.Users[name]; ok {
			out, found = u.clone(), true
		}
		return false, nil
	})
	if err != nil {
		return User{}, false, fmt.Errorf("get user: %w", err)
	}
	return out, found, nil
}

// Exists reports whether name has a record.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, ok, err := s.Get(ctx, name)
	return ok, err
}

// List returns a copy of every user keyed by name.
func (s *Store) List(ctx context.Context) (map[string]User, error) {
	out := make(map[string]User)
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		for name, u := range doc.Users {
			out[name] = u.clone()
		}
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// AddRoom records that name controlled room. Nothing is written when the
// room is already listed.
func (s *Store) AddRoom(ctx context.Context, name, room string) error {
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		u, created := doc.getOrCreate(ctx, name)
		added := u.addRoom(room)
		if added {
			logging.Ctx(ctx).Debug().Str("username", name).Str("room", room).Msg("Added room to user")
		}
		return created || added, nil
	})
	if err != nil {
		return fmt.Errorf("add room: %w", err)
	}
	return nil
}

// AddPoints adds n points (n may be negative; the total is floored at
// zero) and grants premium once the total reaches PremiumThreshold.
// Premium is never revoked.
func (s *Store) AddPoints(ctx context.Context, name string, n int) (User, error) {
	var out User
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		u, _ := doc.getOrCreate(ctx, name)
		if u.addPoints(n) {
			metrics.PremiumGrantsTotal.Inc()
			logging.Ctx(ctx).Info().Str("username", name).Int("points", u.Points).Msg("User reached premium")
		}
		out = u.clone()
		return true, nil
	})
	if err != nil {
		return User{}, fmt.Errorf("add points: %w", err)
	}
	return out, nil
}

// GrantPoints is AddPoints for an existing user only. The existence check
// and the grant run under the same lock.
func (s *Store) GrantPoints(ctx context.Context, name string, n int) (User, error) {
	var out User
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		u, ok := doc.Users[name]
		if !ok {
			return false, ErrUserNotFound
		}
		if u.addPoints(n) {
			metrics.PremiumGrantsTotal.Inc()
		}
		out = u.clone()
		return true, nil
	})
	if err != nil {
		return User{}, err
	}
	logging.Ctx(ctx).Info().Str("username", name).Int("granted", n).Int("points", out.Points).Msg("Granted points")
	return out, nil
}

// ProcessReferral checks that referrer is a known user. It performs no
// mutation; the reward is applied separately so the bonus stays with the
// caller.
func (s *Store) ProcessReferral(ctx context.Context, referrer, newUser string) error {
	ok, err := s.Exists(ctx, referrer)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("referrer %q: %w", referrer, ErrUserNotFound)
	}
	logging.Ctx(ctx).Info().Str("referrer", referrer).Str("new_user", newUser).Msg("Processing referral")
	return nil
}

// AddMessage queues msg for name, creating the user when absent.
func (s *Store) AddMessage(ctx context.Context, name string, msg Message) error {
	if !msg.Type.Valid() {
		return fmt.Errorf("invalid message type %q", msg.Type)
	}
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		u, _ := doc.getOrCreate(ctx, name)
		u.Messages = append(u.Messages, msg)
		logging.Ctx(ctx).Debug().
			Str("username", name).
			Str("type", string(msg.Type)).
			Str("title", msg.Title).
			Int("queued", len(u.Messages)).
			Msg("Queued message")
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

// SendMessage queues msg for an existing user only.
func (s *Store) SendMessage(ctx context.Context, name string, msg Message) error {
	if !msg.Type.Valid() {
		return fmt.Errorf("invalid message type %q", msg.Type)
	}
	return s.mutate(ctx, func(doc *document) (bool, error) {
		u, ok := doc.Users[name]
		if !ok {
			return false, ErrUserNotFound
		}
		u.Messages = append(u.Messages, msg)
		return true, nil
	})
}

// GetAndClearMessages drains the queue of name in FIFO order. A missing
// user yields an empty list and is not created; an empty queue is not
// rewritten.
func (s *Store) GetAndClearMessages(ctx context.Context, name string) ([]Message, error) {
	out := []Message{}
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		u, ok := doc.Users[name]
		if !ok || len(u.Messages) == 0 {
			return false, nil
		}
		out = u.Messages
		u.Messages = []Message{}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain messages: %w", err)
	}
	return out, nil
}

// creditReferral pays the referral bonus and queues both notifications in
// one update.
func (s *Store) creditReferral(ctx context.Context, referrer, newUser string, bonus int, toReferrer, toNewUser Message) error {
	return s.mutate(ctx, func(doc *document) (bool, error) {
		ref, ok := doc.Users[referrer]
		if !ok {
			return false, ErrUserNotFound
		}
		if ref.addPoints(bonus) {
			metrics.PremiumGrantsTotal.Inc()
		}
		ref.Messages = append(ref.Messages, toReferrer)
		nu, _ := doc.getOrCreate(ctx, newUser)
		nu.Messages = append(nu.Messages, toNewUser)
		return true, nil
	})
}

// IsNotFound reports whether err means a required user is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
