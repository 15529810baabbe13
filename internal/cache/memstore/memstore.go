// Package memstore implements the cache store as a bounded in-process LRU with
// per-entry TTLs. Eviction is LRU on capacity plus lazy expiry on read, so a
// long session cannot grow the cache without bound.
package memstore

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
)

type entry struct {
	val     []byte
	expires time.Time // zero means no expiry
}

type Store struct {
	lru   *lru.Cache[string, entry]
	clock clockwork.Clock
}

type Option func(*Store)

// WithClock substitutes the time source, used by tests to control expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func New(capacity int, opts ...Option) (*Store, error) {
	if capacity <= 0 {
		return nil, errors.New("memstore capacity must be positive")
	}
	c, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, err
	}
	s := &Store{lru: c, clock: clockwork.NewRealClock()}
	for _, f := range opts {
		f(s)
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !s.clock.Now().Before(e.expires) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (s *Store) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := entry{val: val}
	if ttl > 0 {
		e.expires = s.clock.Now().Add(ttl)
	}
	s.lru.Add(key, e)
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.lru.Remove(k)
	}
	return nil
}

func (s *Store) Close() error {
	s.lru.Purge()
	return nil
}

// Len reports live entries, counting expired-but-unread ones.
func (s *Store) Len() int {
	return s.lru.Len()
}
