package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const keyPrefix = "portfolio:session:"

// cache is the subset of *memcache.Client used by Memcached.
type cache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
	Ping() error
}

// Memcached stores sessions in memcached so several front-end instances can
// share them.
type Memcached struct {
	mem cache
	ttl time.Duration
}

// NewMemcached creates a store backed by the given memcached servers.
func NewMemcached(ttl time.Duration, servers ...string) *Memcached {
	return &Memcached{mem: memcache.New(servers...), ttl: ttl}
}

func (m *Memcached) Get(_ context.Context, id string) ([]byte, error) {
	item, err := m.mem.Get(keyPrefix + id)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("memcached get: %w", err)
	}
	return item.Value, nil
}

func (m *Memcached) Set(_ context.Context, id string, data []byte) error {
	err := m.mem.Set(&memcache.Item{
		Key:        keyPrefix + id,
		Value:      data,
		Expiration: int32(m.ttl / time.Second),
	})
	if err != nil {
		return fmt.Errorf("memcached set: %w", err)
	}
	return nil
}

func (m *Memcached) Delete(_ context.Context, id string) error {
	err := m.mem.Delete(keyPrefix + id)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("memcached delete: %w", err)
	}
	return nil
}

// Ping checks that every configured server answers.
func (m *Memcached) Ping() error {
	return m.mem.Ping()
}
