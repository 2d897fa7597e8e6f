package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
)

type (
	// SessionRegistry maps an active token to the id of its user
	SessionRegistry interface {
		Put(ctx context.Context, token, userID string) error
		Get(ctx context.Context, token string) (userID string, found bool, err error)
		// Remove is idempotent, removing an unknown token is not an error
		Remove(ctx context.Context, token string) error
	}

	memSessions struct {
		cache *bigcache.BigCache
	}

	xxhasher struct{}
)

func (xxhasher) Sum64(key string) uint64 {
	return xxhash.Sum64String(key)
}

// InMemorySessions returns a registry that lives as long as the process.
// Entries never expire and the registry has no size bound.
func InMemorySessions() (SessionRegistry, error) {
	cfg := bigcache.Config{
		Shards:             64,
		LifeWindow:         100 * 365 * 24 * time.Hour,
		CleanWindow:        0,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       64,
		HardMaxCacheSize:   0,
		Hasher:             xxhasher{},
	}
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create session registry, cause %w", err)
	}
	return &memSessions{cache: cache}, nil
}

func (m *memSessions) Put(ctx context.Context, token, userID string) error {
	return m.cache.Set(token, []byte(userID))
}

func (m *memSessions) Get(ctx context.Context, token string) (string, bool, error) {
	buf, err := m.cache.Get(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return string(buf), true, nil
}

func (m *memSessions) Remove(ctx context.Context, token string) error {
	err := m.cache.Delete(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}
