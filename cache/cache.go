// ABOUTME: Single-flight TTL cache used for upstream metadata like data attributes
// ABOUTME: Concurrent misses for one key collapse to a single resolver call
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by a Store when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Store is a key-value store with per-entry TTL semantics.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Flush() error
	Close() error
}

// Key builds the stable cache key for a descriptive input string.
func Key(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Cache wraps a Store with single-flight resolution. Store failures degrade
// to cache-miss behavior; the resolver stays the source of truth.
type Cache struct {
	store  Store
	group  singleflight.Group
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger}
}

// EnsureValue returns the cached value for key, or resolves and stores it.
// Concurrent calls for the same key share one resolver invocation; once the
// call settles (success or failure) the in-flight entry is dropped so later
// calls retry.
func (c *Cache) EnsureValue(key string, ttl time.Duration, resolver func() ([]byte, error)) ([]byte, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		if cached, err := c.store.Get(key); err == nil {
			return cached, nil
		} else if !errors.Is(err, ErrNotFound) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}

		value, err := resolver()
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(key, value, ttl); err != nil {
			c.logger.Error("cache set failed", "key", key, "error", err)
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Flush drops every cached entry. Intended for tests and operational resets.
func (c *Cache) Flush() error {
	return c.store.Flush()
}
