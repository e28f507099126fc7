// Package cache stores fetched article bodies so repeated questions against
// one page skip the network.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the article-body cache contract.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from an article URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "slate:v1:" + hex.EncodeToString(sum[:])
}

// Memory is an in-process cache with TTL eviction.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates a memory cache.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{store: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a cached value.
func (c *Memory) Get(key string) ([]byte, bool) {
	if val, found := c.store.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value with the given TTL.
func (c *Memory) Set(key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

// Delete removes a value.
func (c *Memory) Delete(key string) error {
	c.store.Delete(key)
	return nil
}

// Clear drops everything.
func (c *Memory) Clear() error {
	c.store.Flush()
	return nil
}
