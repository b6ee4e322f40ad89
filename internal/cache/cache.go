// Package cache stores fetched page bodies so repeated runs against the
// same listings do not hit the site again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/medscrape/internal/model"
)

// Cache stores page bodies keyed by PageKey
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Clear() error
}

const keyPrefix = "medscrape:page:v1:"

// PageKey derives the cache key for a page URL
func PageKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// FromConfig builds the configured cache, or returns nil when caching is
// disabled
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	return Open(cfg)
}

// Open builds the configured backend whether or not caching is enabled.
// The redis backend sits behind a memory layer; for the disk backend a
// zero disk TTL or empty dir gives a memory-only cache.
func Open(cfg model.CacheConfig) Cache {
	if cfg.Backend == "redis" {
		memory := NewMemoryCache(cfg.MemoryTTL, cleanupInterval(cfg.MemoryTTL))
		return newLayered(memory, NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	}
	if cfg.Dir == "" || cfg.DiskTTL <= 0 {
		return NewMemoryCache(cfg.MemoryTTL, cleanupInterval(cfg.MemoryTTL))
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 10 * time.Minute
	}
	return ttl
}
