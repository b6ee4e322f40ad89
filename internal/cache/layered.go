package cache

import (
	"errors"
	"io"
	"time"
)

// LayeredCache reads memory first, then the backing store (disk or redis),
// promoting backing hits
type LayeredCache struct {
	memory  Cache
	backing Cache
}

func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return newLayered(NewMemoryCache(memoryTTL, cleanupInterval(memoryTTL)), NewDiskCache(diskDir, diskTTL))
}

func newLayered(memory, backing Cache) *LayeredCache {
	return &LayeredCache{memory: memory, backing: backing}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.backing.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set writes both layers. The memory layer always uses its own TTL.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, 0); err != nil {
		return err
	}
	return c.backing.Set(key, value, ttl)
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.backing.Clear())
}

// Close releases the backing store's connection, if it holds one
func (c *LayeredCache) Close() error {
	if closer, ok := c.backing.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
