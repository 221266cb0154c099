// Package cache provides a small response cache for search results.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache wraps a ristretto cache with feature toggle awareness.
type Cache struct {
	enabled bool
	ttl     time.Duration
	store   *ristretto.Cache
}

// Config captures cache construction parameters.
type Config struct {
	Enabled     bool
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	TTL         time.Duration
}

// New creates a Cache instance according to the configuration.
func New(cfg Config) (*Cache, error) {
	if !cfg.Enabled {
		return &Cache{enabled: false}, nil
	}

	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64OrDefault(cfg.NumCounters, 1e4),
		MaxCost:     int64OrDefault(cfg.MaxCost, 1<<24),
		BufferItems: int64OrDefault(cfg.BufferItems, 64),
	})
	if err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &Cache{enabled: true, ttl: ttl, store: rc}, nil
}

// Key builds a cache key for a query. The catalog generation is part of the
// key, so a catalog swap invalidates old entries naturally: they stop being
// requested and age out.
func Key(generation uint64, query string, limit int) string {
	return fmt.Sprintf("%d|%d|%s", generation, limit, query)
}

// Get returns cached bytes for the key, if available.
func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}
	if v, ok := c.store.Get(key); ok {
		if b, ok := v.([]byte); ok {
			return b, true
		}
	}
	return nil, false
}

// Set stores the payload in cache.
func (c *Cache) Set(key string, val []byte) {
	if !c.enabled {
		return
	}
	c.store.SetWithTTL(key, val, int64(len(val)), c.ttl)
}

// Wait blocks until buffered writes are applied. Used by tests.
func (c *Cache) Wait() {
	if c.enabled {
		c.store.Wait()
	}
}

func int64OrDefault(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}
