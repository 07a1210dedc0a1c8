package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shoplens/backend/internal/domain"
)

const defaultCleanupInterval = 10 * time.Minute

// MemoryCache is a thread-safe in-memory cache with TTL support
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a new in-memory cache. Expired entries are swept
// every cleanupInterval (10 minutes when zero).
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	return &MemoryCache{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get decodes the value stored under key into dest
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	item, found := c.store.Get(key)
	if !found {
		return domain.ErrCacheMiss
	}

	data, ok := item.([]byte)
	if !ok {
		return fmt.Errorf("cache entry %q has unexpected type %T", key, item)
	}
	return json.Unmarshal(data, dest)
}

// Set stores a value in the cache with TTL. Values are stored JSON encoded
// so readers never share memory with the writer, matching the Redis backend.
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(key, data, ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, found := c.store.Get(key)
	return found, nil
}

// Size returns the current number of items in the cache, including expired
// items not yet swept
func (c *MemoryCache) Size() int {
	return c.store.ItemCount()
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.store.Flush()
}
