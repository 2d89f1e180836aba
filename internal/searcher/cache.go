package searcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/dshills/apisearch-mcp/pkg/types"
)

// Cache defaults
const (
	DefaultCacheTTL      = 5 * time.Minute
	DefaultCacheCapacity = 32
)

// cacheEntry holds the full ranked match set of one query
type cacheEntry struct {
	key       string
	results   []types.SymbolResult
	expiresAt time.Time
}

// ResultCache maps query keys to ranked result sets. Entries expire a fixed
// TTL after their last use; when full, the least recently used entry is
// evicted. It is safe for concurrent use.
type ResultCache struct {
	mu  sync.Mutex
	lru *simplelru.LRU[uint64, *cacheEntry]
	ttl time.Duration
	now func() time.Time
}

// NewResultCache creates an empty cache
func NewResultCache(capacity int, ttl time.Duration) (*ResultCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	l, err := simplelru.NewLRU[uint64, *cacheEntry](capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &ResultCache{lru: l, ttl: ttl, now: time.Now}, nil
}

// Get returns the results stored under key. A hit moves the entry to the
// most recently used position and restarts its TTL.
func (c *ResultCache) Get(key string) ([]types.SymbolResult, bool) {
	h := xxhash.Sum64String(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(h)
	if !ok || entry.key != key {
		return nil, false
	}
	now := c.now()
	if now.After(entry.expiresAt) {
		c.lru.Remove(h)
		return nil, false
	}
	entry.expiresAt = now.Add(c.ttl)
	return entry.results, true
}

// Put stores results under key, evicting the least recently used entry if
// the cache is full. The slice must not be modified afterwards.
func (c *ResultCache) Put(key string, results []types.SymbolResult) {
	h := xxhash.Sum64String(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(h, &cacheEntry{
		key:       key,
		results:   results,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Clear drops every entry
func (c *ResultCache) Clear() {
	c.mu.Lock()
	c.lru.Purge()
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// TTL returns the entry lifetime
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}
