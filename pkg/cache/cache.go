package cache

import (
	"sync"
	"time"

	"health-concierge/backend/pkg/config"
)

type entry struct {
	value     interface{}
	expiresAt int64
}

func (e entry) expired() bool {
	return e.expiresAt > 0 && time.Now().UnixNano() > e.expiresAt
}

// Cache is the in-process TTL store backing derived analytics when redis
// is not configured. Entries past maxItems evict the one closest to
// expiry, so a hot aggregator cannot grow without bound.
type Cache struct {
	defaultTTL time.Duration
	purgeEvery time.Duration
	maxItems   int

	mu      sync.RWMutex
	entries map[string]entry
}

// NewCache creates a cache from the application cache settings
func NewCache() *Cache {
	cfg := config.Get()
	return NewCacheWithOptions(cfg.Cache.TTL, cfg.Cache.PurgeWindow, cfg.Cache.MaxSize)
}

// NewCacheWithOptions creates a cache with explicit settings. A positive
// purge interval starts a background sweep of expired entries.
func NewCacheWithOptions(defaultTTL, purgeEvery time.Duration, maxItems int) *Cache {
	c := &Cache{
		defaultTTL: defaultTTL,
		purgeEvery: purgeEvery,
		maxItems:   maxItems,
		entries:    make(map[string]entry),
	}
	if purgeEvery > 0 {
		go c.sweep()
	}
	return c
}

// Set stores a value under the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithExpiration(key, value, c.defaultTTL)
}

// SetWithExpiration stores a value with an explicit TTL; zero means no
// expiry
func (c *Cache) SetWithExpiration(key string, value interface{}, ttl time.Duration) {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxItems > 0 && len(c.entries) >= c.maxItems {
		if _, exists := c.entries[key]; !exists {
			c.evictClosestToExpiry()
		}
	}
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
}

// Get returns the live value for key, if any
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.entries[key]
	if !found || e.expired() {
		return nil, false
	}
	return e.value, true
}

// Delete removes one key
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Flush drops everything
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Count reports the number of stored entries, expired ones included
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(c.purgeEvery)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now().UnixNano()
		c.mu.Lock()
		for k, e := range c.entries {
			if e.expiresAt > 0 && now > e.expiresAt {
				delete(c.entries, k)
			}
		}
		c.mu.Unlock()
	}
}

// evictClosestToExpiry drops the entry that would expire first; callers
// hold the write lock
func (c *Cache) evictClosestToExpiry() {
	var victim string
	var victimExpiry int64
	first := true
	for k, e := range c.entries {
		if first || e.expiresAt < victimExpiry {
			victim = k
			victimExpiry = e.expiresAt
			first = false
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}
