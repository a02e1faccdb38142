package cache

import (
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

// Cache is a small concurrency-safe key/value store with per-entry expiry.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
	Len() int
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type ttlCache[K comparable, V any] struct {
	mu         sync.RWMutex
	items      map[K]entry[V]
	now        func() time.Time
	maxEntries int
	sweepEvery time.Duration
	lastSweep  time.Time
}

// NewTTLCache holds at most maxEntries keys; zero means unbounded.
// Expired entries are swept on writes at most once per sweep interval.
func NewTTLCache[K comparable, V any](maxEntries int) Cache[K, V] {
	return &ttlCache[K, V]{
		items:      make(map[K]entry[V]),
		now:        time.Now,
		maxEntries: maxEntries,
		sweepEvery: defaultSweepInterval,
	}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	var zero V
	if !ok {
		return zero, false
	}
	if item.expired(c.now()) {
		c.Delete(key)
		return zero, false
	}
	return item.value, true
}

// Set stores value; a non-positive ttl never expires.
func (c *ttlCache[K, V]) Set(key K, value V, ttl time.Duration) {
	now := c.now()
	item := entry[V]{value: value}
	if ttl > 0 {
		item.expiresAt = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Sub(c.lastSweep) >= c.sweepEvery {
		c.sweepLocked(now)
	}
	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.sweepLocked(now)
		if len(c.items) >= c.maxEntries {
			c.evictOneLocked()
		}
	}
	c.items[key] = item
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *ttlCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *ttlCache[K, V]) sweepLocked(now time.Time) {
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
		}
	}
	c.lastSweep = now
}

// evictOneLocked drops the entry closest to expiry. Entries without a ttl
// go last.
func (c *ttlCache[K, V]) evictOneLocked() {
	var (
		victim  K
		soonest time.Time
		found   bool
	)
	for key, item := range c.items {
		if !found || (!item.expiresAt.IsZero() && (soonest.IsZero() || item.expiresAt.Before(soonest))) {
			victim, soonest, found = key, item.expiresAt, true
		}
	}
	if found {
		delete(c.items, victim)
	}
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
