package cache

import (
	"strings"
	"time"
)

const (
	defaultKnownTTL   = 10 * time.Minute
	defaultUnknownTTL = 30 * time.Second
	defaultMaxHomes   = 10000
)

// HomeRegistryCache remembers registry lookups on the ingest hot path.
// Unknown homes expire quickly so a newly registered home starts being
// accepted without a restart.
type HomeRegistryCache interface {
	Known(homeID string) (exists bool, ok bool)
	Remember(homeID string, exists bool)
}

type homeRegistryCache struct {
	entries    Cache[string, bool]
	knownTTL   time.Duration
	unknownTTL time.Duration
}

func NewHomeRegistryCache() HomeRegistryCache {
	return &homeRegistryCache{
		entries:    NewTTLCache[string, bool](defaultMaxHomes),
		knownTTL:   defaultKnownTTL,
		unknownTTL: defaultUnknownTTL,
	}
}

func (c *homeRegistryCache) Known(homeID string) (bool, bool) {
	return c.entries.Get(strings.TrimSpace(homeID))
}

func (c *homeRegistryCache) Remember(homeID string, exists bool) {
	ttl := c.unknownTTL
	if exists {
		ttl = c.knownTTL
	}
	c.entries.Set(strings.TrimSpace(homeID), exists, ttl)
}
