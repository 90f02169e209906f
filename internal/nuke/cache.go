package nuke

import (
	"sync"
	"time"
)

type probeEntry struct {
	active    bool
	checkedAt time.Time
}

// probeCache remembers recent reachability results so repeated sweeps within
// the TTL window skip the network round trip.
type probeCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]probeEntry
}

func newProbeCache(ttl time.Duration) *probeCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &probeCache{
		ttl:     ttl,
		entries: map[string]probeEntry{},
	}
}

func (c *probeCache) lookup(name string, now time.Time) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[name]
	if !ok || now.Sub(entry.checkedAt) > c.ttl {
		return false, false
	}
	return entry.active, true
}

func (c *probeCache) store(name string, active bool, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = probeEntry{active: active, checkedAt: now}
}
