package permissions

import (
	"sync"
	"time"
)

// Cache is an injectable in-process TTL store for permission snapshots,
// keyed by (userID, tenantID). Constructed once in main and handed to the
// resolver; tests build isolated instances instead of sharing module state.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]Snapshot
}

// DefaultCacheTTL matches the staleness window the admin UIs were built
// around.
const DefaultCacheTTL = 5 * time.Minute

// NewCache constructs a Cache. A non-positive ttl falls back to the default.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{ttl: ttl, entries: make(map[string]Snapshot)}
}

// Get returns a snapshot when one exists for the identity and is still
// fresh. A snapshot whose (userID, tenantID) does not match the key, or
// whose age reached the TTL, is a miss.
func (c *Cache) Get(userID, tenantID string) (Snapshot, bool) {
	if c == nil || userID == "" || tenantID == "" {
		return Snapshot{}, false
	}
	c.mu.RLock()
	snap, ok := c.entries[cacheKey(userID, tenantID)]
	c.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	if snap.UserID != userID || snap.TenantID != tenantID {
		return Snapshot{}, false
	}
	if time.Since(snap.FetchedAt) >= c.ttl {
		return Snapshot{}, false
	}
	return snap, true
}

// Put stores the snapshot, replacing any previous entry for the identity.
func (c *Cache) Put(snap Snapshot) {
	if c == nil || snap.UserID == "" || snap.TenantID == "" {
		return
	}
	c.mu.Lock()
	c.entries[cacheKey(snap.UserID, snap.TenantID)] = snap
	c.mu.Unlock()
}

// Invalidate drops the entry for one identity, forcing the next read to
// re-fetch.
func (c *Cache) Invalidate(userID, tenantID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, cacheKey(userID, tenantID))
	c.mu.Unlock()
}

// InvalidateUser drops every entry held for the user across tenants. Used on
// logout, where the departing session may have touched several tenants.
func (c *Cache) InvalidateUser(userID string) {
	if c == nil || userID == "" {
		return
	}
	c.mu.Lock()
	for key, snap := range c.entries {
		if snap.UserID == userID {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Clear empties the store.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]Snapshot)
	c.mu.Unlock()
}

func cacheKey(userID, tenantID string) string {
	return userID + ":" + tenantID
}
