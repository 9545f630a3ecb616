package authz

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// cacheKey is (user_id, action, resource_type, resource_id, resource_version)
// per spec.md §4.9 point 1.
type cacheKey string

func makeCacheKey(req Request) cacheKey {
	return cacheKey(fmt.Sprintf("%s|%s|%s|%s|%d",
		req.Principal.UserID, req.Action, req.Resource.Type, req.Resource.ID, req.Resource.ResourceVersion))
}

type cacheEntry struct {
	key       cacheKey
	decision  *Decision
	resourceID string
	expiresAt time.Time
	element   *list.Element
}

// Cache is an in-process, TTL-evicted, size-bounded decision cache with
// LRU eviction under pressure (spec.md §4.10). Invalidation removes every
// entry for a resource id, which subsumes the "resource_version differs"
// case since the version is embedded in the key itself.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	maxSize  int
	entries  map[cacheKey]*cacheEntry
	byResource map[string]map[cacheKey]struct{}
	order    *list.List // front = most recently used
}

// NewCache builds a Cache. maxSize <= 0 means unbounded.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		ttl:        ttl,
		maxSize:    maxSize,
		entries:    make(map[cacheKey]*cacheEntry),
		byResource: make(map[string]map[cacheKey]struct{}),
		order:      list.New(),
	}
}

// Get returns the cached decision for req if present and not expired.
func (c *Cache) Get(req Request) (*Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := makeCacheKey(req)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.removeLocked(entry)
		return nil, false
	}
	c.order.MoveToFront(entry.element)
	return entry.decision, true
}

// Put stores decision for req, evicting the least-recently-used entry if
// the cache is at capacity.
func (c *Cache) Put(req Request, decision *Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := makeCacheKey(req)
	if existing, ok := c.entries[key]; ok {
		c.removeLocked(existing)
	}

	entry := &cacheEntry{
		key:        key,
		decision:   decision,
		resourceID: req.Resource.ID,
		expiresAt:  time.Now().Add(c.ttl),
	}
	entry.element = c.order.PushFront(entry)
	c.entries[key] = entry

	if c.byResource[req.Resource.ID] == nil {
		c.byResource[req.Resource.ID] = make(map[cacheKey]struct{})
	}
	c.byResource[req.Resource.ID][key] = struct{}{}

	if c.maxSize > 0 {
		for len(c.entries) > c.maxSize {
			oldest := c.order.Back()
			if oldest == nil {
				break
			}
			c.removeLocked(oldest.Value.(*cacheEntry))
		}
	}
}

// Invalidate drops every cached entry for resourceID, regardless of the
// resource_version it was cached under. No write path calls it: an entry
// cached under an older resource_version stops matching once the version
// changes, since the version is part of the key, and expires with its TTL.
func (c *Cache) Invalidate(resourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.byResource[resourceID]
	for key := range keys {
		if entry, ok := c.entries[key]; ok {
			c.removeLocked(entry)
		}
	}
}

// EvictExpired sweeps the cache for expired entries. Intended to be driven
// by a periodic maintenance job (spec.md §4.10: "fixed interval, e.g. 60s").
func (c *Cache) EvictExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			c.removeLocked(entry)
			evicted++
		}
	}
	return evicted
}

// removeLocked must be called with c.mu held.
func (c *Cache) removeLocked(entry *cacheEntry) {
	delete(c.entries, entry.key)
	c.order.Remove(entry.element)
	if set, ok := c.byResource[entry.resourceID]; ok {
		delete(set, entry.key)
		if len(set) == 0 {
			delete(c.byResource, entry.resourceID)
		}
	}
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
