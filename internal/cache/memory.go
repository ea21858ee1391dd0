package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	// DefaultMaxEntries bounds the cache when no capacity is configured.
	DefaultMaxEntries = 1000

	// DefaultTTL is the sliding expiry applied when none is configured.
	DefaultTTL = 5 * time.Minute
)

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process cache with a fixed capacity and a sliding
// TTL: every hit renews the entry's expiry, and inserting past capacity
// evicts the least-recently-accessed entry. Expired entries become
// invisible to Get immediately and are purged by a background sweep.
type MemoryCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	ll    *list.List // front = most recently accessed
	items map[string]*list.Element

	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
	cleanupInterval time.Duration
}

// NewMemoryCache creates an in-memory cache. Non-positive maxEntries or
// ttl fall back to the defaults (1000 entries, 5 minutes).
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &MemoryCache{
		ttl:             ttl,
		max:             maxEntries,
		ll:              list.New(),
		items:           make(map[string]*list.Element),
		stopCleanup:     make(chan struct{}),
		cleanupInterval: ttl,
	}

	// background cleanup routine
	go c.cleanupExpired()

	return c
}

// Get retrieves a value from the cache. A hit renews the entry's expiry
// for a full TTL from now and marks it most recently accessed.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}

	entry := elem.Value.(*memoryEntry)
	now := time.Now()
	if now.After(entry.expiresAt) {
		c.removeElement(elem)
		return nil, false, nil
	}

	entry.expiresAt = now.Add(c.ttl)
	c.ll.MoveToFront(elem)

	// Copy to decouple from the cache's buffer
	value := make([]byte, len(entry.value))
	copy(value, entry.value)

	return value, true, nil
}

// Set stores a value under key, evicting the least-recently-accessed
// entry if the cache is full.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	expiresAt := time.Now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.value = valueCopy
		entry.expiresAt = expiresAt
		c.ll.MoveToFront(elem)
		return nil
	}

	elem := c.ll.PushFront(&memoryEntry{
		key:       key,
		value:     valueCopy,
		expiresAt: expiresAt,
	})
	c.items[key] = elem

	if c.ll.Len() > c.max {
		if oldest := c.ll.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	return nil
}

// removeElement deletes an entry. Caller must hold c.mu.
func (c *MemoryCache) removeElement(elem *list.Element) {
	c.ll.Remove(elem)
	delete(c.items, elem.Value.(*memoryEntry).key)
}

// cleanupExpired runs periodically to remove expired entries. Because
// every access moves an entry to the front and renews its expiry, the
// back of the list always expires first.
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for {
				oldest := c.ll.Back()
				if oldest == nil || !now.After(oldest.Value.(*memoryEntry).expiresAt) {
					break
				}
				c.removeElement(oldest)
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine. Call this on shutdown or in tests.
func (c *MemoryCache) Close() error {
	c.cleanupOnce.Do(func() {
		close(c.stopCleanup)
	})
	return nil
}

// Len returns the number of items currently in the cache.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Clear removes all items from cache. Useful for tests or manual resets.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.mu.Unlock()
}
