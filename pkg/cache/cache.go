package cache

import (
	"sync"
	"time"
)

// Entry holds a cached payload and its absolute expiry.
type Entry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory store with per-entry TTL. Entries are kept
// until they expire or Clear wipes everything; there is no capacity bound.
type Cache struct {
	data          map[string]*Entry
	mutex         sync.RWMutex
	sweepInterval time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// New creates a Cache whose background sweeper runs at the given interval.
func New(sweepInterval time.Duration) *Cache {
	c := &Cache{
		data:          make(map[string]*Entry),
		sweepInterval: sweepInterval,
		stopCh:        make(chan struct{}),
	}

	go c.sweep()

	return c
}

// Get retrieves a value if it exists and has not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		return nil, false
	}

	return entry.Value, true
}

// Put stores a value under key for the given TTL, overwriting any previous entry.
func (c *Cache) Put(key string, value interface{}, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = &Entry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Clear removes all entries. Safe to call on an empty cache.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*Entry)
}

// Size returns the number of entries, expired ones included until swept.
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.data)
}

// sweep runs periodically to remove expired entries
func (c *Cache) sweep() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

// removeExpired removes all expired entries from the cache
func (c *Cache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.ExpiresAt) {
			delete(c.data, key)
		}
	}
}

// Stop stops the sweeper goroutine. Safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}
