package session

import (
	"sync"
	"time"
)

// Cache maps client ids to their expiry (epoch ms). It is safe for
// concurrent use and lives as long as the process.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]int64
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]int64)}
}

// Get returns the expiry recorded for clientID.
func (c *Cache) Get(clientID string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	exp, ok := c.entries[clientID]
	return exp, ok
}

func (c *Cache) Put(clientID string, expiresAt int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[clientID] = expiresAt
}

// Expire forgets clientID.
func (c *Cache) Expire(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, clientID)
}

// Sweep drops every entry that expired before now and returns how many went.
func (c *Cache) Sweep(now time.Time) int {
	cutoff := now.UnixMilli()

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, exp := range c.entries {
		if exp < cutoff {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
