package cache

import (
	"sync"
	"time"
)

type ttlEntry struct {
	payload []byte
	expires time.Time
}

// TTLCache is an in-process BytesCache. It is the default backend in
// environments without Redis; expired entries are reaped lazily on read.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry
}

func NewTTLCache() *TTLCache {
	return &TTLCache{entries: make(map[string]ttlEntry)}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = ttlEntry{payload: value, expires: expires}
	c.mu.Unlock()
	return nil
}
