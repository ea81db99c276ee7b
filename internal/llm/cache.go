package llm

import (
	"strconv"
	"sync"
	"time"
)

// cacheEntry represents a cached completion.
type cacheEntry struct {
	expiry   time.Time
	response Response
}

// responseCache provides thread-safe caching for completions.
type responseCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newResponseCache creates a cache with the given TTL. It returns nil when
// ttl is not positive, which disables caching.
func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		return nil
	}

	cache := &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup(cleanupInterval(ttl))

	return cache
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 5*time.Minute {
		return ttl
	}
	return 5 * time.Minute
}

// cacheKey identifies a completion by model, temperature and prompt.
func cacheKey(model string, req Request) string {
	return model + "|" + strconv.FormatFloat(req.Temperature, 'g', -1, 64) + "|" + req.Prompt
}

func (c *responseCache) get(key string) (Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return Response{}, false
	}
	return entry.response, true
}

func (c *responseCache) set(key string, response Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		response: response,
		expiry:   time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *responseCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *responseCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *responseCache) Close() {
	close(c.stopCh)
}
