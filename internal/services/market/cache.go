package market

import (
	"sync"

	"github.com/bobmcallan/marketview/internal/models"
)

// ResponseCache memoizes normalized series by CacheKey for the process lifetime.
// Entries are never evicted; the key space is bounded by catalog size times ranges.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]models.Series
}

// NewResponseCache creates an empty cache
func NewResponseCache() *ResponseCache {
	return &ResponseCache{entries: make(map[string]models.Series)}
}

// Get returns a copy of the cached series for (assetID, r).
func (c *ResponseCache) Get(assetID string, r models.TimeRange) (models.Series, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[models.CacheKey(assetID, r)]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Put stores series under (assetID, r). Empty series are not cached.
func (c *ResponseCache) Put(assetID string, r models.TimeRange, series models.Series) bool {
	if len(series) == 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[models.CacheKey(assetID, r)] = series.Clone()
	return true
}

// Has reports whether a series is cached for (assetID, r).
func (c *ResponseCache) Has(assetID string, r models.TimeRange) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[models.CacheKey(assetID, r)]
	return ok
}

// Len returns the number of cached entries
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the cache keys currently held
func (c *ResponseCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
