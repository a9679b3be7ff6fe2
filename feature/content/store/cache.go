package store

import (
	"fmt"
	"sync"
	"time"

	"content-manager/feature/content/models"

	"golang.org/x/sync/singleflight"
)

// categoryCollections is the cache category of content node reads.
const categoryCollections = "collections"

type cacheEntry struct {
	nodes []models.ContentNode
	built time.Time
}

// readCache holds recent structure reads per category and key.
type readCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]map[string]cacheEntry
	// generation changes on every invalidation so loads that started before an
	// invalidation never repopulate the cache with stale rows.
	generation map[string]uint64
	sf         singleflight.Group
}

func newReadCache(ttl time.Duration) *readCache {
	return &readCache{
		ttl:        ttl,
		entries:    make(map[string]map[string]cacheEntry),
		generation: make(map[string]uint64),
	}
}

func (c *readCache) lookup(category, key string) ([]models.ContentNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[category][key]
	if !ok || time.Since(entry.built) > c.ttl {
		return nil, false
	}
	return append([]models.ContentNode(nil), entry.nodes...), true
}

// getOrLoad returns the cached value or runs load once for all concurrent callers.
func (c *readCache) getOrLoad(category, key string, load func() ([]models.ContentNode, error)) ([]models.ContentNode, error) {
	if c.ttl <= 0 {
		return load()
	}
	if nodes, ok := c.lookup(category, key); ok {
		return nodes, nil
	}

	c.mu.RLock()
	gen := c.generation[category]
	c.mu.RUnlock()

	v, err, _ := c.sf.Do(fmt.Sprintf("%s|%s|%d", category, key, gen), func() (interface{}, error) {
		if nodes, ok := c.lookup(category, key); ok {
			return nodes, nil
		}

		nodes, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation[category] == gen {
			if c.entries[category] == nil {
				c.entries[category] = make(map[string]cacheEntry)
			}
			c.entries[category][key] = cacheEntry{nodes: nodes, built: time.Now()}
		}
		c.mu.Unlock()
		return nodes, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]models.ContentNode(nil), v.([]models.ContentNode)...), nil
}

func (c *readCache) invalidate(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, category)
	c.generation[category]++
}
