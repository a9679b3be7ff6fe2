package content

import (
	"sync"
	"time"

	"content-manager/feature/content/models"
)

type firstCollectionEntry struct {
	collection models.ContentNode
	timestamp  time.Time
	tenantID   string
}

// firstCollectionCache memoizes the first collection of each tenant for a short time.
type firstCollectionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]firstCollectionEntry
	now     func() time.Time
}

func newFirstCollectionCache(ttl time.Duration) *firstCollectionCache {
	return &firstCollectionCache{
		ttl:     ttl,
		entries: make(map[string]firstCollectionEntry),
		now:     time.Now,
	}
}

func (c *firstCollectionCache) get(tenantID string) (models.ContentNode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[tenantID]
	if !ok || e.tenantID != tenantID {
		return models.ContentNode{}, false
	}
	if c.ttl <= 0 || c.now().Sub(e.timestamp) >= c.ttl {
		delete(c.entries, tenantID)
		return models.ContentNode{}, false
	}
	return *e.collection.Clone(), true
}

func (c *firstCollectionCache) set(tenantID string, n models.ContentNode) {
	c.mu.Lock()
	c.entries[tenantID] = firstCollectionEntry{collection: *n.Clone(), timestamp: c.now(), tenantID: tenantID}
	c.mu.Unlock()
}

func (c *firstCollectionCache) clear(tenantID string) {
	c.mu.Lock()
	delete(c.entries, tenantID)
	c.mu.Unlock()
}

func (c *firstCollectionCache) clearAll() {
	c.mu.Lock()
	c.entries = make(map[string]firstCollectionEntry)
	c.mu.Unlock()
}

// ClearFirstCollectionCache drops the memoized first collection of every tenant.
func (m *Manager) ClearFirstCollectionCache() {
	m.first.clearAll()
}
