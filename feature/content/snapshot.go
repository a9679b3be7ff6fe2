package content

import (
	"context"
	"time"

	"content-manager/core/cache"
	"content-manager/core/logger"
	"content-manager/feature/content/models"

	"go.uber.org/zap"
)

// SnapshotKey is the distributed-cache key of a tenant's full node list.
const SnapshotKey = "content_structure"

// cacheAvailable initializes the cache client once. A failed initialization is
// retried on the next call.
func (m *Manager) cacheAvailable(ctx context.Context) bool {
	if m.cache == nil {
		return false
	}

	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	if m.cacheReady {
		return true
	}
	if err := m.cache.Initialize(ctx); err != nil {
		m.logger.Warn("Distributed cache unavailable", zap.Error(err))
		return false
	}
	m.cacheReady = true
	return true
}

// warmStart loads the snapshot of tenantID. Any cache problem is a miss.
func (m *Manager) warmStart(ctx context.Context, tenantID string) ([]models.ContentNode, bool) {
	if !m.cacheAvailable(ctx) {
		return nil, false
	}

	log := logger.WithTenant(m.logger, tenantID)
	var nodes []models.ContentNode
	found, err := cache.GetJSON(ctx, m.cache, SnapshotKey, tenantID, &nodes)
	if err != nil {
		log.Warn("Failed to read content snapshot", zap.Error(err))
		return nil, false
	}
	if !found || len(nodes) == 0 {
		log.Debug("Content snapshot miss")
		return nil, false
	}
	return nodes, true
}

// storeSnapshot writes nodes as the snapshot of tenantID.
func (m *Manager) storeSnapshot(ctx context.Context, tenantID string, nodes []models.ContentNode) {
	if !m.cacheAvailable(ctx) {
		return
	}

	ttl := time.Duration(m.cfg.CacheTTLSeconds) * time.Second
	if err := cache.SetJSON(ctx, m.cache, SnapshotKey, nodes, ttl, tenantID); err != nil {
		logger.WithTenant(m.logger, tenantID).Warn("Failed to write content snapshot", zap.Error(err))
	}
}

// dropSnapshot deletes the snapshot of tenantID so a stale tree is never
// adopted by a warm start.
func (m *Manager) dropSnapshot(ctx context.Context, tenantID string) {
	if !m.cacheAvailable(ctx) {
		return
	}
	if err := m.cache.Delete(ctx, SnapshotKey, tenantID); err != nil {
		logger.WithTenant(m.logger, tenantID).Warn("Failed to drop content snapshot", zap.Error(err))
	}
}
