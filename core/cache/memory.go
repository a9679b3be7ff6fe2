package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Client.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Initialize(ctx context.Context) error {
	return nil
}

func (m *Memory) Get(ctx context.Context, key, tenantID string) ([]byte, error) {
	scoped := ScopedKey(key, tenantID)

	m.mu.RLock()
	entry, ok := m.entries[scoped]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, scoped)
		m.mu.Unlock()
		return nil, nil
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tenantID string) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[ScopedKey(key, tenantID)] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key, tenantID string) error {
	m.mu.Lock()
	delete(m.entries, ScopedKey(key, tenantID))
	m.mu.Unlock()
	return nil
}

// Purge removes every entry of a tenant.
func (m *Memory) Purge(ctx context.Context, tenantID string) error {
	prefix := ScopedKey("", tenantID)

	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}
