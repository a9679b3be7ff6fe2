package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"content-manager/core/storage"
)

// Client is a tenant-scoped key/value store with TTL.
type Client interface {
	// Initialize prepares the backend (e.g. ensures the bucket exists).
	Initialize(ctx context.Context) error
	// Get returns the stored value, or nil if the key is absent or expired.
	Get(ctx context.Context, key, tenantID string) ([]byte, error)
	// Set stores value under key for ttl. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tenantID string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key, tenantID string) error
}

// Purger is implemented by backends that can drop all keys of a tenant at once.
type Purger interface {
	Purge(ctx context.Context, tenantID string) error
}

// NewClient builds the backend selected by cfg.Backend.
// The storage backend requires a non-nil store.
func NewClient(cfg Config, store storage.Client, bucket string) (Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendStorage:
		if store == nil {
			return nil, fmt.Errorf("cache backend %q requires a storage client", cfg.Backend)
		}
		return NewObjectStore(store, bucket, cfg.Prefix, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

// ScopedKey namespaces key by tenant.
func ScopedKey(key, tenantID string) string {
	if tenantID == "" {
		tenantID = "global"
	}
	return tenantID + ":" + key
}

// GetJSON decodes the value stored under key into dst.
// It reports false on a miss.
func GetJSON(ctx context.Context, c Client, key, tenantID string, dst any) (bool, error) {
	raw, err := c.Get(ctx, key, tenantID)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, c Client, key string, value any, ttl time.Duration, tenantID string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s for cache: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl, tenantID)
}
