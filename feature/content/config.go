package content

import "content-manager/feature/content/store"

// Config holds configuration for the content manager.
type Config struct {
	// CollectionsDir is the directory of compiled collection modules.
	CollectionsDir string `mapstructure:"collections_dir" default:"./compiled/collections"`
	// Extension is the file extension of compiled modules.
	Extension string `mapstructure:"extension" default:".js"`
	// Token is the declaration that introduces a schema object.
	Token string `mapstructure:"token" default:"export const schema"`
	// TenantID is the tenant served by CLI commands when none is given.
	TenantID string `mapstructure:"tenant_id" default:""`
	// CacheTTLSeconds bounds how long the warm-start snapshot lives in the distributed cache.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"86400"`
	// FirstCollectionTTLSeconds bounds the first-collection micro-cache.
	FirstCollectionTTLSeconds int `mapstructure:"first_collection_ttl_seconds" default:"60"`
	// ReconcileTimeoutSeconds bounds one initialization or refresh pass.
	ReconcileTimeoutSeconds int `mapstructure:"reconcile_timeout_seconds" default:"120"`
	// Store configures the database adapter.
	Store store.Config `mapstructure:"store"`
}
