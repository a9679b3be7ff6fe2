package store

// Config holds configuration for the content store.
type Config struct {
	// ReadCacheTTLSeconds is how long structure reads are served from memory.
	// Zero disables the read cache.
	ReadCacheTTLSeconds int `mapstructure:"read_cache_ttl_seconds" default:"30"`
	// AutoMigrate creates or updates the content_nodes table on startup.
	AutoMigrate bool `mapstructure:"auto_migrate" default:"true"`
}
