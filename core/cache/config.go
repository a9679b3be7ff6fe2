package cache

const (
	BackendMemory  = "memory"
	BackendStorage = "storage"
)

// Config holds configuration for the distributed cache.
type Config struct {
	// Backend selects the implementation (memory, storage).
	Backend string `mapstructure:"backend" default:"memory"`
	// Prefix is prepended to every object name in the storage backend.
	Prefix string `mapstructure:"prefix" default:"cache"`
	// TimeoutSeconds bounds each individual cache call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"2"`
}
