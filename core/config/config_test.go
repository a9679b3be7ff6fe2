package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"content-manager/core/cache"
	"content-manager/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "content-cache", cfg.Storage.Bucket)
	assert.Equal(t, cache.BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, "./compiled/collections", cfg.Content.CollectionsDir)
	assert.Equal(t, ".js", cfg.Content.Extension)
	assert.Equal(t, 86400, cfg.Content.CacheTTLSeconds)
	assert.Equal(t, 60, cfg.Content.FirstCollectionTTLSeconds)
	assert.Equal(t, 30, cfg.Content.Store.ReadCacheTTLSeconds)
	assert.True(t, cfg.Content.Store.AutoMigrate)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "storage")
	t.Setenv("CONTENT_TENANT_ID", "acme")
	t.Setenv("CONTENT_STORE_AUTO_MIGRATE", "false")

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, cache.BackendStorage, cfg.Cache.Backend)
	assert.Equal(t, "acme", cfg.Content.TenantID)
	assert.False(t, cfg.Content.Store.AutoMigrate)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_DRIVER=sqlite\nCONTENT_COLLECTIONS_DIR=/srv/collections\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_DRIVER")
		os.Unsetenv("CONTENT_COLLECTIONS_DIR")
	})

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/srv/collections", cfg.Content.CollectionsDir)
}
