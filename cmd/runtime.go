package cmd

import (
	"context"
	"fmt"

	"content-manager/core/cache"
	"content-manager/core/config"
	"content-manager/core/database"
	"content-manager/core/logger"
	"content-manager/core/storage"
	"content-manager/feature/content"
	"content-manager/feature/content/schema"
	"content-manager/feature/content/store"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// runtime is the wiring shared by the content commands.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	reader  *schema.Reader
	cache   cache.Client
	manager *content.Manager
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	st := store.New(db, cfg.Content.Store, l)
	if cfg.Content.Store.AutoMigrate {
		err = st.Migrate(ctx)
	} else {
		err = st.Verify(ctx)
	}
	if err != nil {
		return nil, err
	}

	var objects storage.Client
	if cfg.Cache.Backend == cache.BackendStorage {
		if objects, err = storage.NewClient(cfg.Storage); err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
	}
	cacheClient, err := cache.NewClient(cfg.Cache, objects, cfg.Storage.Bucket)
	if err != nil {
		return nil, err
	}

	reader := schema.NewReader(afero.NewOsFs(), cfg.Content.CollectionsDir, l,
		schema.WithExtension(cfg.Content.Extension),
		schema.WithToken(cfg.Content.Token))

	return &runtime{
		cfg:     cfg,
		log:     l,
		store:   st,
		reader:  reader,
		cache:   cacheClient,
		manager: content.New(st, reader, cfg.Content, l, content.WithCache(cacheClient)),
	}, nil
}

// tenant returns the flag value, or the configured tenant when the flag is empty.
func (r *runtime) tenant(flag string) string {
	if flag != "" {
		return flag
	}
	return r.cfg.Content.TenantID
}
