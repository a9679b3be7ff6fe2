package content

import (
	"context"
	"fmt"
	"sync"
	"time"

	"content-manager/core/cache"
	"content-manager/core/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Manager owns the content tree of every tenant it serves.
type Manager struct {
	db          Database
	invalidator CacheInvalidator
	source      SchemaSource
	cache       cache.Client
	cfg         Config
	logger      *zap.Logger

	group   singleflight.Group
	mu      sync.Mutex
	tenants map[string]*tenantState

	cacheMu    sync.Mutex
	cacheReady bool

	first *firstCollectionCache
}

// Option customizes a Manager.
type Option func(*Manager)

// WithCache enables warm starts and snapshot writes through c.
func WithCache(c cache.Client) Option {
	return func(m *Manager) { m.cache = c }
}

// WithInvalidator sets the read-cache hook called after each write phase.
// It defaults to db when db implements CacheInvalidator.
func WithInvalidator(inv CacheInvalidator) Option {
	return func(m *Manager) { m.invalidator = inv }
}

// New creates a Manager.
func New(db Database, source SchemaSource, cfg Config, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		db:      db,
		source:  source,
		cfg:     cfg,
		logger:  log,
		tenants: make(map[string]*tenantState),
		first:   newFirstCollectionCache(time.Duration(cfg.FirstCollectionTTLSeconds) * time.Second),
	}
	if inv, ok := db.(CacheInvalidator); ok {
		m.invalidator = inv
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the initialization state of tenantID.
func (m *Manager) State(tenantID string) State {
	s, _ := m.tenant(tenantID).get()
	return s
}

// Initialize brings tenantID to the initialized state. Concurrent callers share
// one pass; an initialized tenant returns immediately.
func (m *Manager) Initialize(ctx context.Context, tenantID string) error {
	if s, _ := m.tenant(tenantID).get(); s == StateInitialized {
		return nil
	}
	return m.run(ctx, tenantID, false)
}

// Refresh rebuilds the tree of tenantID from disk, skipping the warm start.
// A refresh arriving while a plain initialization is in flight waits for it and
// then runs its own pass.
func (m *Manager) Refresh(ctx context.Context, tenantID string) error {
	return m.run(ctx, tenantID, true)
}

func (m *Manager) run(ctx context.Context, tenantID string, force bool) error {
	for {
		ch := m.group.DoChan(tenantID, func() (any, error) {
			return force, m.bootstrap(tenantID, force)
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		if res.Err != nil {
			return res.Err
		}
		if forced, _ := res.Val.(bool); !force || forced {
			return nil
		}
	}
}

// bootstrap runs one pass detached from any single caller, so that a caller
// giving up does not fail the others waiting on the same pass.
func (m *Manager) bootstrap(tenantID string, force bool) error {
	ts := m.tenant(tenantID)
	if s, _ := ts.get(); s == StateInitialized && !force {
		return nil
	}

	ctx := context.Background()
	if m.cfg.ReconcileTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.ReconcileTimeoutSeconds)*time.Second)
		defer cancel()
	}

	ts.write.Lock()
	defer ts.write.Unlock()

	log := logger.WithTenant(m.logger, tenantID)
	ts.set(StateInitializing, nil)

	if !force {
		if nodes, ok := m.warmStart(ctx, tenantID); ok {
			ts.index.Replace(nodes)
			ts.set(StateInitialized, nil)
			log.Info("Content structure loaded from cache", zap.Int("nodes", len(nodes)))
			return nil
		}
	}

	if err := m.reconcile(ctx, tenantID, ts.index); err != nil {
		ts.set(StateError, err)
		log.Error("Content initialization failed", zap.Error(err))
		return fmt.Errorf("initialize content for tenant %q: %w", tenantID, err)
	}
	ts.set(StateInitialized, nil)
	return nil
}

// ready returns the index of tenantID, initializing it first when needed.
func (m *Manager) ready(ctx context.Context, tenantID string) (*Index, error) {
	if err := m.Initialize(ctx, tenantID); err != nil {
		return nil, err
	}
	return m.tenant(tenantID).index, nil
}

func (m *Manager) tenant(tenantID string) *tenantState {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts, ok := m.tenants[tenantID]
	if !ok {
		ts = newTenantState()
		m.tenants[tenantID] = ts
	}
	return ts
}

func (m *Manager) invalidate() {
	if m.invalidator != nil {
		m.invalidator.InvalidateCategoryCache(CacheCategory)
	}
}
