package content

import "sync"

// State is the initialization state of one tenant.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateInitialized
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateError:
		return "error"
	}
	return "unknown"
}

// tenantState is the per-tenant slice of the manager.
type tenantState struct {
	mu    sync.RWMutex
	state State
	err   error
	index *Index

	// write serializes mutations with reconciliation passes.
	write sync.Mutex
}

func newTenantState() *tenantState {
	return &tenantState{index: NewIndex()}
}

func (t *tenantState) get() (State, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.err
}

func (t *tenantState) set(s State, err error) {
	t.mu.Lock()
	t.state = s
	t.err = err
	t.mu.Unlock()
}
