package content

import "errors"

var (
	// ErrNotInitialized is returned by operations that refuse to bootstrap lazily.
	ErrNotInitialized = errors.New("content manager is not initialized")
	// ErrNotFound is returned when no node matches a lookup.
	ErrNotFound = errors.New("content node not found")
	// ErrInvalidOperation is returned for a mutation that would break the tree.
	ErrInvalidOperation = errors.New("invalid content operation")
)
