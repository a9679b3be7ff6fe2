package content

import (
	"context"

	"content-manager/feature/content/schema"
	"content-manager/feature/content/store"
)

// Database is the persistent node store.
type Database interface {
	GetStructure(ctx context.Context, q store.StructureQuery) (*store.Structure, error)
	BulkUpdate(ctx context.Context, tenantID string, updates []store.Update) error
	Delete(ctx context.Context, tenantID, path string) error
}

// CacheInvalidator drops downstream read caches of a content category.
type CacheInvalidator interface {
	InvalidateCategoryCache(category string)
}

// SchemaSource discovers collection schemas.
type SchemaSource interface {
	Scan(ctx context.Context) ([]schema.Schema, error)
}

// CacheCategory is the read-cache category holding content nodes.
const CacheCategory = "collections"
