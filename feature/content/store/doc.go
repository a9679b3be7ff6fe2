// Package store is the database adapter for the content tree.
//
// Nodes live in one content_nodes table keyed by (tenant_id, path). The database
// assigns every node its canonical id on first insert; callers write by path and
// read ids back. Collection rows only hold a projection of their definition.
//
// Reads go through a short-lived cache with stampede protection. Writers that
// need to observe their own writes either pass BypassCache or call
// InvalidateCategoryCache after writing.
package store
