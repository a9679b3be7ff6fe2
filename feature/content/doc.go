// Package content keeps the content tree of each tenant in memory and in sync
// with the collection schemas on disk and the nodes stored in the database.
//
// A Manager bootstraps a tenant once: it either adopts the snapshot found in the
// distributed cache, or reconciles the disk with the database. Reconciliation
// upserts every node by path, reads the database-assigned ids back, and only
// then writes parent links, so a node is never linked to an id that does not
// exist yet.
//
// Reads lazily initialize the tenant. Mutations and raw database reads require
// an initialized tenant and fail with ErrNotInitialized otherwise.
package content
