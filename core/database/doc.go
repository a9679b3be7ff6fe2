// Package database handles database connections and schema inspection.
//
// It wraps GORM so the rest of the application opens MySQL (production) or SQLite
// (local runs and tests) through one Connect function driven by configuration.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the content store verify that the
// content_nodes table carries every column it writes before a reconciliation pass
// starts issuing bulk upserts.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	missing, err := database.MissingColumns(ctx, db, "content_nodes", []string{"path", "parent_id"})
package database
