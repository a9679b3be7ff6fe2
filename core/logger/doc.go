// Package logger provides a structured logging facility based on Zap.
//
// Every component of the content manager receives a *zap.Logger built here.
// Reconciliation passes, cache fall-throughs, and skipped schema files are all
// reported through it with structured fields rather than formatted strings.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log = logger.WithTenant(log, tenantID)
//	log.Warn("cache unavailable, falling back to reconciliation", zap.Error(err))
package logger
