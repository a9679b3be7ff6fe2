// Package cache provides the distributed key/value cache used to warm-start the
// content manager.
//
// Keys are always scoped by tenant, so two tenants sharing a backend never observe
// each other's values. Values are opaque bytes; GetJSON and SetJSON cover the common
// case of caching a JSON document.
//
// # Backends
//
//   - memory: an in-process TTL map. Useful for single-process installs and tests.
//   - storage: one JSON envelope object per key in an S3-compatible bucket, shared by
//     every process pointed at the same bucket.
//
// A miss is reported as (nil, nil). Callers are expected to treat any error as a
// miss as well; the cache is never a source of truth.
package cache
