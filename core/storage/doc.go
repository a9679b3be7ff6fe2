// Package storage wraps the MinIO client used to reach S3-compatible object storage.
//
// The content manager uses object storage as the shared backend of the distributed
// cache (see core/cache): each cached value is one small JSON object, so every process
// pointed at the same bucket shares warm-start data.
//
// The Client interface exists so callers can be tested against core/storage/mocks.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
package storage
