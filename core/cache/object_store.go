package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"content-manager/core/storage"

	"github.com/minio/minio-go/v7"
)

// envelope is the JSON document written for each cached key.
type envelope struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Value     []byte     `json:"value"`
}

// ObjectStore is a Client backed by S3-compatible object storage.
type ObjectStore struct {
	client  storage.Client
	bucket  string
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// NewObjectStore creates a cache that keeps one object per key under prefix.
func NewObjectStore(client storage.Client, bucket, prefix string, timeout time.Duration) *ObjectStore {
	return &ObjectStore{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *ObjectStore) objectName(key, tenantID string) string {
	name := url.PathEscape(ScopedKey(key, tenantID)) + ".json"
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *ObjectStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Initialize creates the bucket if it does not exist yet.
func (s *ObjectStore) Initialize(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check cache bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create cache bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *ObjectStore) Get(ctx context.Context, key, tenantID string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	name := s.objectName(key, tenantID)
	reader, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache object %s: %w", name, err)
	}
	defer reader.Close()

	// minio reports a missing key on first read, not on GetObject.
	data, err := io.ReadAll(reader)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache object %s: %w", name, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode cache object %s: %w", name, err)
	}

	if env.ExpiresAt != nil && s.now().After(*env.ExpiresAt) {
		_ = s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
		return nil, nil
	}
	return env.Value, nil
}

func (s *ObjectStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tenantID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	env := envelope{Value: value}
	if ttl > 0 {
		expires := s.now().Add(ttl).UTC()
		env.ExpiresAt = &expires
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode cache envelope: %w", err)
	}

	name := s.objectName(key, tenantID)
	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put cache object %s: %w", name, err)
	}
	return nil
}

func (s *ObjectStore) Delete(ctx context.Context, key, tenantID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	name := s.objectName(key, tenantID)
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil && !storage.IsNotFound(err) {
		return fmt.Errorf("failed to delete cache object %s: %w", name, err)
	}
	return nil
}

// Purge removes every cached object of a tenant.
func (s *ObjectStore) Purge(ctx context.Context, tenantID string) error {
	prefix := url.PathEscape(ScopedKey("", tenantID))
	if s.prefix != "" {
		prefix = s.prefix + "/" + prefix
	}

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for obj := range objects {
			if obj.Err != nil {
				continue
			}
			select {
			case objectsCh <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	var failed []string
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", rerr.ObjectName, rerr.Err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("cache purge had %d errors: %v", len(failed), failed)
	}
	return nil
}
