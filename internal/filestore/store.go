// Package filestore defines the interface for the object storage backends
// that hold schema declarations and raw datasets.
//
// All providers (MinIO, S3, …) implement the Store interface. Callers depend
// only on this package — never on a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	obj, err := store.GetObject(ctx, "schemas", "events.yaml")
package filestore

import (
	"bytes"
	"context"

	"github.com/koustreak/FrameCheck/internal/errs"
)

// Store is the single interface all storage providers must implement.
// Only read operations are exposed: declarations and datasets are published
// to the store by other systems and consumed here.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error

	// ListBuckets returns all buckets accessible with the configured credentials.
	ListBuckets(ctx context.Context) ([]BucketInfo, error)

	// ListObjects returns the objects in bucket that match opts.
	// Virtual directory entries (common prefixes) are included when
	// opts.Recursive is false.
	ListObjects(ctx context.Context, bucket string, opts ListOptions) ([]ObjectInfo, error)

	// GetObject opens a streaming handle to the object at key inside bucket.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, bucket, key string) (Object, error)

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}

// ReadObject fetches the full content of the object at key inside bucket.
// Intended for small objects such as schema declarations; datasets should be
// streamed through GetObject instead. The object is stat'ed first: a missing
// key fails before any stream is opened (MinIO GetObject handles only error
// on first read), and a known size lets the buffer be allocated once.
func ReadObject(ctx context.Context, s Store, bucket, key string) ([]byte, error) {
	info, err := s.StatObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	obj, err := s.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	var buf bytes.Buffer
	if info.Size > 0 {
		buf.Grow(int(info.Size))
	}
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to read object "+key, err)
	}
	return buf.Bytes(), nil
}
