// Package store defines the object storage providers behind the drives REST
// surface.
//
// A Store is one provider account. Its buckets are drives and its objects are
// addressed by flat keys; a key ending in "/" is a directory marker. Every
// implementation reports a missing bucket or object with errors.CodeNotFound
// so callers can tell absence from failure.
package store

import (
	"context"
	"time"
)

// Provider kinds.
const (
	KindMinIO = "minio"
	KindS3    = "s3"
	KindLocal = "local"
)

// BucketInfo describes one bucket.
type BucketInfo struct {
	Name         string
	Region       string
	CreationDate time.Time
}

// ObjectInfo describes one object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is an object storage provider.
type Store interface {
	// Kind returns the provider kind, e.g. KindS3.
	Kind() string

	// ListBuckets returns every bucket visible to the credentials.
	ListBuckets(ctx context.Context) ([]BucketInfo, error)

	// BucketExists reports whether bucket exists and is reachable.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// CreateBucket creates bucket in region. An empty region selects the
	// provider default.
	CreateBucket(ctx context.Context, bucket, region string) (BucketInfo, error)

	// ListObjects returns up to limit objects whose key starts with prefix,
	// recursively, ordered by key. A limit of zero or less means no limit.
	ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error)

	// StatObject returns the metadata of one object.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)

	// GetObject reads one object.
	GetObject(ctx context.Context, bucket, key string) ([]byte, ObjectInfo, error)

	// PutObject writes one object, replacing any existing one.
	PutObject(ctx context.Context, bucket, key string, data []byte) (ObjectInfo, error)

	// RemoveObject deletes one object. Deleting a missing object fails with
	// errors.CodeNotFound.
	RemoveObject(ctx context.Context, bucket, key string) error

	// CopyObject copies one object within the provider, possibly across
	// buckets.
	CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error

	// PresignGet returns a URL granting read access to one object for ttl.
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}
