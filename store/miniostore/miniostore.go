// Package miniostore implements store.Store for MinIO and other
// S3-compatible servers using the MinIO client.
package miniostore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/store"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store is a store.Store backed by a MinIO client.
type Store struct {
	client *minio.Client
	region string
}

var _ store.Store = (*Store)(nil)

// New creates a MinIO-backed store.
// Returns error if configuration is invalid or the client cannot be built.
func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid minio config")
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: region,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to create minio client")
		}
	}

	return &Store{client: client, region: region}, nil
}

// Client returns the underlying MinIO client.
func (s *Store) Client() *minio.Client {
	return s.client
}

// Kind implements store.Store.
func (s *Store) Kind() string {
	return store.KindMinIO
}

// ListBuckets implements store.Store.
func (s *Store) ListBuckets(ctx context.Context) ([]store.BucketInfo, error) {
	buckets, err := s.client.ListBuckets(ctx)
	if err != nil {
		return nil, translate(err, "", "")
	}

	out := make([]store.BucketInfo, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, store.BucketInfo{
			Name:         b.Name,
			Region:       s.region,
			CreationDate: b.CreationDate.UTC(),
		})
	}
	return out, nil
}

// BucketExists implements store.Store.
func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	ok, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, translate(err, bucket, "")
	}
	return ok, nil
}

// CreateBucket implements store.Store.
func (s *Store) CreateBucket(ctx context.Context, bucket, region string) (store.BucketInfo, error) {
	if region == "" {
		region = s.region
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return store.BucketInfo{}, translate(err, bucket, "")
	}
	return store.BucketInfo{Name: bucket, Region: region, CreationDate: time.Now().UTC()}, nil
}

// ListObjects implements store.Store.
func (s *Store) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]store.ObjectInfo, error) {
	// Listing a missing bucket yields nothing on some servers.
	ok, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.BucketNotFound(bucket)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []store.ObjectInfo
	for object := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, translate(object.Err, bucket, prefix)
		}
		objects = append(objects, store.ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified.UTC(),
		})
		if limit > 0 && len(objects) >= limit {
			break
		}
	}
	return objects, nil
}

// StatObject implements store.Store.
func (s *Store) StatObject(ctx context.Context, bucket, key string) (store.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return store.ObjectInfo{}, translate(err, bucket, key)
	}
	return store.ObjectInfo{Key: key, Size: info.Size, LastModified: info.LastModified.UTC()}, nil
}

// GetObject implements store.Store.
func (s *Store) GetObject(ctx context.Context, bucket, key string) ([]byte, store.ObjectInfo, error) {
	// Stat first so a missing object fails before streaming starts.
	info, err := s.StatObject(ctx, bucket, key)
	if err != nil {
		return nil, store.ObjectInfo{}, err
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, store.ObjectInfo{}, translate(err, bucket, key)
	}
	defer func() {
		_ = obj.Close()
	}()

	buf := make([]byte, info.Size)
	if _, err := io.ReadFull(obj, buf); err != nil {
		return nil, store.ObjectInfo{}, translate(err, bucket, key)
	}
	return buf, info, nil
}

// PutObject implements store.Store.
func (s *Store) PutObject(ctx context.Context, bucket, key string, data []byte) (store.ObjectInfo, error) {
	opts := minio.PutObjectOptions{ContentType: http.DetectContentType(data)}
	info, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return store.ObjectInfo{}, translate(err, bucket, key)
	}

	lastModified := info.LastModified.UTC()
	if lastModified.IsZero() {
		lastModified = time.Now().UTC()
	}
	return store.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: lastModified}, nil
}

// RemoveObject implements store.Store. S3 deletes are idempotent, so the
// object is stat'd first to report a missing key.
func (s *Store) RemoveObject(ctx context.Context, bucket, key string) error {
	if _, err := s.StatObject(ctx, bucket, key); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return translate(err, bucket, key)
	}
	return nil
}

// CopyObject implements store.Store using a server-side copy.
func (s *Store) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	src := minio.CopySrcOptions{Bucket: srcBucket, Object: srcKey}
	dst := minio.CopyDestOptions{Bucket: dstBucket, Object: dstKey}
	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		return translate(err, srcBucket, srcKey)
	}
	return nil
}

// PresignGet implements store.Store.
func (s *Store) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", translate(err, bucket, key)
	}
	return u.String(), nil
}

// translate converts MinIO errors to platform errors.
func translate(err error, bucket, key string) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return store.NotFound(bucket, key)
	case "NoSuchBucket":
		return store.BucketNotFound(bucket)
	}

	code := errors.CodeBackend
	switch resp.Code {
	case "AccessDenied":
		code = errors.CodeForbidden
	case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
		code = errors.CodeAlreadyExists
	case "SlowDown":
		code = errors.CodeRateLimit
	case "":
		if resp.StatusCode == 0 {
			code = errors.CodeTransport
		} else {
			code = errors.CodeForStatus(resp.StatusCode)
		}
	}

	return errors.WrapWithContext(err, code, "minio request failed",
		map[string]interface{}{"bucket": bucket, "key": key})
}
