// Package s3store implements store.Store for Amazon S3 using the AWS SDK.
package s3store

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/store"
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// Config holds S3 store configuration.
type Config struct {
	// Region is the default region for requests and new buckets.
	Region string `json:"region" yaml:"region"`

	// Endpoint overrides the service endpoint, e.g. for an S3-compatible server.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// AccessKey and SecretKey select static credentials. When both are empty
	// the SDK's default credential chain is used.
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`

	// UsePathStyle addresses buckets as path segments instead of hostnames.
	UsePathStyle bool `json:"use_path_style,omitempty" yaml:"use_path_style,omitempty"`

	// Client is an optional pre-configured S3 client.
	Client *s3.Client `json:"-" yaml:"-"`
}

// Store is a store.Store backed by the S3 API.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	region  string
}

var _ store.Store = (*Store)(nil)

// New creates an S3-backed store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	client := cfg.Client
	if client == nil {
		if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
			return nil, errors.New(errors.CodeInvalidConfig, "access key and secret key must be set together")
		}

		opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
		if cfg.AccessKey != "" {
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to load aws config")
		}

		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		region:  region,
	}, nil
}

// Kind implements store.Store.
func (s *Store) Kind() string {
	return store.KindS3
}

// ListBuckets implements store.Store.
func (s *Store) ListBuckets(ctx context.Context) ([]store.BucketInfo, error) {
	out, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, translate(err, "", "")
	}

	buckets := make([]store.BucketInfo, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		region := aws.ToString(b.BucketRegion)
		if region == "" {
			region = s.region
		}
		buckets = append(buckets, store.BucketInfo{
			Name:         aws.ToString(b.Name),
			Region:       region,
			CreationDate: aws.ToTime(b.CreationDate).UTC(),
		})
	}
	return buckets, nil
}

// BucketExists implements store.Store.
func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	err = translate(err, bucket, "")
	if errors.HasCode(err, errors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

// CreateBucket implements store.Store.
func (s *Store) CreateBucket(ctx context.Context, bucket, region string) (store.BucketInfo, error) {
	if region == "" {
		region = s.region
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint.
	if region != DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return store.BucketInfo{}, translate(err, bucket, "")
	}
	return store.BucketInfo{Name: bucket, Region: region, CreationDate: time.Now().UTC()}, nil
}

// ListObjects implements store.Store.
func (s *Store) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]store.ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	var objects []store.ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translate(err, bucket, prefix)
		}
		for _, obj := range page.Contents {
			objects = append(objects, store.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified).UTC(),
			})
			if limit > 0 && len(objects) >= limit {
				return objects, nil
			}
		}
	}
	return objects, nil
}

// StatObject implements store.Store.
func (s *Store) StatObject(ctx context.Context, bucket, key string) (store.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return store.ObjectInfo{}, translate(err, bucket, key)
	}
	return store.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified).UTC(),
	}, nil
}

// GetObject implements store.Store.
func (s *Store) GetObject(ctx context.Context, bucket, key string) ([]byte, store.ObjectInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, store.ObjectInfo{}, translate(err, bucket, key)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, store.ObjectInfo{}, errors.WrapWithContext(err, errors.CodeTransport, "failed to read object body",
			map[string]interface{}{"bucket": bucket, "key": key})
	}
	return data, store.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		LastModified: aws.ToTime(out.LastModified).UTC(),
	}, nil
}

// PutObject implements store.Store.
func (s *Store) PutObject(ctx context.Context, bucket, key string, data []byte) (store.ObjectInfo, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return store.ObjectInfo{}, translate(err, bucket, key)
	}
	return store.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: time.Now().UTC()}, nil
}

// RemoveObject implements store.Store. S3 deletes are idempotent, so the
// object is stat'd first to report a missing key.
func (s *Store) RemoveObject(ctx context.Context, bucket, key string) error {
	if _, err := s.StatObject(ctx, bucket, key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return translate(err, bucket, key)
}

// CopyObject implements store.Store using a server-side copy.
func (s *Store) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(srcBucket, srcKey)),
	})
	return translate(err, srcBucket, srcKey)
}

// PresignGet implements store.Store.
func (s *Store) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", translate(err, bucket, key)
	}
	return req.URL, nil
}

// copySource builds the URL-encoded "bucket/key" copy source.
func copySource(bucket, key string) string {
	return (&url.URL{Path: bucket + "/" + key}).EscapedPath()
}

// translate converts AWS SDK errors to platform errors.
func translate(err error, bucket, key string) error {
	if err == nil {
		return nil
	}

	var (
		noSuchKey    *types.NoSuchKey
		notFound     *types.NotFound
		noSuchBucket *types.NoSuchBucket
		owned        *types.BucketAlreadyOwnedByYou
		exists       *types.BucketAlreadyExists
	)
	switch {
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		if key == "" {
			return store.BucketNotFound(bucket)
		}
		return store.NotFound(bucket, key)
	case errors.As(err, &noSuchBucket):
		return store.BucketNotFound(bucket)
	case errors.As(err, &owned), errors.As(err, &exists):
		return errors.WrapWithContext(err, errors.CodeAlreadyExists, "bucket already exists",
			map[string]interface{}{"bucket": bucket})
	}

	code := errors.CodeTransport
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		code = errors.CodeForStatus(respErr.HTTPStatusCode())
		if code == errors.CodeNotFound {
			return store.NotFound(bucket, key)
		}
		if code == errors.CodeTransport || code == errors.CodeUnknown {
			code = errors.CodeBackend
		}
	}

	return errors.WrapWithContext(err, code, "s3 request failed",
		map[string]interface{}{"bucket": bucket, "key": key})
}
