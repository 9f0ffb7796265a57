package store

import (
	"context"

	"github.com/jmgilman/go/drives/errors"
)

// Copy copies an object between two stores. Within one store the provider's
// server-side copy is used; across stores the object is read and written.
func Copy(ctx context.Context, src Store, srcBucket, srcKey string, dst Store, dstBucket, dstKey string) error {
	if src == dst {
		return src.CopyObject(ctx, srcBucket, srcKey, dstBucket, dstKey)
	}

	data, _, err := src.GetObject(ctx, srcBucket, srcKey)
	if err != nil {
		return errors.Wrap(err, errors.GetCode(err), "failed to read source object")
	}
	if _, err := dst.PutObject(ctx, dstBucket, dstKey, data); err != nil {
		return errors.Wrap(err, errors.GetCode(err), "failed to write destination object")
	}
	return nil
}

// Move copies an object and then removes the source. It is not atomic: when
// the removal fails both objects exist.
func Move(ctx context.Context, src Store, srcBucket, srcKey string, dst Store, dstBucket, dstKey string) error {
	if src == dst && srcBucket == dstBucket && srcKey == dstKey {
		return nil
	}
	if err := Copy(ctx, src, srcBucket, srcKey, dst, dstBucket, dstKey); err != nil {
		return err
	}
	if err := src.RemoveObject(ctx, srcBucket, srcKey); err != nil {
		return errors.WithContext(
			errors.Wrap(err, errors.GetCode(err), "object copied but source not removed"),
			"key", srcKey,
		)
	}
	return nil
}

// NotFound returns the error stores use for a missing object.
func NotFound(bucket, key string) error {
	return errors.WithContextMap(
		errors.New(errors.CodeNotFound, "object not found"),
		map[string]interface{}{"bucket": bucket, "key": key},
	)
}

// BucketNotFound returns the error stores use for a missing bucket.
func BucketNotFound(bucket string) error {
	return errors.WithContext(
		errors.New(errors.CodeNotFound, "bucket not found"),
		"bucket", bucket,
	)
}
