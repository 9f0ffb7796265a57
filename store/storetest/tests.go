package storetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bucketSeq atomic.Int64

// freshBucket creates a uniquely named bucket for one test.
func freshBucket(t *testing.T, s store.Store) string {
	t.Helper()
	name := fmt.Sprintf("conformance-%d-%d", time.Now().UnixNano()%1_000_000, bucketSeq.Add(1))
	_, err := s.CreateBucket(context.Background(), name, "")
	require.NoError(t, err)
	return name
}

func put(t *testing.T, s store.Store, bucket string, keys ...string) {
	t.Helper()
	for _, key := range keys {
		_, err := s.PutObject(context.Background(), bucket, key, []byte("content of "+key))
		require.NoError(t, err)
	}
}

func listedKeys(t *testing.T, s store.Store, bucket, prefix string) []string {
	t.Helper()
	objects, err := s.ListObjects(context.Background(), bucket, prefix, 0)
	require.NoError(t, err)
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.Key)
	}
	return keys
}

func testBuckets(t *testing.T, newStore func(t *testing.T) store.Store, config Config) {
	ctx := context.Background()

	t.Run("CreateAndList", func(t *testing.T) {
		config.skip(t, "Buckets/CreateAndList")
		s := newStore(t)
		bucket := freshBucket(t, s)

		exists, err := s.BucketExists(ctx, bucket)
		require.NoError(t, err)
		assert.True(t, exists)

		buckets, err := s.ListBuckets(ctx)
		require.NoError(t, err)
		var names []string
		for _, b := range buckets {
			names = append(names, b.Name)
		}
		assert.Contains(t, names, bucket)
	})

	t.Run("Missing", func(t *testing.T) {
		config.skip(t, "Buckets/Missing")
		s := newStore(t)

		exists, err := s.BucketExists(ctx, "conformance-missing-bucket")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = s.ListObjects(ctx, "conformance-missing-bucket", "", 0)
		assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	})
}

func testObjects(t *testing.T, newStore func(t *testing.T) store.Store, config Config) {
	ctx := context.Background()

	t.Run("PutGetStat", func(t *testing.T) {
		config.skip(t, "Objects/PutGetStat")
		s := newStore(t)
		bucket := freshBucket(t, s)

		info, err := s.PutObject(ctx, bucket, "docs/readme.md", []byte("# hello"))
		require.NoError(t, err)
		assert.Equal(t, "docs/readme.md", info.Key)
		assert.Equal(t, int64(7), info.Size)

		data, info, err := s.GetObject(ctx, bucket, "docs/readme.md")
		require.NoError(t, err)
		assert.Equal(t, "# hello", string(data))
		assert.Equal(t, int64(7), info.Size)
		assert.False(t, info.LastModified.IsZero())

		stat, err := s.StatObject(ctx, bucket, "docs/readme.md")
		require.NoError(t, err)
		assert.Equal(t, int64(7), stat.Size)
	})

	t.Run("Overwrite", func(t *testing.T) {
		config.skip(t, "Objects/Overwrite")
		s := newStore(t)
		bucket := freshBucket(t, s)

		put(t, s, bucket, "a.txt")
		_, err := s.PutObject(ctx, bucket, "a.txt", []byte("new"))
		require.NoError(t, err)

		data, _, err := s.GetObject(ctx, bucket, "a.txt")
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("MissingObject", func(t *testing.T) {
		config.skip(t, "Objects/MissingObject")
		s := newStore(t)
		bucket := freshBucket(t, s)

		_, err := s.StatObject(ctx, bucket, "nope.txt")
		assert.True(t, errors.HasCode(err, errors.CodeNotFound))

		_, _, err = s.GetObject(ctx, bucket, "nope.txt")
		assert.True(t, errors.HasCode(err, errors.CodeNotFound))

		err = s.RemoveObject(ctx, bucket, "nope.txt")
		assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	})

	t.Run("Remove", func(t *testing.T) {
		config.skip(t, "Objects/Remove")
		s := newStore(t)
		bucket := freshBucket(t, s)

		put(t, s, bucket, "a.txt", "b.txt")
		require.NoError(t, s.RemoveObject(ctx, bucket, "a.txt"))
		assert.Equal(t, []string{"b.txt"}, listedKeys(t, s, bucket, ""))
	})

	t.Run("Copy", func(t *testing.T) {
		config.skip(t, "Objects/Copy")
		s := newStore(t)
		src := freshBucket(t, s)
		dst := freshBucket(t, s)

		put(t, s, src, "a.txt")
		require.NoError(t, s.CopyObject(ctx, src, "a.txt", dst, "copied/a.txt"))

		data, _, err := s.GetObject(ctx, dst, "copied/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "content of a.txt", string(data))

		_, err = s.StatObject(ctx, src, "a.txt")
		assert.NoError(t, err, "source survives a copy")
	})

	t.Run("Presign", func(t *testing.T) {
		config.skip(t, "Objects/Presign")
		s := newStore(t)
		bucket := freshBucket(t, s)
		put(t, s, bucket, "a.txt")

		url, err := s.PresignGet(ctx, bucket, "a.txt", time.Minute)
		if !config.Presign {
			assert.True(t, errors.HasCode(err, errors.CodeUnsupported))
			return
		}
		require.NoError(t, err)
		assert.Contains(t, url, "a.txt")
	})
}

func testListing(t *testing.T, newStore func(t *testing.T) store.Store, config Config) {
	ctx := context.Background()

	t.Run("RecursiveAndOrdered", func(t *testing.T) {
		config.skip(t, "Listing/RecursiveAndOrdered")
		s := newStore(t)
		bucket := freshBucket(t, s)

		put(t, s, bucket, "z.txt", "dir/b.txt", "dir/a.txt", "dir/sub/c.txt", "dirx.txt")

		assert.Equal(t,
			[]string{"dir/a.txt", "dir/b.txt", "dir/sub/c.txt", "dirx.txt", "z.txt"},
			listedKeys(t, s, bucket, ""))
		assert.Equal(t,
			[]string{"dir/a.txt", "dir/b.txt", "dir/sub/c.txt"},
			listedKeys(t, s, bucket, "dir/"))
		assert.Empty(t, listedKeys(t, s, bucket, "missing/"))
	})

	t.Run("Limit", func(t *testing.T) {
		config.skip(t, "Listing/Limit")
		s := newStore(t)
		bucket := freshBucket(t, s)

		put(t, s, bucket, "a", "b", "c", "d")
		objects, err := s.ListObjects(ctx, bucket, "", 2)
		require.NoError(t, err)
		require.Len(t, objects, 2)
		assert.Equal(t, "a", objects[0].Key)
		assert.Equal(t, "b", objects[1].Key)
	})
}

func testMarkers(t *testing.T, newStore func(t *testing.T) store.Store, config Config) {
	ctx := context.Background()

	t.Run("EmptyDirectory", func(t *testing.T) {
		config.skip(t, "Markers/EmptyDirectory")
		s := newStore(t)
		bucket := freshBucket(t, s)

		_, err := s.PutObject(ctx, bucket, "folder/", nil)
		require.NoError(t, err)

		info, err := s.StatObject(ctx, bucket, "folder/")
		require.NoError(t, err)
		assert.Equal(t, int64(0), info.Size)
		assert.Equal(t, []string{"folder/"}, listedKeys(t, s, bucket, ""))

		require.NoError(t, s.RemoveObject(ctx, bucket, "folder/"))
		assert.Empty(t, listedKeys(t, s, bucket, ""))
	})

	t.Run("MarkerWithChildren", func(t *testing.T) {
		config.skip(t, "Markers/MarkerWithChildren")
		s := newStore(t)
		bucket := freshBucket(t, s)

		_, err := s.PutObject(ctx, bucket, "folder/", nil)
		require.NoError(t, err)
		put(t, s, bucket, "folder/a.txt")

		want := []string{"folder/a.txt"}
		if config.PersistentMarkers {
			want = []string{"folder/", "folder/a.txt"}
		}
		assert.Equal(t, want, listedKeys(t, s, bucket, "folder/"))
	})

	t.Run("ObjectIsNotMarker", func(t *testing.T) {
		config.skip(t, "Markers/ObjectIsNotMarker")
		s := newStore(t)
		bucket := freshBucket(t, s)

		put(t, s, bucket, "file")
		_, err := s.StatObject(ctx, bucket, "file/")
		assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	})
}

func testHelpers(t *testing.T, newStore func(t *testing.T) store.Store, config Config) {
	ctx := context.Background()

	t.Run("Move", func(t *testing.T) {
		config.skip(t, "Helpers/Move")
		s := newStore(t)
		bucket := freshBucket(t, s)

		put(t, s, bucket, "old.txt")
		require.NoError(t, store.Move(ctx, s, bucket, "old.txt", s, bucket, "new.txt"))
		assert.Equal(t, []string{"new.txt"}, listedKeys(t, s, bucket, ""))
	})

	t.Run("MoveOntoItself", func(t *testing.T) {
		config.skip(t, "Helpers/MoveOntoItself")
		s := newStore(t)
		bucket := freshBucket(t, s)

		put(t, s, bucket, "same.txt")
		require.NoError(t, store.Move(ctx, s, bucket, "same.txt", s, bucket, "same.txt"))
		assert.Equal(t, []string{"same.txt"}, listedKeys(t, s, bucket, ""))
	})
}
