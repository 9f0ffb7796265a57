// Package localstore implements store.Store over a go-billy filesystem.
//
// Each bucket is a top-level directory of the filesystem and each object is a
// regular file below it. Directories have no object of their own, so listings
// report an empty directory as a "name/" marker and writing a marker creates
// the directory. The in-memory variant backs tests and the development server.
package localstore

import (
	"context"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/store"
)

// Region is reported for every bucket.
const Region = "local"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is a store.Store rooted at a billy filesystem.
type Store struct {
	mu  sync.RWMutex
	bfs billy.Filesystem
}

var _ store.Store = (*Store)(nil)

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem) *Store {
	return &Store{bfs: bfs}
}

// NewOS returns a store whose buckets are the directories under root.
func NewOS(root string) *Store {
	return New(osfs.New(root))
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Store {
	return New(memfs.New())
}

// Unwrap returns the underlying billy.Filesystem.
func (s *Store) Unwrap() billy.Filesystem {
	return s.bfs
}

// Kind implements store.Store.
func (s *Store) Kind() string {
	return store.KindLocal
}

// ListBuckets implements store.Store.
func (s *Store) ListBuckets(_ context.Context) ([]store.BucketInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos, err := s.bfs.ReadDir("/")
	if err != nil {
		return nil, translate(err, "", "")
	}

	buckets := make([]store.BucketInfo, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		buckets = append(buckets, bucketInfo(info))
	}
	return buckets, nil
}

// BucketExists implements store.Store.
func (s *Store) BucketExists(_ context.Context, bucket string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.bucket(bucket)
	if errors.HasCode(err, errors.CodeNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CreateBucket implements store.Store. The region is ignored.
func (s *Store) CreateBucket(_ context.Context, bucket, _ string) (store.BucketInfo, error) {
	if err := validBucket(bucket); err != nil {
		return store.BucketInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.bfs.Stat(bucket); err == nil {
		return store.BucketInfo{}, errors.WithContext(
			errors.New(errors.CodeAlreadyExists, "bucket already exists"),
			"bucket", bucket,
		)
	}
	if err := s.bfs.MkdirAll(bucket, dirPerm); err != nil {
		return store.BucketInfo{}, translate(err, bucket, "")
	}
	info, err := s.bfs.Stat(bucket)
	if err != nil {
		return store.BucketInfo{}, translate(err, bucket, "")
	}
	return bucketInfo(info), nil
}

// ListObjects implements store.Store.
func (s *Store) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]store.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.bucket(bucket); err != nil {
		return nil, err
	}

	var objects []store.ObjectInfo
	err := s.walk(ctx, bucket, "", func(obj store.ObjectInfo) {
		if strings.HasPrefix(obj.Key, prefix) {
			objects = append(objects, obj)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	if limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}
	return objects, nil
}

// StatObject implements store.Store. A marker key stats the directory.
func (s *Store) StatObject(_ context.Context, bucket, key string) (store.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stat(bucket, key)
}

// GetObject implements store.Store.
func (s *Store) GetObject(_ context.Context, bucket, key string) ([]byte, store.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := s.stat(bucket, key)
	if err != nil {
		return nil, store.ObjectInfo{}, err
	}
	if isMarker(key) {
		return []byte{}, info, nil
	}

	data, err := util.ReadFile(s.bfs, s.join(bucket, key))
	if err != nil {
		return nil, store.ObjectInfo{}, translate(err, bucket, key)
	}
	return data, info, nil
}

// PutObject implements store.Store. Missing parent directories are created.
func (s *Store) PutObject(_ context.Context, bucket, key string, data []byte) (store.ObjectInfo, error) {
	if key == "" {
		return store.ObjectInfo{}, errors.New(errors.CodeInvalidInput, "object key is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.bucket(bucket); err != nil {
		return store.ObjectInfo{}, err
	}

	name := s.join(bucket, key)
	if isMarker(key) {
		if err := s.bfs.MkdirAll(name, dirPerm); err != nil {
			return store.ObjectInfo{}, translate(err, bucket, key)
		}
		return s.stat(bucket, key)
	}

	if info, err := s.bfs.Stat(name); err == nil && info.IsDir() {
		return store.ObjectInfo{}, errors.WithContext(
			errors.New(errors.CodeConflict, "a directory exists at this key"),
			"key", key,
		)
	}
	if err := s.bfs.MkdirAll(path.Dir(name), dirPerm); err != nil {
		return store.ObjectInfo{}, translate(err, bucket, key)
	}
	if err := util.WriteFile(s.bfs, name, data, filePerm); err != nil {
		return store.ObjectInfo{}, translate(err, bucket, key)
	}
	return s.stat(bucket, key)
}

// RemoveObject implements store.Store. Removing a marker removes its
// directory, together with any empty subdirectories, as long as no object
// lives below it.
func (s *Store) RemoveObject(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.stat(bucket, key); err != nil {
		return err
	}

	name := s.join(bucket, key)
	if !isMarker(key) {
		return translate(s.bfs.Remove(name), bucket, key)
	}

	hasFiles, err := s.containsFiles(name)
	if err != nil {
		return translate(err, bucket, key)
	}
	if hasFiles {
		// Objects below keep the directory alive.
		return nil
	}
	return translate(util.RemoveAll(s.bfs, name), bucket, key)
}

// CopyObject implements store.Store.
func (s *Store) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	data, _, err := s.GetObject(ctx, srcBucket, srcKey)
	if err != nil {
		return err
	}
	if isMarker(srcKey) != isMarker(dstKey) {
		return errors.WithContextMap(
			errors.New(errors.CodeInvalidInput, "cannot copy between a marker and an object"),
			map[string]interface{}{"src": srcKey, "dst": dstKey},
		)
	}
	_, err = s.PutObject(ctx, dstBucket, dstKey, data)
	return err
}

// PresignGet implements store.Store. Local files have no URL to sign.
func (s *Store) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "", errors.WithContextMap(
		errors.New(errors.CodeUnsupported, "presigned links are not available for local storage"),
		map[string]interface{}{"bucket": bucket, "key": key},
	)
}

func (s *Store) bucket(bucket string) (os.FileInfo, error) {
	if err := validBucket(bucket); err != nil {
		return nil, err
	}
	info, err := s.bfs.Stat(bucket)
	if err != nil || !info.IsDir() {
		return nil, store.BucketNotFound(bucket)
	}
	return info, nil
}

func (s *Store) stat(bucket, key string) (store.ObjectInfo, error) {
	if _, err := s.bucket(bucket); err != nil {
		return store.ObjectInfo{}, err
	}
	if key == "" {
		return store.ObjectInfo{}, store.NotFound(bucket, key)
	}

	info, err := s.bfs.Stat(s.join(bucket, key))
	if err != nil {
		return store.ObjectInfo{}, translate(err, bucket, key)
	}
	if info.IsDir() != isMarker(key) {
		return store.ObjectInfo{}, store.NotFound(bucket, key)
	}

	obj := store.ObjectInfo{Key: key, LastModified: info.ModTime().UTC()}
	if !info.IsDir() {
		obj.Size = info.Size()
	}
	return obj, nil
}

// walk visits every object under bucket/dir. Empty directories are reported
// as markers.
func (s *Store) walk(ctx context.Context, bucket, dir string, visit func(store.ObjectInfo)) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeTimeout, "listing cancelled")
	}

	infos, err := s.bfs.ReadDir(s.join(bucket, dir))
	if err != nil {
		return translate(err, bucket, dir)
	}

	for _, info := range infos {
		key := dir + info.Name()
		if !info.IsDir() {
			visit(store.ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime().UTC()})
			continue
		}

		key += "/"
		children, err := s.bfs.ReadDir(s.join(bucket, key))
		if err != nil {
			return translate(err, bucket, key)
		}
		if len(children) == 0 {
			visit(store.ObjectInfo{Key: key, LastModified: info.ModTime().UTC()})
			continue
		}
		if err := s.walk(ctx, bucket, key, visit); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) containsFiles(dir string) (bool, error) {
	infos, err := s.bfs.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if !info.IsDir() {
			return true, nil
		}
		found, err := s.containsFiles(s.bfs.Join(dir, info.Name()))
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

func (s *Store) join(bucket, key string) string {
	return s.bfs.Join(bucket, strings.TrimSuffix(key, "/"))
}

func bucketInfo(info os.FileInfo) store.BucketInfo {
	return store.BucketInfo{
		Name:         info.Name(),
		Region:       Region,
		CreationDate: info.ModTime().UTC(),
	}
}

func isMarker(key string) bool {
	return strings.HasSuffix(key, "/")
}

func validBucket(bucket string) error {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return errors.WithContext(
			errors.New(errors.CodeInvalidInput, "invalid bucket name"),
			"bucket", bucket,
		)
	}
	return nil
}

func translate(err error, bucket, key string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return store.NotFound(bucket, key)
	case errors.Is(err, fs.ErrPermission):
		return errors.WrapWithContext(err, errors.CodeForbidden, "permission denied",
			map[string]interface{}{"bucket": bucket, "key": key})
	default:
		return errors.WrapWithContext(err, errors.CodeInternal, "local storage failure",
			map[string]interface{}{"bucket": bucket, "key": key})
	}
}
