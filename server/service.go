// Package server implements the drives REST surface over object stores.
//
// A Service owns the drive table of one deployment: the primary provider
// whose buckets are the drives, an optional local store whose drives are
// always mounted, and the visibility and listing settings changed through the
// drives/config endpoint. Handle routes one request; Dispatcher serves it in
// process and Router serves it over HTTP with gin.
package server

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/gateway"
	"github.com/jmgilman/go/drives/registry"
	"github.com/jmgilman/go/drives/store"
)

// DefaultListingLimit caps the objects returned by one listing.
const DefaultListingLimit = 1025

// DefaultPresignTTL is the lifetime of presigned links.
const DefaultPresignTTL = time.Hour

// MessageAlreadyMounted answers a mount of a mounted drive.
const MessageAlreadyMounted = "Drive already mounted."

// Service is safe for concurrent use.
type Service struct {
	primary    store.Store
	local      store.Store
	logger     *zap.Logger
	presignTTL time.Duration
	limit      atomic.Int64

	mu       sync.RWMutex
	mounted  map[string]store.Store
	excluded map[string]struct{}
	external map[string]contents.DriveInfo
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocalStore serves the buckets of local as always-mounted drives.
func WithLocalStore(local store.Store) Option {
	return func(s *Service) {
		s.local = local
	}
}

// WithListingLimit sets the initial listing limit. Values below one are
// ignored.
func WithListingLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit.Store(int64(n))
		}
	}
}

// WithPresignTTL sets the lifetime of presigned links.
func WithPresignTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.presignTTL = ttl
		}
	}
}

// New creates a Service whose drives are the buckets of primary.
func New(primary store.Store, opts ...Option) *Service {
	s := &Service{
		primary:    primary,
		logger:     zap.NewNop(),
		presignTTL: DefaultPresignTTL,
		mounted:    make(map[string]store.Store),
		excluded:   make(map[string]struct{}),
		external:   make(map[string]contents.DriveInfo),
	}
	s.limit.Store(DefaultListingLimit)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListingLimit returns the current listing limit.
func (s *Service) ListingLimit() int {
	return int(s.limit.Load())
}

// ListDrives returns every visible drive: the primary provider's buckets,
// registered external drives and the local store's buckets.
func (s *Service) ListDrives(ctx context.Context) ([]contents.DriveInfo, error) {
	buckets, err := s.primary.ListBuckets(ctx)
	recordStoreOp("list_buckets", err)
	if err != nil {
		return nil, errors.Wrap(err, errors.GetCode(err), "failed to list buckets")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	drives := make([]contents.DriveInfo, 0, len(buckets)+len(s.external))
	add := func(info contents.DriveInfo) {
		if _, hidden := s.excluded[info.Name]; hidden {
			return
		}
		if _, dup := seen[info.Name]; dup {
			return
		}
		seen[info.Name] = struct{}{}
		drives = append(drives, info)
	}

	for _, b := range buckets {
		add(s.describe(b, s.primary))
	}

	externals := make([]string, 0, len(s.external))
	for name := range s.external {
		externals = append(externals, name)
	}
	sort.Strings(externals)
	for _, name := range externals {
		info := s.external[name]
		_, info.Mounted = s.mounted[name]
		add(info)
	}

	if s.local != nil && s.local != s.primary {
		locals, err := s.local.ListBuckets(ctx)
		recordStoreOp("list_buckets", err)
		if err != nil {
			s.logger.Warn("failed to list local drives", zap.Error(err))
		}
		for _, b := range locals {
			add(s.describe(b, s.local))
		}
	}
	return drives, nil
}

// describe must be called with s.mu held.
func (s *Service) describe(b store.BucketInfo, st store.Store) contents.DriveInfo {
	_, mounted := s.mounted[b.Name]
	if st == s.local {
		mounted = true
	}
	return contents.DriveInfo{
		Name:         b.Name,
		Region:       b.Region,
		Provider:     st.Kind(),
		CreationDate: b.CreationDate,
		Mounted:      mounted,
	}
}

// Mount connects a drive. Mounting a mounted drive, including any local
// drive, fails with CodeConflict.
func (s *Service) Mount(ctx context.Context, req gateway.MountRequest) error {
	if req.DriveName == "" {
		return errors.New(errors.CodeInvalidInput, "drive_name is required")
	}

	s.mu.RLock()
	_, mounted := s.mounted[req.DriveName]
	s.mu.RUnlock()
	if mounted || s.isLocal(ctx, req.DriveName) {
		return errors.WithContext(errors.New(errors.CodeConflict, MessageAlreadyMounted), "drive", req.DriveName)
	}

	ok, err := s.primary.BucketExists(ctx, req.DriveName)
	recordStoreOp("bucket_exists", err)
	if err != nil {
		return errors.WithContext(err, "drive", req.DriveName)
	}
	if !ok {
		return store.BucketNotFound(req.DriveName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, raced := s.mounted[req.DriveName]; raced {
		return errors.WithContext(errors.New(errors.CodeConflict, MessageAlreadyMounted), "drive", req.DriveName)
	}
	s.mounted[req.DriveName] = s.primary
	s.logger.Info("drive mounted", zap.String("drive", req.DriveName), zap.String("provider", s.primary.Kind()))
	return nil
}

// Unmount disconnects a drive.
func (s *Service) Unmount(_ context.Context, req gateway.UnmountRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mounted[req.DriveName]; !ok {
		return errors.WithContext(errors.New(errors.CodeNotFound, "drive is not mounted"), "drive", req.DriveName)
	}
	delete(s.mounted, req.DriveName)
	s.logger.Info("drive unmounted", zap.String("drive", req.DriveName))
	return nil
}

// CreateDrive creates a bucket on the primary provider.
func (s *Service) CreateDrive(ctx context.Context, req gateway.CreateDriveRequest) (contents.DriveInfo, error) {
	if req.NewDriveName == "" {
		return contents.DriveInfo{}, errors.New(errors.CodeInvalidInput, "new_drive_name is required")
	}
	b, err := s.primary.CreateBucket(ctx, req.NewDriveName, req.Location)
	recordStoreOp("create_bucket", err)
	if err != nil {
		return contents.DriveInfo{}, errors.WithContext(err, "drive", req.NewDriveName)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.describe(b, s.primary), nil
}

// Configure applies one administrative change.
func (s *Service) Configure(ctx context.Context, req gateway.ConfigRequest) error {
	switch {
	case req.NewLimit != nil:
		if *req.NewLimit < 1 {
			return errors.Newf(errors.CodeInvalidInput, "listing limit must be positive, got %d", *req.NewLimit)
		}
		s.limit.Store(int64(*req.NewLimit))
		s.logger.Info("listing limit changed", zap.Int("limit", *req.NewLimit))
		return nil

	case req.ExcludeDriveName != "":
		s.mu.Lock()
		s.excluded[req.ExcludeDriveName] = struct{}{}
		s.mu.Unlock()
		return nil

	case req.IncludeDriveName != "":
		s.mu.Lock()
		delete(s.excluded, req.IncludeDriveName)
		s.mu.Unlock()
		return nil

	case req.PublicDriveName != "":
		return s.addExternal(ctx, req.PublicDriveName, "")

	case req.ExternalDriveName != "":
		return s.addExternal(ctx, req.ExternalDriveName, req.Location)
	}
	return errors.New(errors.CodeInvalidInput, "no configuration change requested")
}

func (s *Service) addExternal(ctx context.Context, ref, region string) error {
	name, err := registry.DriveNameFromURL(ref)
	if err != nil {
		return err
	}
	ok, err := s.primary.BucketExists(ctx, name)
	recordStoreOp("bucket_exists", err)
	if err != nil {
		return errors.WithContext(err, "drive", name)
	}
	if !ok {
		return store.BucketNotFound(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.external[name] = contents.DriveInfo{Name: name, Region: region, Provider: s.primary.Kind()}
	delete(s.excluded, name)
	return nil
}

// storeFor returns the store serving a mounted drive.
func (s *Service) storeFor(ctx context.Context, drive string) (store.Store, error) {
	s.mu.RLock()
	st, ok := s.mounted[drive]
	s.mu.RUnlock()
	if ok {
		return st, nil
	}
	if s.isLocal(ctx, drive) {
		return s.local, nil
	}
	return nil, errors.WithContext(errors.New(errors.CodeInvalidInput, "drive is not mounted"), "drive", drive)
}

func (s *Service) isLocal(ctx context.Context, drive string) bool {
	if s.local == nil {
		return false
	}
	ok, err := s.local.BucketExists(ctx, drive)
	return err == nil && ok
}
