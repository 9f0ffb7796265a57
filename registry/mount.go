package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/gateway"
)

// Mount establishes the backend connection of a drive once per session.
//
// Concurrent callers for the same drive are serialized; only the first issues
// a request. A CodeConflict answer means the backend already holds the
// connection and counts as mounted. Other failures leave the drive unmounted,
// are logged and returned; callers treat them as non-fatal.
func (r *Registry) Mount(ctx context.Context, name string) error {
	e, err := r.entry(name)
	if err != nil {
		return err
	}
	if e.mounted.Load() {
		return nil
	}

	e.mountMu.Lock()
	defer e.mountMu.Unlock()
	if e.mounted.Load() {
		return nil
	}

	err = e.gw.MountDrive(ctx, gateway.MountRequest{
		DriveName: e.info.Name,
		Provider:  e.info.Provider,
		Region:    e.info.Region,
	})
	if err != nil && !errors.HasCode(err, errors.CodeConflict) {
		r.logger.Warn("failed to mount drive",
			zap.String("drive", name),
			zap.Error(err),
		)
		return errors.WithContext(err, "drive", name)
	}
	if err != nil {
		r.logger.Debug("drive already mounted", zap.String("drive", name))
	}

	e.mounted.Store(true)
	return nil
}

// Unmount releases the backend connection of a drive. The drive stays
// registered and is mounted again on next access.
func (r *Registry) Unmount(ctx context.Context, name string) error {
	e, err := r.entry(name)
	if err != nil {
		return err
	}

	e.mountMu.Lock()
	defer e.mountMu.Unlock()
	if !e.mounted.Load() {
		return nil
	}
	if err := e.gw.UnmountDrive(ctx, name); err != nil && !errors.HasCode(err, errors.CodeNotFound) {
		return errors.WithContext(err, "drive", name)
	}
	e.mounted.Store(false)
	return nil
}

// Mounted reports whether a drive is mounted. A read racing a mount may see
// either state.
func (r *Registry) Mounted(name string) bool {
	e, err := r.entry(name)
	if err != nil {
		return false
	}
	return e.mounted.Load()
}
