package drive

import (
	"context"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/errors"
)

// Object stores keep no versions. Checkpoints are accepted and listed as
// empty, and can never be restored or deleted.

var errReadOnly = errors.New(errors.CodeReadOnly, "repository is read only")

// CreateCheckpoint returns the empty checkpoint marker.
func (d *Drive) CreateCheckpoint(_ context.Context, _ string) (contents.Checkpoint, error) {
	return contents.Checkpoint{}, nil
}

// ListCheckpoints returns no checkpoints.
func (d *Drive) ListCheckpoints(_ context.Context, _ string) ([]contents.Checkpoint, error) {
	return []contents.Checkpoint{}, nil
}

// RestoreCheckpoint always fails with CodeReadOnly.
func (d *Drive) RestoreCheckpoint(_ context.Context, path, _ string) error {
	return errors.WithContext(errReadOnly, "path", path)
}

// DeleteCheckpoint always fails with CodeReadOnly.
func (d *Drive) DeleteCheckpoint(_ context.Context, path, _ string) error {
	return errors.WithContext(errReadOnly, "path", path)
}
