package gateway

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jmgilman/go/drives/drivepath"
	"github.com/jmgilman/go/drives/errors"
)

// Delete removes rel. Every object under rel/ is deleted first, in parallel;
// once all of them have settled the root object (or the directory marker, when
// there is no object) is deleted. A missing root is tolerated when children
// were found, since stores without markers have nothing left to delete.
//
// When the root is deleted but some children are not, the error has
// CodePartialFailure and reports how many failed.
func (g *Gateway) Delete(ctx context.Context, drive, rel string) error {
	keys, err := g.childKeys(ctx, drive, rel)
	if err != nil {
		return err
	}

	failed := g.fanOut(ctx, "delete", drive, keys, func(ctx context.Context, key string) error {
		_, err := g.call(ctx, ObjectEndpoint(drive, key), http.MethodDelete, nil)
		return err
	})

	_, err = g.call(ctx, ObjectEndpoint(drive, rel), http.MethodDelete, nil)
	return g.settle(err, keys, failed, drive, rel, "delete")
}

// Rename moves rel to newRel by moving every object under rel/ to the same
// key under newRel/ and then moving the root object or marker. The operation
// is not atomic.
func (g *Gateway) Rename(ctx context.Context, drive, rel, newRel string) error {
	keys, err := g.childKeys(ctx, drive, rel)
	if err != nil {
		return err
	}

	oldPrefix, newPrefix := drivepath.DirPrefix(rel), drivepath.DirPrefix(newRel)
	failed := g.fanOut(ctx, "rename", drive, keys, func(ctx context.Context, key string) error {
		target, _ := drivepath.Rebase(key, oldPrefix, newPrefix)
		_, err := g.call(ctx, ObjectEndpoint(drive, key), http.MethodPatch, MoveRequest{NewPath: target})
		return err
	})

	_, err = g.call(ctx, ObjectEndpoint(drive, rel), http.MethodPatch, MoveRequest{NewPath: newRel})
	return g.settle(err, keys, failed, drive, rel, "rename")
}

// Copy replicates rel in drive to newRel in toDrive, which may be a different
// drive, using the same enumerate-then-root strategy as Rename. The source is
// left untouched.
func (g *Gateway) Copy(ctx context.Context, drive, rel, toDrive, newRel string) error {
	keys, err := g.childKeys(ctx, drive, rel)
	if err != nil {
		return err
	}

	oldPrefix, newPrefix := drivepath.DirPrefix(rel), drivepath.DirPrefix(newRel)
	failed := g.fanOut(ctx, "copy", drive, keys, func(ctx context.Context, key string) error {
		target, _ := drivepath.Rebase(key, oldPrefix, newPrefix)
		_, err := g.call(ctx, ObjectEndpoint(drive, key), http.MethodPut, CopyRequest{ToDrive: toDrive, ToPath: target})
		return err
	})

	_, err = g.call(ctx, ObjectEndpoint(drive, rel), http.MethodPut, CopyRequest{ToDrive: toDrive, ToPath: newRel})
	return g.settle(err, keys, failed, drive, rel, "copy")
}

// childKeys lists the keys strictly below rel, excluding rel's own marker.
// A missing directory has no children.
func (g *Gateway) childKeys(ctx context.Context, drive, rel string) ([]string, error) {
	rows, err := g.List(ctx, drive, rel)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	prefix := drivepath.DirPrefix(rel)
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Path == prefix || !strings.HasPrefix(row.Path, prefix) {
			continue
		}
		keys = append(keys, row.Path)
	}
	return keys, nil
}

// fanOut runs fn for every key with bounded concurrency and waits for all of
// them. Failures are logged and counted; they never stop the other keys.
func (g *Gateway) fanOut(ctx context.Context, op, drive string, keys []string, fn func(context.Context, string) error) int {
	if len(keys) == 0 {
		return 0
	}

	var failed atomic.Int32
	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for _, key := range keys {
		eg.Go(func() error {
			if err := fn(ctx, key); err != nil {
				failed.Add(1)
				g.logger.Warn("object operation failed",
					zap.String("op", op),
					zap.String("drive", drive),
					zap.String("key", key),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = eg.Wait()

	return int(failed.Load())
}

// settle decides the outcome of a directory-wide operation from the root
// object's result and the number of failed children.
func (g *Gateway) settle(rootErr error, keys []string, failed int, drive, rel, op string) error {
	if rootErr != nil && !(len(keys) > 0 && errors.HasCode(rootErr, errors.CodeNotFound)) {
		return errors.WithContextMap(rootErr, map[string]interface{}{
			"drive": drive,
			"path":  rel,
		})
	}
	if failed > 0 {
		return errors.WithContextMap(
			errors.Newf(errors.CodePartialFailure, "%s of %s: %d of %d objects failed", op, drivepath.Join(drive, rel), failed, len(keys)),
			map[string]interface{}{
				"drive":  drive,
				"path":   rel,
				"failed": failed,
				"total":  len(keys),
			},
		)
	}
	return nil
}
