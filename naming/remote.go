package naming

import (
	"context"

	"github.com/jmgilman/go/drives/drivepath"
	"github.com/jmgilman/go/drives/errors"
)

// MaxChecks bounds the existence checks a remote allocation may issue after
// the sibling listing, in case the listing was truncated.
const MaxChecks = 100

// Checker answers existence questions about one drive.
type Checker interface {
	// Exists reports whether an object or directory marker exists at rel.
	// A missing object is (false, nil); transport failures are errors.
	Exists(ctx context.Context, rel string) (bool, error)

	// Siblings returns the names of the entries directly inside dir.
	Siblings(ctx context.Context, dir string) ([]string, error)
}

// RemoteCopy allocates a copy name for originalPath inside dir without
// enumerating dir up front. The plain candidate is checked first; only on a
// confirmed collision are the siblings listed to pick a suffix, and that pick
// is checked again before it is returned.
func RemoteCopy(ctx context.Context, p Checker, dir, originalPath string) (string, error) {
	return remoteAllocate(ctx, p, dir, copyCandidate(originalPath))
}

// RemoteUntitled returns the lowest untitled name of kind (see Untitled) that
// a check confirms is free inside dir. The sibling listing may be truncated,
// so no candidate is trusted without a check.
func RemoteUntitled(ctx context.Context, p Checker, dir string, kind Kind, ext string) (string, error) {
	return remoteAllocate(ctx, p, dir, untitledCandidate(kind, ext))
}

// RemoteIncrement returns name when nothing exists at dir/name, otherwise the
// lowest numbered variant (see Increment) that a check confirms is free.
func RemoteIncrement(ctx context.Context, p Checker, dir, name string, isDir bool) (string, error) {
	return remoteAllocate(ctx, p, dir, incrementCandidate(name, isDir))
}

func remoteAllocate(ctx context.Context, p Checker, dir string, candidate func(n int) string) (string, error) {
	first := candidate(0)
	exists, err := p.Exists(ctx, drivepath.JoinKey(dir, first))
	if err != nil {
		return "", errors.Wrap(err, errors.GetCode(err), "failed to check name availability")
	}
	if !exists {
		return first, nil
	}

	siblings, err := p.Siblings(ctx, dir)
	if err != nil {
		return "", errors.Wrap(err, errors.GetCode(err), "failed to list siblings")
	}
	taken := set(siblings)
	taken[first] = struct{}{}

	for n, checks := 1, 0; checks < MaxChecks; n++ {
		name := candidate(n)
		if _, ok := taken[name]; ok {
			continue
		}
		checks++
		exists, err := p.Exists(ctx, drivepath.JoinKey(dir, name))
		if err != nil {
			return "", errors.Wrap(err, errors.GetCode(err), "failed to check name availability")
		}
		if !exists {
			return name, nil
		}
	}
	return "", errors.WithContext(
		errors.Newf(errors.CodeConflict, "no free name after %d checks", MaxChecks),
		"candidate", first,
	)
}
