// Package naming allocates collision-free names for untitled creation, copies
// and renames.
//
// All allocators pick the lowest unused variant against the listing they are
// given. They do not guarantee uniqueness beyond that listing; callers pass a
// fresh listing or use the remote variants, which confirm candidates with
// existence checks.
package naming

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/jmgilman/go/drives/drivepath"
)

// Kind is the kind of entry being named.
type Kind string

const (
	KindFile      Kind = "file"
	KindNotebook  Kind = "notebook"
	KindDirectory Kind = "directory"
)

const (
	untitledFile      = "untitled"
	untitledNotebook  = "Untitled"
	untitledDirectory = "Untitled Folder"
	copySuffix        = "-Copy"

	// DefaultFileExt is used for untitled files created without an extension.
	DefaultFileExt = "txt"

	// NotebookExt is the extension of untitled notebooks.
	NotebookExt = "ipynb"
)

var copyPattern = regexp.MustCompile(`^(.*)-Copy(\d*)$`)

// Untitled returns the lowest unused untitled name of the given kind.
//
// Files produce untitled.txt, untitled1.txt, ...; notebooks Untitled.ipynb,
// Untitled1.ipynb, ...; directories Untitled Folder, Untitled Folder 1, ...
// An empty ext selects the kind's default extension. Directories ignore ext.
func Untitled(existing []string, kind Kind, ext string) string {
	taken := set(existing)
	return lowestFree(taken, untitledCandidate(kind, ext))
}

func untitledCandidate(kind Kind, ext string) func(n int) string {
	switch kind {
	case KindDirectory:
		return func(n int) string {
			if n == 0 {
				return untitledDirectory
			}
			return untitledDirectory + " " + strconv.Itoa(n)
		}
	case KindNotebook:
		if ext == "" {
			ext = NotebookExt
		}
		return numbered(untitledNotebook, ext)
	default:
		if ext == "" {
			ext = DefaultFileExt
		}
		return numbered(untitledFile, ext)
	}
}

// Copy returns the name for a copy of originalPath among existing siblings.
//
// The extension is kept and "-Copy" is appended to the stem. When the stem
// already ends in -Copy or -Copy<N>, numbering continues from N+1 (from 1 for
// a bare -Copy) instead of stacking suffixes. The first free name wins, so a
// copy never overwrites an existing sibling.
func Copy(existing []string, originalPath string) string {
	return lowestFree(set(existing), copyCandidate(originalPath))
}

func copyCandidate(originalPath string) func(n int) string {
	stem := drivepath.Stem(originalPath)
	ext := drivepath.Ext(originalPath)

	root, start := stem, 0
	if m := copyPattern.FindStringSubmatch(stem); m != nil {
		root, start = m[1], 1
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err == nil {
				start = n + 1
			}
		}
	}

	return func(i int) string {
		n := start + i
		name := root + copySuffix
		if n > 0 {
			name += strconv.Itoa(n)
		}
		return drivepath.WithExt(name, ext)
	}
}

// Increment returns name if it is free, otherwise the lowest unused numbered
// variant: stem1.ext, stem2.ext, ... for files and "name 1", "name 2", ... for
// directories.
func Increment(existing []string, name string, isDir bool) string {
	return lowestFree(set(existing), incrementCandidate(name, isDir))
}

func incrementCandidate(name string, isDir bool) func(n int) string {
	if isDir {
		return func(n int) string {
			if n == 0 {
				return name
			}
			return fmt.Sprintf("%s %d", name, n)
		}
	}
	return numbered(drivepath.Stem(name), drivepath.Ext(name))
}

// numbered yields base.ext, base1.ext, base2.ext, ...
func numbered(base, ext string) func(n int) string {
	return func(n int) string {
		if n == 0 {
			return drivepath.WithExt(base, ext)
		}
		return drivepath.WithExt(base+strconv.Itoa(n), ext)
	}
}

func lowestFree(taken map[string]struct{}, candidate func(n int) string) string {
	for n := 0; ; n++ {
		name := candidate(n)
		if _, ok := taken[name]; !ok {
			return name
		}
	}
}

func set(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[drivepath.Base(name)] = struct{}{}
	}
	return out
}
