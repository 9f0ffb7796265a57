// Package drivepath maps composite "drive/relative/path" addresses to a drive
// name and a drive-relative path, and builds object keys from relative paths.
//
// The empty composite path addresses the registry root, not a drive.
package drivepath

import (
	"path"
	"strings"
)

// Separator delimits the drive name from the relative path and the segments of
// an object key.
const Separator = "/"

// Split separates a composite path at its first separator. A path without a
// separator is a drive root: the whole string is the drive name and the
// relative path is empty.
func Split(composite string) (drive, rel string) {
	i := strings.Index(composite, Separator)
	if i < 0 {
		return composite, ""
	}
	return composite[:i], composite[i+1:]
}

// Join is the inverse of Split. An empty relative path yields the drive name.
func Join(drive, rel string) string {
	if rel == "" {
		return drive
	}
	return drive + Separator + rel
}

// IsRoot reports whether composite addresses the registry root.
func IsRoot(composite string) bool {
	return composite == ""
}

// IsDriveRoot reports whether composite addresses the root of a drive.
func IsDriveRoot(composite string) bool {
	return composite != "" && !strings.Contains(composite, Separator)
}

// Base returns the last segment of p, ignoring a trailing separator.
func Base(p string) string {
	p = strings.TrimSuffix(p, Separator)
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Dir returns everything before the last segment of p, or "" for a single segment.
func Dir(p string) string {
	p = strings.TrimSuffix(p, Separator)
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[:i]
	}
	return ""
}

// Ext returns the extension of the last segment of p without the leading dot.
// Dotfiles such as ".env" have no extension.
func Ext(p string) string {
	base := Base(p)
	i := strings.LastIndex(base, ".")
	if i <= 0 {
		return ""
	}
	return base[i+1:]
}

// Stem returns the last segment of p without its extension.
func Stem(p string) string {
	base := Base(p)
	if ext := Ext(base); ext != "" {
		return strings.TrimSuffix(base, "."+ext)
	}
	return base
}

// WithExt appends ext to name, adding the dot. An empty ext returns name.
func WithExt(name, ext string) string {
	if ext == "" {
		return name
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}

// Normalize cleans a relative path into an object key: backslashes become
// separators, "." and ".." are resolved and leading and trailing separators are
// trimmed. The root normalizes to "".
func Normalize(rel string) string {
	if rel == "" {
		return ""
	}
	rel = strings.ReplaceAll(rel, "\\", Separator)
	rel = strings.Trim(path.Clean("/"+rel), Separator)
	return rel
}

// DirPrefix returns the listing prefix for a directory key: the key with a
// trailing separator, or "" for the root.
func DirPrefix(key string) string {
	if key == "" || strings.HasSuffix(key, Separator) {
		return key
	}
	return key + Separator
}

// JoinKey joins a parent key and a child name into an object key.
func JoinKey(parent, name string) string {
	parent = strings.TrimSuffix(parent, Separator)
	name = strings.TrimPrefix(name, Separator)
	switch {
	case parent == "":
		return name
	case name == "":
		return parent
	}
	return parent + Separator + name
}

// Rebase replaces the oldPrefix of key with newPrefix. It reports false when
// key is not under oldPrefix.
func Rebase(key, oldPrefix, newPrefix string) (string, bool) {
	if !strings.HasPrefix(key, oldPrefix) {
		return "", false
	}
	return newPrefix + strings.TrimPrefix(key, oldPrefix), true
}
