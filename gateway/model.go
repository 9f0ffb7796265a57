package gateway

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/drivepath"
	"github.com/jmgilman/go/drives/filetypes"
)

// Row is one object as reported by the drives REST surface. Path is the full
// object key relative to the drive. Content is only set for single-object
// reads.
type Row struct {
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified,omitzero"`
	Size         int64     `json:"size"`
	Content      []byte    `json:"content,omitempty"`
}

// IsMarker reports whether the row is a directory marker object.
func (r Row) IsMarker() bool {
	return strings.HasSuffix(r.Path, "/")
}

type child struct {
	name         string
	dir          bool
	size         int64
	lastModified time.Time
}

// ToDirectoryModel folds a flat listing of the keys under prefix into a
// directory node whose children are the immediate entries of prefix.
//
// Rows equal to the prefix itself are the directory's own marker and are
// skipped. A row nested below a child collapses into that child, which is then
// a directory. A leaf with no extension and no bytes is taken to be a marker
// written without its trailing separator and is also a directory; dotfiles
// such as .gitkeep are exempt. Children
// are sorted by name, so the same rows always produce the same tree.
func ToDirectoryModel(drive, prefix string, rows []Row, reg *filetypes.Registry) *contents.Model {
	key := strings.TrimSuffix(prefix, drivepath.Separator)
	dirPrefix := drivepath.DirPrefix(key)

	children := make(map[string]*child)
	var newest time.Time
	for _, row := range rows {
		if row.Path == key || row.Path == dirPrefix {
			newest = latest(newest, row.LastModified)
			continue
		}
		rest, ok := strings.CutPrefix(row.Path, dirPrefix)
		if !ok || rest == "" {
			continue
		}
		newest = latest(newest, row.LastModified)

		name, nested, _ := strings.Cut(rest, drivepath.Separator)
		isDir := nested != "" || strings.HasSuffix(rest, drivepath.Separator) ||
			(row.Size == 0 && looksLikeMarker(name))

		c, seen := children[name]
		if !seen {
			c = &child{name: name}
			children[name] = c
		}
		c.lastModified = latest(c.lastModified, row.LastModified)
		if isDir {
			c.dir = true
			c.size = 0
		} else if !c.dir {
			c.size = row.Size
		}
	}

	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]contents.Model, 0, len(names))
	for _, name := range names {
		c := children[name]
		childPath := drivepath.Join(drive, drivepath.JoinKey(key, name))
		if c.dir {
			entries = append(entries, *directoryNode(name, childPath, c.lastModified, nil, reg))
			continue
		}
		class := reg.ClassifyName(name)
		entries = append(entries, contents.Model{
			Name:         name,
			Path:         childPath,
			LastModified: c.lastModified,
			MimeType:     class.MimeType,
			Size:         contents.SizeOf(c.size),
			Writable:     true,
			Type:         class.Type,
		})
	}

	name := drivepath.Base(key)
	if key == "" {
		name = drive
	}
	return directoryNode(name, drivepath.Join(drive, key), newest, entries, reg)
}

// ToFileModel converts a single-object response into a file node. The payload
// is encoded according to the format the registry assigns to the file's
// extension; without withContent the node is left unfetched.
func ToFileModel(drive, rel string, row Row, reg *filetypes.Registry, withContent bool) *contents.Model {
	name := drivepath.Base(rel)
	class := reg.ClassifyName(name)
	m := &contents.Model{
		Name:         name,
		Path:         drivepath.Join(drive, strings.TrimSuffix(rel, drivepath.Separator)),
		LastModified: row.LastModified,
		MimeType:     class.MimeType,
		Size:         contents.SizeOf(row.Size),
		Writable:     true,
		Type:         class.Type,
	}
	if !withContent {
		return m
	}

	m.Format = class.Format
	switch class.Format {
	case contents.FormatBase64:
		m.Content = base64.StdEncoding.EncodeToString(row.Content)
	case contents.FormatJSON:
		if json.Valid(row.Content) {
			m.Content = json.RawMessage(row.Content)
		} else {
			m.Format = contents.FormatText
			m.Content = string(row.Content)
		}
	default:
		m.Format = contents.FormatText
		m.Content = string(row.Content)
	}
	return m
}

// ChildNames returns the names of the immediate entries of prefix in rows.
func ChildNames(prefix string, rows []Row) []string {
	dir := ToDirectoryModel("", prefix, rows, nil)
	children := dir.Children()
	names := make([]string, len(children))
	for i := range children {
		names[i] = children[i].Name
	}
	return names
}

// looksLikeMarker reports whether an empty leaf called name is a directory
// marker missing its trailing separator.
func looksLikeMarker(name string) bool {
	return drivepath.Ext(name) == "" && !strings.HasPrefix(name, ".")
}

func directoryNode(name, path string, lastModified time.Time, children []contents.Model, reg *filetypes.Registry) *contents.Model {
	m := contents.NewDirectory(name, path, lastModified, children)
	m.MimeType = reg.Directory().MimeType
	return m
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
