// Package filetypes classifies file extensions into a semantic type, a MIME
// type and a serialization format.
package filetypes

import (
	"strings"

	"github.com/jmgilman/go/drives/contents"
)

// NotebookExt is the extension of structured notebook documents. Notebooks are
// always transmitted as text regardless of their registered format.
const NotebookExt = "ipynb"

// DirectoryExt is the registry key of the directory pseudo-type.
const DirectoryExt = ""

// HostFileType is one file type declared by the host environment.
type HostFileType struct {
	// Name is the semantic type, e.g. "notebook" or "image".
	Name string `json:"name" yaml:"name"`

	// Extensions lists the extensions of this type, with or without the leading
	// dot. An empty list, or a single empty extension, declares the directory
	// pseudo-type.
	Extensions []string `json:"extensions" yaml:"extensions"`

	// MimeTypes lists MIME types; the first is canonical.
	MimeTypes []string `json:"mime_types" yaml:"mime_types"`

	// FileFormat is the serialization format, "text", "base64" or "json".
	FileFormat string `json:"file_format" yaml:"file_format"`
}

// Classification is the result of a lookup.
type Classification struct {
	Type     contents.Type
	MimeType string
	Format   contents.Format
}

// Default is returned for unregistered extensions.
var Default = Classification{
	Type:     contents.TypeText,
	MimeType: "text/plain",
	Format:   contents.FormatText,
}

// Registry is an immutable extension lookup table. The zero value classifies
// everything as Default.
type Registry struct {
	byExt map[string]Classification
}

// New builds a registry from the host's declared types. Later declarations of
// an extension override earlier ones.
func New(hostTypes []HostFileType) *Registry {
	r := &Registry{byExt: make(map[string]Classification)}
	for _, ht := range hostTypes {
		c := Classification{
			Type:   contents.Type(ht.Name),
			Format: contents.Format(ht.FileFormat),
		}
		if len(ht.MimeTypes) > 0 {
			c.MimeType = ht.MimeTypes[0]
		}

		exts := ht.Extensions
		if len(exts) == 0 {
			exts = []string{DirectoryExt}
		}
		for _, ext := range exts {
			key := normalizeExt(ext)
			if key == DirectoryExt {
				c.Type = contents.TypeDirectory
			}
			r.byExt[key] = c
		}
	}
	return r
}

// Classify looks up ext, with or without a leading dot and in any case.
func (r *Registry) Classify(ext string) Classification {
	key := normalizeExt(ext)

	c := Default
	if r != nil {
		if found, ok := r.byExt[key]; ok {
			c = found
		}
	}
	if key == NotebookExt {
		c.Format = contents.FormatText
	}
	return c
}

// ClassifyName classifies a file by the extension of its last path segment.
// Names without an extension are files of the default type; use Directory for
// directory entries.
func (r *Registry) ClassifyName(name string) Classification {
	base := name
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndex(base, ".")
	if i <= 0 {
		return Default
	}
	return r.Classify(base[i+1:])
}

// Directory returns the classification of the directory pseudo-type.
func (r *Registry) Directory() Classification {
	if r != nil {
		if c, ok := r.byExt[DirectoryExt]; ok {
			return c
		}
	}
	return Classification{Type: contents.TypeDirectory, Format: contents.FormatJSON}
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byExt)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
