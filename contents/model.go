// Package contents defines the content model shared by every drive: file and
// directory nodes, change events and checkpoint markers.
package contents

import (
	"time"
)

// Type is the semantic type of a node.
type Type string

const (
	TypeFile      Type = "file"
	TypeDirectory Type = "directory"
	TypeNotebook  Type = "notebook"
	TypeText      Type = "text"
)

// Format describes how a file payload is serialized. The zero value means the
// payload has not been fetched.
type Format string

const (
	FormatNone   Format = ""
	FormatText   Format = "text"
	FormatBase64 Format = "base64"
	FormatJSON   Format = "json"
)

// Model is a file or directory node.
//
// Content holds nil for an unfetched file, a string for a fetched file and a
// []Model for a directory. Size is nil for directories and unfetched files
// whose size is unknown.
type Model struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified,omitzero"`
	Created      time.Time `json:"created,omitzero"`
	Content      any       `json:"content"`
	Format       Format    `json:"format,omitempty"`
	MimeType     string    `json:"mimetype"`
	Size         *int64    `json:"size,omitempty"`
	Writable     bool      `json:"writable"`
	Type         Type      `json:"type"`
}

// IsDir reports whether the node is a directory.
func (m *Model) IsDir() bool {
	return m.Type == TypeDirectory
}

// Children returns the entries of a directory node, or nil for files.
func (m *Model) Children() []Model {
	children, _ := m.Content.([]Model)
	return children
}

// Text returns the payload of a fetched file, or "" when there is none.
func (m *Model) Text() string {
	s, _ := m.Content.(string)
	return s
}

// NewDirectory returns a writable directory node. A nil children slice is
// replaced by an empty one so the node always carries a list.
func NewDirectory(name, path string, lastModified time.Time, children []Model) *Model {
	if children == nil {
		children = []Model{}
	}
	return &Model{
		Name:         name,
		Path:         path,
		LastModified: lastModified,
		Content:      children,
		Format:       FormatJSON,
		Writable:     true,
		Type:         TypeDirectory,
	}
}

// NewFile returns a writable, unfetched file node.
func NewFile(name, path string, lastModified time.Time, size int64, typ Type, mimeType string, format Format) *Model {
	return &Model{
		Name:         name,
		Path:         path,
		LastModified: lastModified,
		MimeType:     mimeType,
		Format:       format,
		Size:         &size,
		Writable:     true,
		Type:         typ,
	}
}

// SizeOf returns a pointer to n, for filling Model.Size.
func SizeOf(n int64) *int64 {
	return &n
}
