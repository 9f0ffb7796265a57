package contents

import (
	"github.com/jmgilman/go/drives/errors"
)

// Validate checks the structural invariants of a node and, for directories,
// of every child.
//
// A node is a directory exactly when its type says so; directories carry a
// child list and no size, files never carry a child list.
func Validate(m *Model) error {
	if m == nil {
		return errors.New(errors.CodeInvalidInput, "content model is nil")
	}
	if m.Type == "" {
		return errors.WithContext(
			errors.New(errors.CodeInvalidInput, "content model has no type"),
			"path", m.Path,
		)
	}

	children, isList := m.Content.([]Model)
	if m.IsDir() {
		if !isList {
			return errors.WithContext(
				errors.New(errors.CodeInvalidInput, "directory content must be a list"),
				"path", m.Path,
			)
		}
		if m.Size != nil {
			return errors.WithContext(
				errors.New(errors.CodeInvalidInput, "directory must not have a size"),
				"path", m.Path,
			)
		}
		for i := range children {
			if err := Validate(&children[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if isList {
		return errors.WithContext(
			errors.Newf(errors.CodeInvalidInput, "%s content must not be a list", m.Type),
			"path", m.Path,
		)
	}
	switch m.Format {
	case FormatNone, FormatText, FormatBase64, FormatJSON:
	default:
		return errors.WithContext(
			errors.Newf(errors.CodeInvalidInput, "unknown format %q", m.Format),
			"path", m.Path,
		)
	}
	return nil
}
