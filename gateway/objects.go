package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/drivepath"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/filetypes"
)

// SaveRequest is the body of an upload.
type SaveRequest struct {
	Content string          `json:"content"`
	Format  contents.Format `json:"format"`
	Type    contents.Type   `json:"type"`
}

// CreateRequest is the body of a create.
type CreateRequest struct {
	IsDir bool `json:"is_dir"`
}

// PresignRequest is the body of a presigned link request.
type PresignRequest struct {
	PresignedLink bool `json:"presigned_link"`
}

// MoveRequest is the body of a single-object move.
type MoveRequest struct {
	NewPath string `json:"new_path"`
}

// CopyRequest is the body of a single-object copy.
type CopyRequest struct {
	ToDrive string `json:"to_drive"`
	ToPath  string `json:"to_path"`
}

// LinkResponse carries a presigned link.
type LinkResponse struct {
	URL string `json:"url"`
}

// List returns every object under the directory rel, recursively, including
// the directory's own marker when there is one.
func (g *Gateway) List(ctx context.Context, drive, rel string) ([]Row, error) {
	prefix := drivepath.DirPrefix(strings.TrimSuffix(rel, drivepath.Separator))
	raw, err := g.call(ctx, listEndpoint(drive, prefix), http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	rows, err := decode[[]Row](raw)
	if err != nil {
		return nil, errors.WithContext(err, "drive", drive)
	}
	return rows, nil
}

// listEndpoint keeps the trailing separator that tells the server to list.
func listEndpoint(drive, prefix string) string {
	if prefix == "" {
		return EndpointDrives + "/" + drive + "/"
	}
	return EndpointDrives + "/" + drive + "/" + prefix
}

// Get reads rel. A single-object response becomes a file node; a listing
// becomes a directory node synthesized with ToDirectoryModel.
func (g *Gateway) Get(ctx context.Context, drive, rel string, reg *filetypes.Registry, withContent bool) (*contents.Model, error) {
	endpoint := ObjectEndpoint(drive, rel)
	if rel == "" {
		endpoint = listEndpoint(drive, "")
	}
	raw, err := g.call(ctx, endpoint, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	data, err := decode[json.RawMessage](raw)
	if err != nil {
		return nil, err
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		var rows []Row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, errors.Wrap(err, errors.CodeTransport, "failed to decode listing")
		}
		return ToDirectoryModel(drive, rel, rows, reg), nil
	}

	var row Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, errors.Wrap(err, errors.CodeTransport, "failed to decode object")
	}
	return ToFileModel(drive, rel, row, reg, withContent), nil
}

// Put uploads content to rel, overwriting any existing object. The returned
// node is unfetched.
func (g *Gateway) Put(ctx context.Context, drive, rel string, req SaveRequest, reg *filetypes.Registry) (*contents.Model, error) {
	raw, err := g.call(ctx, ObjectEndpoint(drive, rel), http.MethodPut, req)
	if err != nil {
		return nil, err
	}
	row, err := decode[Row](raw)
	if err != nil {
		return nil, err
	}
	return ToFileModel(drive, rel, row, reg, false), nil
}

// Create writes an empty object, or a directory marker when isDir is set.
func (g *Gateway) Create(ctx context.Context, drive, rel string, isDir bool, reg *filetypes.Registry) (*contents.Model, error) {
	raw, err := g.call(ctx, ObjectEndpoint(drive, rel), http.MethodPost, CreateRequest{IsDir: isDir})
	if err != nil {
		return nil, err
	}
	row, err := decode[Row](raw)
	if err != nil {
		return nil, err
	}
	if isDir {
		return directoryNode(drivepath.Base(rel), drivepath.Join(drive, rel), row.LastModified, nil, reg), nil
	}
	return ToFileModel(drive, rel, row, reg, false), nil
}

// HeadCheck reports whether an object or directory marker exists at rel.
// NotFound is a negative answer; any other failure is returned.
func (g *Gateway) HeadCheck(ctx context.Context, drive, rel string) (bool, error) {
	_, err := g.call(ctx, ObjectEndpoint(drive, rel), http.MethodHead, nil)
	if err == nil {
		return true, nil
	}
	if errors.HasCode(err, errors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

// IsDirectory reports whether rel is a directory: a marker rel/ or a
// non-empty prefix. A plain object at rel is not a directory.
func (g *Gateway) IsDirectory(ctx context.Context, drive, rel string) (bool, error) {
	if rel == "" {
		return true, nil
	}
	return g.HeadCheck(ctx, drive, drivepath.DirPrefix(rel))
}

// PresignedLink returns a time-limited URL for downloading rel directly.
func (g *Gateway) PresignedLink(ctx context.Context, drive, rel string) (string, error) {
	raw, err := g.call(ctx, ObjectEndpoint(drive, rel), http.MethodPost, PresignRequest{PresignedLink: true})
	if err != nil {
		return "", err
	}
	link, err := decode[LinkResponse](raw)
	if err != nil {
		return "", err
	}
	if link.URL == "" {
		return "", errors.WithContext(
			errors.New(errors.CodeBackend, "backend returned an empty presigned link"),
			"path", drivepath.Join(drive, rel),
		)
	}
	return link.URL, nil
}
