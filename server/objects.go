package server

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/gateway"
	"github.com/jmgilman/go/drives/store"
)

// Read returns the object at key with its content, or the recursive listing
// of key/ when there is no such object. An empty key, or one ending in "/",
// always lists.
func (s *Service) Read(ctx context.Context, drive, key string) (any, error) {
	st, err := s.storeFor(ctx, drive)
	if err != nil {
		return nil, err
	}
	if key == "" || isMarker(key) {
		return s.list(ctx, st, drive, key)
	}

	data, info, err := st.GetObject(ctx, drive, key)
	recordStoreOp("get_object", err)
	if err == nil {
		return gateway.Row{Path: key, LastModified: info.LastModified, Size: info.Size, Content: data}, nil
	}
	if !errors.HasCode(err, errors.CodeNotFound) {
		return nil, err
	}

	rows, err := s.list(ctx, st, drive, key+"/")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.NotFound(drive, key)
	}
	return rows, nil
}

func (s *Service) list(ctx context.Context, st store.Store, drive, prefix string) ([]gateway.Row, error) {
	objects, err := st.ListObjects(ctx, drive, prefix, s.ListingLimit())
	recordStoreOp("list_objects", err)
	if err != nil {
		return nil, err
	}
	rows := make([]gateway.Row, 0, len(objects))
	for _, obj := range objects {
		rows = append(rows, gateway.Row{Path: obj.Key, LastModified: obj.LastModified, Size: obj.Size})
	}
	return rows, nil
}

// Head succeeds when key is an object, a directory marker or a non-empty
// prefix.
func (s *Service) Head(ctx context.Context, drive, key string) error {
	st, err := s.storeFor(ctx, drive)
	if err != nil {
		return err
	}
	if _, err := s.resolve(ctx, st, drive, key); err == nil || !errors.HasCode(err, errors.CodeNotFound) {
		return err
	}

	objects, err := st.ListObjects(ctx, drive, strings.TrimSuffix(key, "/")+"/", 1)
	recordStoreOp("list_objects", err)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return store.NotFound(drive, key)
	}
	return nil
}

// Create writes an empty object, or the marker key/ when isDir is set.
func (s *Service) Create(ctx context.Context, drive, key string, isDir bool) (gateway.Row, error) {
	if isDir && !isMarker(key) {
		key += "/"
	}
	return s.put(ctx, drive, key, []byte{})
}

// Save uploads content to key, decoding it first when the format is base64.
func (s *Service) Save(ctx context.Context, drive, key string, req gateway.SaveRequest) (gateway.Row, error) {
	data := []byte(req.Content)
	if req.Format == contents.FormatBase64 {
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			return gateway.Row{}, errors.WithContext(
				errors.Wrap(err, errors.CodeInvalidInput, "content is not valid base64"),
				"key", key,
			)
		}
		data = decoded
	}
	return s.put(ctx, drive, key, data)
}

func (s *Service) put(ctx context.Context, drive, key string, data []byte) (gateway.Row, error) {
	if key == "" || key == "/" {
		return gateway.Row{}, errors.New(errors.CodeInvalidInput, "object key is required")
	}
	st, err := s.storeFor(ctx, drive)
	if err != nil {
		return gateway.Row{}, err
	}
	info, err := st.PutObject(ctx, drive, key, data)
	recordStoreOp("put_object", err)
	if err != nil {
		return gateway.Row{}, err
	}
	return gateway.Row{Path: info.Key, LastModified: info.LastModified, Size: info.Size}, nil
}

// Presign returns a download link for key.
func (s *Service) Presign(ctx context.Context, drive, key string) (gateway.LinkResponse, error) {
	st, err := s.storeFor(ctx, drive)
	if err != nil {
		return gateway.LinkResponse{}, err
	}
	if _, err := s.resolve(ctx, st, drive, key); err != nil {
		return gateway.LinkResponse{}, err
	}
	url, err := st.PresignGet(ctx, drive, key, s.presignTTL)
	recordStoreOp("presign", err)
	if err != nil {
		return gateway.LinkResponse{}, err
	}
	return gateway.LinkResponse{URL: url}, nil
}

// CopyObject copies the object or marker at key to toPath in toDrive.
func (s *Service) CopyObject(ctx context.Context, drive, key string, req gateway.CopyRequest) (gateway.Row, error) {
	src, srcKey, dst, dstKey, err := s.transfer(ctx, drive, key, req.ToDrive, req.ToPath)
	if err != nil {
		return gateway.Row{}, err
	}
	err = store.Copy(ctx, src, drive, srcKey, dst, req.ToDrive, dstKey)
	recordStoreOp("copy_object", err)
	if err != nil {
		return gateway.Row{}, err
	}
	return s.row(ctx, dst, req.ToDrive, dstKey)
}

// Move moves the object or marker at key to newPath in the same drive.
func (s *Service) Move(ctx context.Context, drive, key string, req gateway.MoveRequest) (gateway.Row, error) {
	src, srcKey, dst, dstKey, err := s.transfer(ctx, drive, key, drive, req.NewPath)
	if err != nil {
		return gateway.Row{}, err
	}
	err = store.Move(ctx, src, drive, srcKey, dst, drive, dstKey)
	recordStoreOp("move_object", err)
	if err != nil {
		return gateway.Row{}, err
	}
	return s.row(ctx, dst, drive, dstKey)
}

// transfer resolves the source of a copy or move and the matching target key.
func (s *Service) transfer(ctx context.Context, drive, key, toDrive, toPath string) (src store.Store, srcKey string, dst store.Store, dstKey string, err error) {
	if toDrive == "" || toPath == "" {
		return nil, "", nil, "", errors.New(errors.CodeInvalidInput, "target drive and path are required")
	}
	if src, err = s.storeFor(ctx, drive); err != nil {
		return nil, "", nil, "", err
	}
	if dst, err = s.storeFor(ctx, toDrive); err != nil {
		return nil, "", nil, "", err
	}
	if srcKey, err = s.resolve(ctx, src, drive, key); err != nil {
		return nil, "", nil, "", err
	}

	dstKey = strings.TrimSuffix(toPath, "/")
	if isMarker(srcKey) {
		dstKey += "/"
	}
	return src, srcKey, dst, dstKey, nil
}

// Delete removes key. A key without a trailing separator names the object,
// or the marker key/ when no object exists.
func (s *Service) Delete(ctx context.Context, drive, key string) error {
	st, err := s.storeFor(ctx, drive)
	if err != nil {
		return err
	}
	target, err := s.resolve(ctx, st, drive, key)
	if err != nil {
		return err
	}
	err = st.RemoveObject(ctx, drive, target)
	recordStoreOp("remove_object", err)
	return err
}

// resolve returns key when it is an object, else the marker key/ when that
// exists.
func (s *Service) resolve(ctx context.Context, st store.Store, drive, key string) (string, error) {
	if key == "" {
		return "", errors.New(errors.CodeInvalidInput, "object key is required")
	}
	_, err := st.StatObject(ctx, drive, key)
	recordStoreOp("stat_object", err)
	if err == nil || isMarker(key) || !errors.HasCode(err, errors.CodeNotFound) {
		return key, err
	}

	marker := key + "/"
	_, err = st.StatObject(ctx, drive, marker)
	recordStoreOp("stat_object", err)
	if err != nil {
		return "", err
	}
	return marker, nil
}

func (s *Service) row(ctx context.Context, st store.Store, drive, key string) (gateway.Row, error) {
	info, err := st.StatObject(ctx, drive, key)
	recordStoreOp("stat_object", err)
	if err != nil {
		return gateway.Row{}, err
	}
	return gateway.Row{Path: info.Key, LastModified: info.LastModified, Size: info.Size}, nil
}

func isMarker(key string) bool {
	return strings.HasSuffix(key, "/")
}
