package drive

import (
	"context"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/drivepath"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/gateway"
	"github.com/jmgilman/go/drives/naming"
)

// GetOptions tunes Get.
type GetOptions struct {
	// Content fetches file payloads. Directory listings never carry payloads.
	Content bool
}

// UntitledOptions describes an entry created by NewUntitled.
type UntitledOptions struct {
	// Path is the composite path of the parent directory.
	Path string

	// Kind selects the naming scheme; the zero value is a file.
	Kind naming.Kind

	// Ext is the file extension. Empty selects the kind's default.
	Ext string
}

// SaveOptions carries an upload. Content is already serialized per Format.
type SaveOptions struct {
	Content string
	Format  contents.Format
	Type    contents.Type
}

// Get returns the node at path. The empty path yields the registry root.
func (d *Drive) Get(ctx context.Context, path string, opts GetOptions) (*contents.Model, error) {
	if drivepath.IsRoot(path) {
		return d.reg.ListRoot(), nil
	}

	target, err := d.resolve(ctx, path)
	if err != nil {
		return nil, d.failed("get", path, err)
	}
	model, err := target.Gateway.Get(ctx, target.Drive, target.Rel, d.FileTypes(), opts.Content)
	if err != nil {
		return nil, d.failed("get", path, err)
	}
	if err := contents.Validate(model); err != nil {
		return nil, d.failed("get", path, errors.Wrap(err, errors.CodeBackend, "backend returned an invalid model"))
	}
	return model, nil
}

// NewUntitled creates an entry with the lowest free untitled name in
// opts.Path. At the registry root it does nothing; creating a drive is
// NewDrive.
func (d *Drive) NewUntitled(ctx context.Context, opts UntitledOptions) (*contents.Model, error) {
	if drivepath.IsRoot(opts.Path) {
		d.unsupported("new", opts.Path)
		return nil, nil
	}

	target, err := d.resolve(ctx, opts.Path)
	if err != nil {
		return nil, d.failed("new", opts.Path, err)
	}
	kind := opts.Kind
	if kind == "" {
		kind = naming.KindFile
	}
	isDir := kind == naming.KindDirectory
	name, err := naming.RemoteUntitled(ctx, target.Gateway.Checker(target.Drive), target.Rel, kind, opts.Ext)
	if err != nil {
		return nil, d.failed("new", opts.Path, err)
	}
	rel := drivepath.JoinKey(target.Rel, name)

	model, err := target.Gateway.Create(ctx, target.Drive, rel, isDir, d.FileTypes())
	if err != nil {
		model = d.placeholder(target.Drive, rel, isDir)
		d.publish(contents.ChangeNew, nil, model)
		return model, d.failed("new", model.Path, err)
	}
	d.publish(contents.ChangeNew, nil, model)
	return model, nil
}

// Delete removes path and, for a directory, everything below it. A delete
// event is published whatever the outcome so observers can reconcile.
func (d *Drive) Delete(ctx context.Context, path string) error {
	if drivepath.IsRoot(path) || drivepath.IsDriveRoot(path) {
		d.unsupported("delete", path)
		return nil
	}

	target, err := d.resolve(ctx, path)
	if err != nil {
		return d.failed("delete", path, err)
	}
	err = target.Gateway.Delete(ctx, target.Drive, target.Rel)
	d.publish(contents.ChangeDelete, &contents.Model{Name: drivepath.Base(target.Rel), Path: target.Composite()}, nil)
	if err != nil {
		return d.failed("delete", path, err)
	}
	return nil
}

// Rename moves oldPath to newPath within one drive. When something already
// exists at newPath the lowest free numbered variant of its name is used
// instead. The rename event carries the original oldPath.
func (d *Drive) Rename(ctx context.Context, oldPath, newPath string) (*contents.Model, error) {
	if drivepath.IsRoot(oldPath) || drivepath.IsDriveRoot(oldPath) || drivepath.IsRoot(newPath) {
		d.unsupported("rename", oldPath)
		return nil, nil
	}

	src, err := d.resolve(ctx, oldPath)
	if err != nil {
		return nil, d.failed("rename", oldPath, err)
	}
	dst, err := d.reg.Resolve(newPath)
	if err != nil {
		return nil, d.failed("rename", newPath, err)
	}
	if src.Drive != dst.Drive {
		return nil, d.failed("rename", oldPath, errors.WithContext(
			errors.New(errors.CodeUnsupported, "rename across drives is not supported; copy then delete"),
			"to", newPath,
		))
	}
	if dst.Rel == "" {
		return nil, d.failed("rename", newPath, errors.New(errors.CodeInvalidInput, "cannot rename onto a drive root"))
	}

	isDir, err := src.Gateway.IsDirectory(ctx, src.Drive, src.Rel)
	if err != nil {
		return nil, d.failed("rename", oldPath, err)
	}
	parent := drivepath.Dir(dst.Rel)
	name, err := naming.RemoteIncrement(ctx, src.Gateway.Checker(src.Drive), parent, drivepath.Base(dst.Rel), isDir)
	if err != nil {
		return nil, d.failed("rename", newPath, err)
	}
	finalRel := drivepath.JoinKey(parent, name)

	oldValue := &contents.Model{Name: drivepath.Base(src.Rel), Path: oldPath}
	renameErr := src.Gateway.Rename(ctx, src.Drive, src.Rel, finalRel)
	model := d.settled(ctx, src.Gateway, src.Drive, finalRel, isDir)
	d.publish(contents.ChangeRename, oldValue, model)
	if renameErr != nil {
		return model, d.failed("rename", oldPath, renameErr)
	}
	return model, nil
}

// Copy copies path into the directory toDir, possibly on another drive, under
// a fresh "-Copy" name. Copies never overwrite.
func (d *Drive) Copy(ctx context.Context, path, toDir string) (*contents.Model, error) {
	if drivepath.IsRoot(path) || drivepath.IsDriveRoot(path) || drivepath.IsRoot(toDir) {
		d.unsupported("copy", path)
		return nil, nil
	}

	src, err := d.resolve(ctx, path)
	if err != nil {
		return nil, d.failed("copy", path, err)
	}
	dst, err := d.resolve(ctx, toDir)
	if err != nil {
		return nil, d.failed("copy", toDir, err)
	}
	if src.Gateway != dst.Gateway {
		return nil, d.failed("copy", path, errors.WithContext(
			errors.New(errors.CodeUnsupported, "copy between drives served by different backends is not supported"),
			"to", toDir,
		))
	}

	isDir, err := src.Gateway.IsDirectory(ctx, src.Drive, src.Rel)
	if err != nil {
		return nil, d.failed("copy", path, err)
	}
	name, err := naming.RemoteCopy(ctx, dst.Gateway.Checker(dst.Drive), dst.Rel, src.Rel)
	if err != nil {
		return nil, d.failed("copy", path, err)
	}
	newRel := drivepath.JoinKey(dst.Rel, name)

	copyErr := src.Gateway.Copy(ctx, src.Drive, src.Rel, dst.Drive, newRel)
	model := d.settled(ctx, dst.Gateway, dst.Drive, newRel, isDir)
	d.publish(contents.ChangeNew, nil, model)
	if copyErr != nil {
		return model, d.failed("copy", path, copyErr)
	}
	return model, nil
}

// Save uploads opts.Content to path.
func (d *Drive) Save(ctx context.Context, path string, opts SaveOptions) (*contents.Model, error) {
	if drivepath.IsRoot(path) || drivepath.IsDriveRoot(path) {
		d.unsupported("save", path)
		return nil, nil
	}

	target, err := d.resolve(ctx, path)
	if err != nil {
		return nil, d.failed("save", path, err)
	}
	if opts.Format == contents.FormatNone {
		opts.Format = d.FileTypes().ClassifyName(target.Rel).Format
	}
	if opts.Type == "" {
		opts.Type = d.FileTypes().ClassifyName(target.Rel).Type
	}

	model, err := target.Gateway.Put(ctx, target.Drive, target.Rel, gateway.SaveRequest{
		Content: opts.Content,
		Format:  opts.Format,
		Type:    opts.Type,
	}, d.FileTypes())
	if err != nil {
		model = d.placeholder(target.Drive, target.Rel, false)
		d.publish(contents.ChangeSave, nil, model)
		return model, d.failed("save", path, err)
	}
	d.publish(contents.ChangeSave, nil, model)
	return model, nil
}

// GetDownloadURL returns a presigned link to path. At the registry root it
// does nothing and returns "".
func (d *Drive) GetDownloadURL(ctx context.Context, path string) (string, error) {
	if drivepath.IsRoot(path) || drivepath.IsDriveRoot(path) {
		d.unsupported("download", path)
		return "", nil
	}

	target, err := d.resolve(ctx, path)
	if err != nil {
		return "", d.failed("download", path, err)
	}
	link, err := target.Gateway.PresignedLink(ctx, target.Drive, target.Rel)
	if err != nil {
		return "", d.failed("download", path, err)
	}
	return link, nil
}

// NewDrive creates a bucket and returns the directory representing it.
func (d *Drive) NewDrive(ctx context.Context, name, region string) (*contents.Model, error) {
	info, err := d.reg.Create(ctx, name, region)
	if err != nil {
		return nil, d.failed("new-drive", name, err)
	}
	model := contents.NewDirectory(info.Name, info.Name, info.CreationDate, nil)
	model.Created = info.CreationDate
	d.publish(contents.ChangeNew, nil, model)
	return model, nil
}

// settled reads back the entry at rel after a mutation. When it cannot be
// read a placeholder of the given kind is returned.
func (d *Drive) settled(ctx context.Context, gw *gateway.Gateway, drive, rel string, isDir bool) *contents.Model {
	model, err := gw.Get(ctx, drive, rel, d.FileTypes(), false)
	if err != nil {
		return d.placeholder(drive, rel, isDir)
	}
	return model
}
