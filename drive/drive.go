package drive

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/drivepath"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/events"
	"github.com/jmgilman/go/drives/filetypes"
	"github.com/jmgilman/go/drives/registry"
)

// NoticeLevel grades a Notice.
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing report of an operation that was refused or failed.
type Notice struct {
	Level   NoticeLevel
	Op      string
	Path    string
	Message string
}

// Drive serves content operations across all drives of a registry.
type Drive struct {
	reg    *registry.Registry
	types  atomic.Pointer[filetypes.Registry]
	events *events.Broadcaster
	logger *zap.Logger
	notify func(Notice)
	buffer int
}

// Option configures a Drive.
type Option func(*Drive)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Drive) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithNotifier sets the function receiving notices. It is called
// synchronously and must not block.
func WithNotifier(fn func(Notice)) Option {
	return func(d *Drive) {
		d.notify = fn
	}
}

// WithFileTypes registers the host's file types at construction.
func WithFileTypes(hostTypes []filetypes.HostFileType) Option {
	return func(d *Drive) {
		d.types.Store(filetypes.New(hostTypes))
	}
}

// WithEventBuffer sets the per-subscriber event buffer.
func WithEventBuffer(n int) Option {
	return func(d *Drive) {
		d.buffer = n
	}
}

// New creates a Drive over reg. Without WithFileTypes the builtin types are used.
func New(reg *registry.Registry, opts ...Option) *Drive {
	d := &Drive{
		reg:    reg,
		logger: zap.NewNop(),
		notify: func(Notice) {},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.types.Load() == nil {
		d.types.Store(filetypes.New(filetypes.Builtin))
	}
	d.events = events.NewBroadcaster(d.buffer)
	return d
}

// Registry returns the underlying drive registry.
func (d *Drive) Registry() *registry.Registry {
	return d.reg
}

// RegisterFileTypes replaces the file type table with one built from the
// host's declared types.
func (d *Drive) RegisterFileTypes(hostTypes []filetypes.HostFileType) {
	d.types.Store(filetypes.New(hostTypes))
}

// FileTypes returns the current file type table.
func (d *Drive) FileTypes() *filetypes.Registry {
	return d.types.Load()
}

// Subscribe registers an observer of change events. The returned function
// unsubscribes it.
func (d *Drive) Subscribe() (<-chan contents.ChangeEvent, func()) {
	return d.events.Subscribe()
}

// Drives returns the visible drives with their mount state.
func (d *Drive) Drives() []contents.DriveInfo {
	return d.reg.Drives()
}

// SetListingLimit caps the number of objects the backend returns per listing.
func (d *Drive) SetListingLimit(ctx context.Context, limit int) error {
	if limit < 1 {
		return errors.Newf(errors.CodeInvalidInput, "listing limit must be positive, got %d", limit)
	}
	return d.reg.Gateway().SetListingLimit(ctx, limit)
}

func (d *Drive) publish(typ contents.ChangeType, oldValue, newValue *contents.Model) {
	d.events.Publish(contents.ChangeEvent{Type: typ, OldValue: oldValue, NewValue: newValue})
}

// unsupported reports a refused operation without failing it.
func (d *Drive) unsupported(op, path string) {
	const msg = "operation not supported"
	d.logger.Warn(msg, zap.String("op", op), zap.String("path", path))
	d.notify(Notice{Level: NoticeWarning, Op: op, Path: path, Message: msg})
}

// failed reports an operation error and returns it annotated with the
// operation and path.
func (d *Drive) failed(op, path string, err error) error {
	err = errors.WithContextMap(err, map[string]interface{}{"op": op, "path": path})
	d.logger.Error("drive operation failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
	d.notify(Notice{Level: NoticeError, Op: op, Path: path, Message: messageOf(err)})
	return err
}

// resolve resolves path and mounts its drive. Mount failures are logged and
// ignored so the operation itself reports what is wrong.
func (d *Drive) resolve(ctx context.Context, path string) (registry.Target, error) {
	target, err := d.reg.Resolve(path)
	if err != nil {
		return target, err
	}
	if err := d.reg.Mount(ctx, target.Drive); err != nil {
		d.logger.Warn("continuing without mount", zap.String("drive", target.Drive), zap.Error(err))
	}
	return target, nil
}

// placeholder builds the model of an entry whose remote call did not return one.
func (d *Drive) placeholder(drive, rel string, isDir bool) *contents.Model {
	path := drivepath.Join(drive, rel)
	name := drivepath.Base(rel)
	if isDir {
		return contents.NewDirectory(name, path, time.Time{}, nil)
	}
	class := d.FileTypes().ClassifyName(name)
	return &contents.Model{
		Name:     name,
		Path:     path,
		MimeType: class.MimeType,
		Writable: true,
		Type:     class.Type,
	}
}

func messageOf(err error) string {
	var pe errors.PlatformError
	if errors.As(err, &pe) {
		return pe.Message()
	}
	return err.Error()
}
