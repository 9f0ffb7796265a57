// Package registry keeps the set of drives a session knows about, routes
// composite paths to the gateway serving each drive and serializes mounting.
package registry

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/drivepath"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/gateway"
)

// Registry is safe for concurrent use. The drive table is written rarely
// (discovery, creation, visibility changes) and read on every operation.
type Registry struct {
	primary *gateway.Gateway
	logger  *zap.Logger

	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
	hidden  map[string]struct{}
}

type entry struct {
	info    contents.DriveInfo
	gw      *gateway.Gateway
	mountMu sync.Mutex
	mounted atomic.Bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for mount failures.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry. primary serves drive discovery, creation and
// administration, and every drive added without its own gateway.
func New(primary *gateway.Gateway, opts ...Option) *Registry {
	r := &Registry{
		primary: primary,
		logger:  zap.NewNop(),
		entries: make(map[string]*entry),
		hidden:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EntryOption configures a drive added with Add.
type EntryOption func(*entry)

// Through routes the drive's operations to gw instead of the primary gateway.
func Through(gw *gateway.Gateway) EntryOption {
	return func(e *entry) {
		if gw != nil {
			e.gw = gw
		}
	}
}

// AlwaysMounted marks a drive that needs no mount step, such as a local
// filesystem drive.
func AlwaysMounted() EntryOption {
	return func(e *entry) {
		e.mounted.Store(true)
	}
}

// Add registers a drive. Names are unique: adding a known name fails with
// CodeAlreadyExists.
func (r *Registry) Add(info contents.DriveInfo, opts ...EntryOption) error {
	if info.Name == "" || containsSeparator(info.Name) {
		return errors.Newf(errors.CodeInvalidInput, "invalid drive name %q", info.Name)
	}

	e := &entry{info: info, gw: r.primary}
	e.mounted.Store(info.Mounted)
	for _, opt := range opts {
		opt(e)
	}
	if e.gw == nil {
		return errors.Newf(errors.CodeInvalidConfig, "drive %q has no gateway", info.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[info.Name]; ok {
		return errors.Newf(errors.CodeAlreadyExists, "drive %q is already registered", info.Name)
	}
	r.entries[info.Name] = e
	r.order = append(r.order, info.Name)
	return nil
}

// Lookup returns the description of a drive, including hidden ones.
func (r *Registry) Lookup(name string) (contents.DriveInfo, bool) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return contents.DriveInfo{}, false
	}
	return e.snapshot(), true
}

// Drives returns the visible drives in registration order.
func (r *Registry) Drives() []contents.DriveInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contents.DriveInfo, 0, len(r.order))
	for _, name := range r.order {
		if _, hidden := r.hidden[name]; hidden {
			continue
		}
		out = append(out, r.entries[name].snapshot())
	}
	return out
}

// ListRoot synthesizes the registry root: one directory per visible drive,
// mounted or not, sorted by name.
func (r *Registry) ListRoot() *contents.Model {
	drives := r.Drives()
	sort.Slice(drives, func(i, j int) bool { return drives[i].Name < drives[j].Name })

	children := make([]contents.Model, 0, len(drives))
	for _, d := range drives {
		dir := contents.NewDirectory(d.Name, d.Name, d.CreationDate, nil)
		dir.Created = d.CreationDate
		children = append(children, *dir)
	}
	return contents.NewDirectory("", "", time.Time{}, children)
}

// Target is a composite path resolved to the drive serving it.
type Target struct {
	Drive   string
	Rel     string
	Gateway *gateway.Gateway
}

// Composite returns the composite path of the target.
func (t Target) Composite() string {
	return drivepath.Join(t.Drive, t.Rel)
}

// Resolve splits composite and finds the drive serving it. Hidden drives
// still resolve. The registry root is not a drive and fails with
// CodeInvalidInput.
func (r *Registry) Resolve(composite string) (Target, error) {
	if drivepath.IsRoot(composite) {
		return Target{}, errors.New(errors.CodeInvalidInput, "the registry root is not a drive")
	}
	name, rel := drivepath.Split(composite)

	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return Target{}, errors.WithContext(
			errors.Newf(errors.CodeNotFound, "drive %q is not registered", name),
			"drive", name,
		)
	}
	return Target{Drive: name, Rel: drivepath.Normalize(rel), Gateway: e.gw}, nil
}

// Gateway returns the primary gateway.
func (r *Registry) Gateway() *gateway.Gateway {
	return r.primary
}

func (r *Registry) entry(name string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WithContext(
			errors.Newf(errors.CodeNotFound, "drive %q is not registered", name),
			"drive", name,
		)
	}
	return e, nil
}

func (e *entry) snapshot() contents.DriveInfo {
	info := e.info
	info.Mounted = e.mounted.Load()
	return info
}

func containsSeparator(name string) bool {
	return strings.Contains(name, drivepath.Separator)
}
