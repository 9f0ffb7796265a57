package registry

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/gateway"
)

// ProviderS3 is the provider recorded for drives added by URL.
const ProviderS3 = "s3"

// Discover adds every drive the primary gateway reports that is not yet
// registered and returns how many were added.
func (r *Registry) Discover(ctx context.Context) (int, error) {
	drives, err := r.primary.ListDrives(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.GetCode(err), "failed to list drives")
	}

	added := 0
	for _, info := range drives {
		if err := r.Add(info); err != nil {
			if errors.HasCode(err, errors.CodeAlreadyExists) {
				continue
			}
			r.logger.Warn("skipping drive", zap.String("drive", info.Name), zap.Error(err))
			continue
		}
		added++
	}
	return added, nil
}

// Create creates a new bucket through the primary gateway and registers it.
func (r *Registry) Create(ctx context.Context, name, region string) (contents.DriveInfo, error) {
	if name == "" || containsSeparator(name) {
		return contents.DriveInfo{}, errors.Newf(errors.CodeInvalidInput, "invalid drive name %q", name)
	}
	info, err := r.primary.CreateDrive(ctx, gateway.CreateDriveRequest{NewDriveName: name, Location: region})
	if err != nil {
		return contents.DriveInfo{}, errors.WithContext(err, "drive", name)
	}
	if err := r.Add(*info); err != nil {
		return contents.DriveInfo{}, err
	}
	got, _ := r.Lookup(info.Name)
	return got, nil
}

// Exclude hides a drive from Drives and ListRoot. The backend is told first;
// the drive itself is never deleted.
func (r *Registry) Exclude(ctx context.Context, name string) error {
	e, err := r.entry(name)
	if err != nil {
		return err
	}
	if err := e.gw.Configure(ctx, gateway.ConfigRequest{ExcludeDriveName: name}); err != nil {
		return errors.WithContext(err, "drive", name)
	}

	r.mu.Lock()
	r.hidden[name] = struct{}{}
	r.mu.Unlock()
	return nil
}

// Include makes a drive hidden by Exclude visible again.
func (r *Registry) Include(ctx context.Context, name string) error {
	e, err := r.entry(name)
	if err != nil {
		return err
	}
	if err := e.gw.Configure(ctx, gateway.ConfigRequest{IncludeDriveName: name}); err != nil {
		return errors.WithContext(err, "drive", name)
	}

	r.mu.Lock()
	delete(r.hidden, name)
	r.mu.Unlock()
	return nil
}

// Hidden reports whether a drive is excluded from the listing.
func (r *Registry) Hidden(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.hidden[name]
	return ok
}

// AddPublicDrive registers a publicly readable bucket owned by a third party.
func (r *Registry) AddPublicDrive(ctx context.Context, driveURL string) (contents.DriveInfo, error) {
	name, err := DriveNameFromURL(driveURL)
	if err != nil {
		return contents.DriveInfo{}, err
	}
	if err := r.primary.Configure(ctx, gateway.ConfigRequest{PublicDriveName: driveURL}); err != nil {
		return contents.DriveInfo{}, errors.WithContext(err, "drive", name)
	}
	return r.addExternal(contents.DriveInfo{Name: name, Provider: ProviderS3})
}

// AddExternalDrive registers an externally hosted bucket in region.
func (r *Registry) AddExternalDrive(ctx context.Context, driveURL, region string) (contents.DriveInfo, error) {
	name, err := DriveNameFromURL(driveURL)
	if err != nil {
		return contents.DriveInfo{}, err
	}
	err = r.primary.Configure(ctx, gateway.ConfigRequest{ExternalDriveName: driveURL, Location: region})
	if err != nil {
		return contents.DriveInfo{}, errors.WithContext(err, "drive", name)
	}
	return r.addExternal(contents.DriveInfo{Name: name, Provider: ProviderS3, Region: region})
}

// addExternal registers info, or makes an already registered drive of the
// same name visible again.
func (r *Registry) addExternal(info contents.DriveInfo) (contents.DriveInfo, error) {
	if err := r.Add(info); err != nil && !errors.HasCode(err, errors.CodeAlreadyExists) {
		return contents.DriveInfo{}, err
	}
	r.mu.Lock()
	delete(r.hidden, info.Name)
	r.mu.Unlock()

	got, _ := r.Lookup(info.Name)
	return got, nil
}

// DriveNameFromURL extracts the bucket name from a drive reference. It accepts
// a bare bucket name, s3://bucket/..., virtual-hosted URLs such as
// https://bucket.s3.amazonaws.com and path-style URLs such as
// https://s3.amazonaws.com/bucket.
func DriveNameFromURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	invalid := errors.WithContext(
		errors.New(errors.CodeInvalidInput, "cannot determine drive name"),
		"url", ref,
	)
	if ref == "" {
		return "", invalid
	}
	if !strings.Contains(ref, "://") {
		name, _, _ := strings.Cut(strings.Trim(ref, "/"), "/")
		if name == "" {
			return "", invalid
		}
		return name, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", errors.WithContext(errors.Wrap(err, errors.CodeInvalidInput, "invalid drive URL"), "url", ref)
	}

	var name string
	host := u.Hostname()
	switch {
	case u.Scheme == "s3":
		name = host
	case strings.Contains(host, ".s3.") || strings.Contains(host, ".s3-"):
		name, _, _ = strings.Cut(host, ".")
	default:
		name, _, _ = strings.Cut(strings.Trim(u.Path, "/"), "/")
	}
	if name == "" {
		return "", invalid
	}
	return name, nil
}
