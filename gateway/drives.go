package gateway

import (
	"context"
	"net/http"

	"github.com/jmgilman/go/drives/contents"
)

// MountRequest is the body of a mount.
type MountRequest struct {
	DriveName string `json:"drive_name"`
	Provider  string `json:"provider,omitempty"`
	Region    string `json:"region,omitempty"`
}

// CreateDriveRequest is the body of a drive creation.
type CreateDriveRequest struct {
	NewDriveName string `json:"new_drive_name"`
	Location     string `json:"location,omitempty"`
}

// UnmountRequest is the body of an unmount.
type UnmountRequest struct {
	DriveName string `json:"drive_name"`
}

// ConfigRequest is the body of an administrative call. Exactly one field is
// expected to be set.
type ConfigRequest struct {
	NewLimit          *int   `json:"new_limit,omitempty"`
	ExcludeDriveName  string `json:"exclude_drive_name,omitempty"`
	IncludeDriveName  string `json:"include_drive_name,omitempty"`
	PublicDriveName   string `json:"public_drive_name,omitempty"`
	ExternalDriveName string `json:"external_drive_name,omitempty"`
	Location          string `json:"location,omitempty"`
}

// ListDrives returns the drives the backend knows about.
func (g *Gateway) ListDrives(ctx context.Context) ([]contents.DriveInfo, error) {
	raw, err := g.call(ctx, EndpointDrives, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return decode[[]contents.DriveInfo](raw)
}

// MountDrive establishes the backend connection for a drive. A drive that is
// already mounted answers with CodeConflict.
func (g *Gateway) MountDrive(ctx context.Context, req MountRequest) error {
	_, err := g.call(ctx, EndpointDrives, http.MethodPost, req)
	return err
}

// UnmountDrive releases the backend connection of a drive.
func (g *Gateway) UnmountDrive(ctx context.Context, name string) error {
	_, err := g.call(ctx, EndpointDrives, http.MethodDelete, UnmountRequest{DriveName: name})
	return err
}

// CreateDrive creates a new bucket and returns its description.
func (g *Gateway) CreateDrive(ctx context.Context, req CreateDriveRequest) (*contents.DriveInfo, error) {
	raw, err := g.call(ctx, EndpointDrives, http.MethodPut, req)
	if err != nil {
		return nil, err
	}
	info, err := decode[contents.DriveInfo](raw)
	if err != nil {
		return nil, err
	}
	if info.Name == "" {
		info.Name = req.NewDriveName
		info.Region = req.Location
	}
	return &info, nil
}

// Configure performs an administrative call.
func (g *Gateway) Configure(ctx context.Context, req ConfigRequest) error {
	_, err := g.call(ctx, EndpointConfig, http.MethodPost, req)
	return err
}

// SetListingLimit caps the number of objects a listing returns.
func (g *Gateway) SetListingLimit(ctx context.Context, limit int) error {
	return g.Configure(ctx, ConfigRequest{NewLimit: &limit})
}
