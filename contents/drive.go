package contents

import "time"

// DriveInfo describes a drive known to a registry.
type DriveInfo struct {
	Name         string    `json:"name" yaml:"name"`
	Region       string    `json:"region" yaml:"region"`
	Provider     string    `json:"provider" yaml:"provider"`
	CreationDate time.Time `json:"creation_date,omitzero" yaml:"creation_date"`
	Mounted      bool      `json:"mounted" yaml:"-"`
}
