package miniostore

import (
	"github.com/jmgilman/go/drives/errors"
	"github.com/minio/minio-go/v7"
)

// Config holds MinIO store configuration.
type Config struct {
	// Endpoint is the MinIO server address (e.g., "localhost:9000")
	Endpoint string

	// AccessKey is the access key ID for authentication
	AccessKey string

	// SecretKey is the secret access key for authentication
	SecretKey string

	// UseSSL enables HTTPS connections
	UseSSL bool

	// Region is reported for buckets and used when creating them
	// Default: us-east-1
	Region string

	// Client is an optional pre-configured MinIO client
	// If provided, Endpoint/AccessKey/SecretKey are ignored
	Client *minio.Client
}

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// validate checks if the configuration is valid.
// Either Client OR (Endpoint + AccessKey + SecretKey) must be provided.
func (c *Config) validate() error {
	if c.Client != nil {
		return nil
	}

	if c.Endpoint == "" {
		return errors.New(errors.CodeInvalidConfig, "endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return errors.New(errors.CodeInvalidConfig, "access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return errors.New(errors.CodeInvalidConfig, "secret key is required when client is not provided")
	}

	return nil
}
