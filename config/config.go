// Package config loads drivesd configuration from YAML with DRIVES_*
// environment overrides, validated against an embedded CUE schema.
package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/transport"
)

// Provider kinds.
const (
	ProviderMinIO = "minio"
	ProviderS3    = "s3"
	ProviderLocal = "local"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DRIVES_"

// Config is the drivesd configuration.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Local    LocalConfig    `json:"local" yaml:"local"`
	Limits   LimitsConfig   `json:"limits" yaml:"limits"`
}

// ServerConfig configures the REST surface.
type ServerConfig struct {
	Listen    string `json:"listen" yaml:"listen"`
	Namespace string `json:"namespace" yaml:"namespace"`

	// Token, when set, is required as a bearer token.
	Token string `json:"token" yaml:"token"`

	// Metrics exposes /metrics.
	Metrics bool `json:"metrics" yaml:"metrics"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// ProviderConfig selects and configures the primary object store.
type ProviderConfig struct {
	Kind         string `json:"kind" yaml:"kind"`
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
	Region       string `json:"region" yaml:"region"`
	AccessKey    string `json:"access_key" yaml:"access_key"`
	SecretKey    string `json:"secret_key" yaml:"secret_key"`
	UseSSL       bool   `json:"use_ssl" yaml:"use_ssl"`
	UsePathStyle bool   `json:"use_path_style" yaml:"use_path_style"`
}

// LocalConfig configures the local filesystem drive. With an empty Root no
// local drive is served unless the provider kind is local.
type LocalConfig struct {
	Root  string `json:"root" yaml:"root"`
	Drive string `json:"drive" yaml:"drive"`
}

type LimitsConfig struct {
	// Listing caps the objects returned by one listing.
	Listing int `json:"listing" yaml:"listing"`

	// Concurrency bounds directory fan-out.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	PresignTTL time.Duration `json:"presign_ttl" yaml:"presign_ttl"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:    ":8888",
			Namespace: transport.DefaultNamespace,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Provider: ProviderConfig{
			Kind:   ProviderLocal,
			Region: "us-east-1",
		},
		Local: LocalConfig{
			Root:  "./data",
			Drive: "home",
		},
		Limits: LimitsConfig{
			Listing:     1025,
			Concurrency: 10,
			PresignTTL:  time.Hour,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig, "failed to read config file",
				map[string]interface{}{"path": path})
		}
		if err := Parse(data, cfg); err != nil {
			return nil, errors.WithContext(err, "path", path)
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := Validate(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Fields absent from data keep their values.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse config")
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapWithContext(err, errors.CodeInvalidConfig, "failed to load env file",
			map[string]interface{}{"path": path})
	}
	return nil
}

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

type override struct {
	name  string
	apply func(cfg *Config, value string) error
}

func str(set func(*Config, string)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		set(cfg, v)
		return nil
	}
}

func boolean(set func(*Config, bool)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		set(cfg, b)
		return nil
	}
}

func integer(set func(*Config, int)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		set(cfg, n)
		return nil
	}
}

var overrides = []override{
	{"LISTEN", str(func(c *Config, v string) { c.Server.Listen = v })},
	{"NAMESPACE", str(func(c *Config, v string) { c.Server.Namespace = v })},
	{"TOKEN", str(func(c *Config, v string) { c.Server.Token = v })},
	{"METRICS", boolean(func(c *Config, v bool) { c.Server.Metrics = v })},
	{"LOG_LEVEL", str(func(c *Config, v string) { c.Log.Level = strings.ToLower(v) })},
	{"LOG_FORMAT", str(func(c *Config, v string) { c.Log.Format = strings.ToLower(v) })},
	{"PROVIDER", str(func(c *Config, v string) { c.Provider.Kind = strings.ToLower(v) })},
	{"ENDPOINT", str(func(c *Config, v string) { c.Provider.Endpoint = v })},
	{"REGION", str(func(c *Config, v string) { c.Provider.Region = v })},
	{"ACCESS_KEY", str(func(c *Config, v string) { c.Provider.AccessKey = v })},
	{"SECRET_KEY", str(func(c *Config, v string) { c.Provider.SecretKey = v })},
	{"USE_SSL", boolean(func(c *Config, v bool) { c.Provider.UseSSL = v })},
	{"USE_PATH_STYLE", boolean(func(c *Config, v bool) { c.Provider.UsePathStyle = v })},
	{"LOCAL_ROOT", str(func(c *Config, v string) { c.Local.Root = v })},
	{"LOCAL_DRIVE", str(func(c *Config, v string) { c.Local.Drive = v })},
	{"LISTING_LIMIT", integer(func(c *Config, v int) { c.Limits.Listing = v })},
	{"CONCURRENCY", integer(func(c *Config, v int) { c.Limits.Concurrency = v })},
	{"PRESIGN_TTL", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Limits.PresignTTL = d
		return nil
	}},
}

// ApplyEnv applies every DRIVES_* variable lookup finds to cfg.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	for _, o := range overrides {
		key := EnvPrefix + o.name
		value, ok := lookup(key)
		if !ok {
			continue
		}
		if err := o.apply(cfg, strings.TrimSpace(value)); err != nil {
			return errors.WrapWithContext(err, errors.CodeInvalidConfig, "invalid environment override",
				map[string]interface{}{"variable": key})
		}
	}
	return nil
}
