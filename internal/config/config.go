// Package config loads the YAML run configuration of the grgmap CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/grgmap/signature"
)

// Store kinds.
const (
	StoreLocal  = "local"
	StoreMemory = "memory"
	StoreS3     = "s3"
	StoreMinio  = "minio"
)

// Defaults mirror the library defaults.
const (
	DefaultBuckets          = signature.DefaultBuckets
	DefaultBatchSize        = 1024
	DefaultProgressInterval = 10 * time.Second
	DefaultCacheBlocks      = 64
	DefaultReportName       = "report.yaml"
)

// StoreConfig selects and configures a blob store.
type StoreConfig struct {
	// Kind is one of local, memory, s3 or minio.
	Kind string `yaml:"kind"`

	// Path is the root directory of a local store.
	Path string `yaml:"path,omitempty"`

	// Bucket, Prefix, Region and Endpoint configure object stores.
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`

	// Credentials are never read from or written to YAML.
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`

	// Name is the blob to read or write within the store.
	Name string `yaml:"name"`
}

// Validate checks the store configuration.
func (s *StoreConfig) Validate() error {
	switch s.Kind {
	case StoreLocal:
		if s.Path == "" {
			return errors.New("path is required for local stores")
		}
	case StoreMemory:
	case StoreS3, StoreMinio:
		if s.Bucket == "" {
			return fmt.Errorf("bucket is required for %s stores", s.Kind)
		}
		if s.Kind == StoreMinio && s.Endpoint == "" {
			return errors.New("endpoint is required for minio stores")
		}
	default:
		return fmt.Errorf("unknown store kind %q", s.Kind)
	}
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	// Textfile is written in the Prometheus text format after the run.
	Textfile string `yaml:"textfile,omitempty"`
}

// Config is a complete mapping run.
type Config struct {
	Buckets          int           `yaml:"buckets"`
	Workers          int           `yaml:"workers"`
	BatchSize        int           `yaml:"batch_size"`
	ProgressInterval time.Duration `yaml:"progress_interval"`

	// CacheBlocks sizes the block cache in front of remote inputs.
	// Zero disables caching.
	CacheBlocks int `yaml:"cache_blocks"`

	Input   StoreConfig   `yaml:"input"`
	Output  StoreConfig   `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Buckets:          DefaultBuckets,
		BatchSize:        DefaultBatchSize,
		ProgressInterval: DefaultProgressInterval,
		CacheBlocks:      DefaultCacheBlocks,
		Input:            StoreConfig{Kind: StoreLocal, Path: "."},
		Output:           StoreConfig{Kind: StoreLocal, Path: ".", Name: DefaultReportName},
		Log:              LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r on top of Default. An empty document yields
// the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if c.Buckets <= 0 {
		return fmt.Errorf("buckets must be positive, got %d", c.Buckets)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.ProgressInterval < 0 {
		return errors.New("progress_interval must be non-negative")
	}
	if c.CacheBlocks < 0 {
		return errors.New("cache_blocks must be non-negative")
	}
	if err := c.Input.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
