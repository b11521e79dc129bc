package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jpl-au/linkstore"
	"github.com/jpl-au/linkstore/sqlitehost"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Backends selectable in the config file or with --backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the optional YAML configuration file.
type Config struct {
	Backend       string `yaml:"backend"`        // file | sqlite
	Path          string `yaml:"path"`           // region directory or database file
	HashAlgorithm int    `yaml:"hash_algorithm"` // 1=xxHash3, 2=FNV1a, 3=Blake2b
	SyncWrites    bool   `yaml:"sync_writes"`    // fsync file host commits
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendFile,
		Path:          "regions",
		HashAlgorithm: linkstore.AlgXXHash3,
		SyncWrites:    true,
	}
}

// LoadConfig reads a YAML config file on top of the defaults. Unknown
// fields are rejected so typos surface immediately.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("backend %q: must be %q or %q", c.Backend, BackendFile, BackendSQLite)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	switch c.HashAlgorithm {
	case linkstore.AlgXXHash3, linkstore.AlgFNV1a, linkstore.AlgBlake2b:
	default:
		return fmt.Errorf("hash_algorithm %d: must be 1, 2 or 3", c.HashAlgorithm)
	}
	return nil
}

// OpenHost opens the configured backend.
func (c Config) OpenHost(log *zap.Logger) (linkstore.Host, error) {
	switch c.Backend {
	case BackendSQLite:
		return sqlitehost.Open(c.Path, sqlitehost.WithLogger(log))
	default:
		return linkstore.OpenFileHost(c.Path, linkstore.FileConfig{
			SyncWrites: c.SyncWrites,
			Logger:     log,
		})
	}
}

// OpenManager opens the configured backend and wraps it in a Manager.
// Closing the returned Host is the caller's job.
func (c Config) OpenManager(log *zap.Logger) (*linkstore.Manager, error) {
	host, err := c.OpenHost(log)
	if err != nil {
		return nil, err
	}
	m, err := linkstore.NewManager(host, linkstore.Config{
		HashAlgorithm: c.HashAlgorithm,
		Logger:        log,
	})
	if err != nil {
		host.Close()
		return nil, err
	}
	return m, nil
}
