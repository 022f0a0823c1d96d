// Package config manages the persistent application configuration.
package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Config represents the application configuration, backed by a filesystem for
// persistence. Values set on the command line or via environment variables
// take precedence over it.
type Config struct {
	Database        Database
	BlockStore      BlockStore
	TransitionsDirs []string

	fs   vfs.FileSystem
	path string
}

// Database defines the database connection options.
type Database struct {
	// Driver is the database driver to use; either "sqlite" or "postgres".
	Driver sql.Null[string] `json:"driver"`
	// DSN is the database connection string.
	DSN sql.Null[string] `json:"dsn"`
}

// BlockStore defines where block records are stored.
type BlockStore struct {
	// Mode is either "database" or "filesystem".
	Mode sql.Null[string] `json:"mode"`
	// Path is the root path of file-based block storage. Only valid in
	// filesystem mode.
	Path sql.Null[string] `json:"path"`
}

// New creates a new Config instance with the specified filesystem and
// configuration file path.
func New(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem. If the
// file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}

	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

type cfgWrapper struct {
	Database        dbCfgWrapper    `json:"database"`
	BlockStore      blockCfgWrapper `json:"block_store"`
	TransitionsDirs []string        `json:"transitions_dirs,omitempty"`
}
type dbCfgWrapper struct {
	Driver string `json:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty"`
}
type blockCfgWrapper struct {
	Mode string `json:"mode,omitempty"`
	Path string `json:"path,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{TransitionsDirs: c.TransitionsDirs}

	if c.Database.Driver.Valid {
		w.Database.Driver = c.Database.Driver.V
	}
	if c.Database.DSN.Valid {
		w.Database.DSN = c.Database.DSN.V
	}
	if c.BlockStore.Mode.Valid {
		w.BlockStore.Mode = c.BlockStore.Mode.V
	}
	if c.BlockStore.Path.Valid {
		w.BlockStore.Path = c.BlockStore.Path.V
	}

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	if w.Database.Driver != "" {
		c.Database.Driver = sql.Null[string]{V: w.Database.Driver, Valid: true}
	}
	if w.Database.DSN != "" {
		c.Database.DSN = sql.Null[string]{V: w.Database.DSN, Valid: true}
	}
	if w.BlockStore.Mode != "" {
		c.BlockStore.Mode = sql.Null[string]{V: w.BlockStore.Mode, Valid: true}
	}
	if w.BlockStore.Path != "" {
		c.BlockStore.Path = sql.Null[string]{V: w.BlockStore.Path, Valid: true}
	}
	c.TransitionsDirs = w.TransitionsDirs

	return nil
}
