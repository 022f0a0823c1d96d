// Package blockstore presents migration operations with a uniform handle over
// the chain's block records, regardless of whether they live in the database
// or as files under a designated filesystem path.
package blockstore

import (
	"context"
	"fmt"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/stepwise/db/types"
)

// Mode selects where block records are stored.
type Mode string

// Supported block storage modes.
const (
	ModeDatabase   Mode = "database"
	ModeFilesystem Mode = "filesystem"
)

// Config selects the block storage backend. Exactly one mode is active per
// run: the filesystem mode requires a root path, and the database mode
// forbids one.
type Config struct {
	Mode Mode
	Path string
}

// Validate checks the configuration for consistency. It must be called before
// any migration runs, so that misconfiguration is rejected up front instead of
// failing mid-path.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeDatabase:
		if c.Path != "" {
			return &ConfigError{msg: "block storage path must not be set in database mode"}
		}
	case ModeFilesystem:
		if c.Path == "" {
			return &ConfigError{msg: "block storage path is required in filesystem mode"}
		}
	default:
		return &ConfigError{msg: fmt.Sprintf("unknown block storage mode: %q", c.Mode)}
	}

	return nil
}

// ConfigError indicates an inconsistent block storage configuration.
type ConfigError struct {
	msg string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid block storage configuration: %s", e.msg)
}

// Block is a single block record. Blocks are stored JSON-encoded.
type Block struct {
	Height       uint64        `json:"height"`
	Hash         string        `json:"hash"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

// Transaction holds the transaction fields migrations care about.
type Transaction struct {
	CreatedTime int64 `json:"created_time"`
}

// Store is the narrow interface migration operations use to read blocks.
type Store interface {
	// Load returns the block at the given height, or nil if it doesn't exist.
	Load(ctx context.Context, height uint64) (*Block, error)
	// TopHeight returns the height of the highest stored block, or 0 if the
	// storage is empty.
	TopHeight(ctx context.Context) (uint64, error)
	// Iterate calls fn for every stored block in ascending height order.
	// Iteration stops at the first error returned by fn.
	Iterate(ctx context.Context, fn func(*Block) error) error
}

// New creates the block storage handle for the given configuration.
func New(cfg Config, fs vfs.FileSystem, q types.Querier) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Mode == ModeFilesystem {
		return &Files{fs: fs, root: cfg.Path}, nil
	}

	return &SQL{q: q}, nil
}
