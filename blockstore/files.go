package blockstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Files reads blocks stored as individual files under a root path. File names
// are the block height, zero-padded to 16 digits, so lexical and height order
// coincide.
type Files struct {
	fs   vfs.FileSystem
	root string
}

var _ Store = (*Files)(nil)

func (s *Files) blockPath(height uint64) string {
	return filepath.Join(s.root, fmt.Sprintf("%016d", height))
}

// Load returns the block at the given height, or nil if it doesn't exist.
func (s *Files) Load(_ context.Context, height uint64) (*Block, error) {
	data, err := vfs.ReadFile(s.fs, s.blockPath(height))
	if vfs.IsErrNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed reading block file at height %d: %w", height, err)
	}

	block := &Block{}
	if err = json.Unmarshal(data, block); err != nil {
		return nil, fmt.Errorf("failed parsing block file at height %d: %w", height, err)
	}

	return block, nil
}

// TopHeight returns the height of the highest stored block, or 0 if the
// storage is empty. Block files are contiguous starting from height 1.
func (s *Files) TopHeight(ctx context.Context) (uint64, error) {
	var top uint64
	for height := uint64(1); ; height++ {
		block, err := s.Load(ctx, height)
		if err != nil {
			return 0, err
		}
		if block == nil {
			return top, nil
		}
		top = height
	}
}

// Iterate calls fn for every stored block in ascending height order.
func (s *Files) Iterate(ctx context.Context, fn func(*Block) error) error {
	for height := uint64(1); ; height++ {
		block, err := s.Load(ctx, height)
		if err != nil {
			return err
		}
		if block == nil {
			return nil
		}
		if err = fn(block); err != nil {
			return err
		}
	}
}
