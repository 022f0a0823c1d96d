package blockstore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"go.hackfix.me/stepwise/db/types"
)

// SQL reads blocks stored as rows of the blocks table, with the block data
// hex-encoded in the block_data column.
type SQL struct {
	q types.Querier
}

var _ Store = (*SQL)(nil)

func decodeBlock(blockHex string) (*Block, error) {
	data, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, fmt.Errorf("failed decoding block data: %w", err)
	}

	block := &Block{}
	if err = json.Unmarshal(data, block); err != nil {
		return nil, fmt.Errorf("failed parsing block data: %w", err)
	}

	return block, nil
}

// Load returns the block at the given height, or nil if it doesn't exist.
func (s *SQL) Load(ctx context.Context, height uint64) (*Block, error) {
	var blockHex string
	err := s.q.QueryRowContext(ctx,
		`SELECT block_data FROM blocks WHERE height = ?`, height).
		Scan(&blockHex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed reading block at height %d: %w", height, err)
	}

	return decodeBlock(blockHex)
}

// TopHeight returns the height of the highest stored block, or 0 if the
// storage is empty.
func (s *SQL) TopHeight(ctx context.Context) (uint64, error) {
	var top sql.Null[uint64]
	err := s.q.QueryRowContext(ctx, `SELECT MAX(height) FROM blocks`).Scan(&top)
	if err != nil {
		return 0, fmt.Errorf("failed reading top block height: %w", err)
	}
	if !top.Valid {
		return 0, nil
	}

	return top.V, nil
}

// Iterate calls fn for every stored block in ascending height order.
func (s *SQL) Iterate(ctx context.Context, fn func(*Block) error) error {
	rows, err := s.q.QueryContext(ctx,
		`SELECT block_data FROM blocks ORDER BY height ASC`)
	if err != nil {
		return fmt.Errorf("failed reading blocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var blockHex string
		if err = rows.Scan(&blockHex); err != nil {
			return fmt.Errorf("failed scanning block data: %w", err)
		}
		block, err := decodeBlock(blockHex)
		if err != nil {
			return err
		}
		if err = fn(block); err != nil {
			return err
		}
	}

	//nolint:wrapcheck // This is fine.
	return rows.Err()
}
