package transitions

import (
	"context"
	"fmt"

	"go.hackfix.me/stepwise/blockstore"
	"go.hackfix.me/stepwise/db/types"
	"go.hackfix.me/stepwise/migrate"
)

func release112() []migrate.Transition {
	return []migrate.Transition{
		{
			From:   version("1.1.1"),
			To:     version("1.1.2"),
			Source: "builtin/release_1_1_2",
			Apply:  addTopBlockInfo,
		},
		{
			From:   version("1.1.2"),
			To:     version("1.1.1"),
			Source: "builtin/release_1_1_2",
			Apply:  dropTopBlockInfo,
		},
	}
}

// 1.1.2 caches the top block's height and hash in the database, so the server
// doesn't have to scan block storage on startup.
func addTopBlockInfo(ctx context.Context, q types.Querier, blocks blockstore.Store) error {
	_, err := q.ExecContext(ctx, `
		CREATE TABLE top_block_info (
			lock char(1) DEFAULT 'X' NOT NULL PRIMARY KEY,
			height int,
			hash varchar(128)
		)`)
	if err != nil {
		return fmt.Errorf("failed creating top_block_info table: %w", err)
	}

	top, err := blocks.TopHeight(ctx)
	if err != nil {
		return err
	}
	if top == 0 {
		return nil
	}

	block, err := blocks.Load(ctx, top)
	if err != nil {
		return err
	}
	if block == nil {
		return fmt.Errorf("top block at height %d not found in block storage", top)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO top_block_info (height, hash) VALUES (?, ?)
		ON CONFLICT (lock) DO UPDATE SET
			height = excluded.height,
			hash = excluded.hash`,
		block.Height, block.Hash)
	if err != nil {
		return fmt.Errorf("failed writing top block info: %w", err)
	}

	return nil
}

func dropTopBlockInfo(ctx context.Context, q types.Querier, _ blockstore.Store) error {
	_, err := q.ExecContext(ctx, `DROP TABLE top_block_info`)
	if err != nil {
		return fmt.Errorf("failed dropping top_block_info table: %w", err)
	}

	return nil
}
