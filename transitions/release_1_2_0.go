package transitions

import (
	"context"
	"fmt"

	"go.hackfix.me/stepwise/blockstore"
	"go.hackfix.me/stepwise/db/types"
	"go.hackfix.me/stepwise/migrate"
)

func release120() []migrate.Transition {
	return []migrate.Transition{
		{
			From:   version("1.1.3"),
			To:     version("1.2.0"),
			Source: "builtin/release_1_2_0",
			Apply:  upgradeTo120,
		},
		{
			From:   version("1.2.0"),
			To:     version("1.1.3"),
			Source: "builtin/release_1_2_0",
			Apply:  downgradeTo113,
		},
	}
}

// 1.2.0 adds on-chain TLS certificates for peers and on-chain settings, drops
// asset descriptions, and replaces the per-purpose transaction index tables
// with a single tx_positions table rebuilt from block storage.
func upgradeTo120(ctx context.Context, q types.Querier, blocks blockstore.Store) error {
	stmts := []string{
		`ALTER TABLE peer ADD COLUMN tls_certificate varchar`,
		`ALTER TABLE asset DROP COLUMN data`,
		`CREATE TABLE IF NOT EXISTS setting (
			setting_key text,
			setting_value text,
			PRIMARY KEY (setting_key)
		)`,
		`CREATE TABLE tx_positions (
			height bigint,
			idx bigint,
			created_time bigint
		)`,
	}
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed upgrading schema to 1.2.0: %w", err)
		}
	}

	// Transaction timestamps only exist in block storage, so the positions
	// table has to be rebuilt from it. Insertion is batched to keep the
	// statement count reasonable on large chains.
	const bulkSize = 1000
	type position struct {
		height uint64
		index  int
		ctime  int64
	}

	var batch []position
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		query := `INSERT INTO tx_positions (height, idx, created_time) VALUES `
		args := make([]any, 0, len(batch)*3)
		for i, p := range batch {
			if i > 0 {
				query += ", "
			}
			query += "(?, ?, ?)"
			args = append(args, p.height, p.index, p.ctime)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed populating tx_positions: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	err := blocks.Iterate(ctx, func(b *blockstore.Block) error {
		for i, tx := range b.Transactions {
			batch = append(batch, position{height: b.Height, index: i, ctime: tx.CreatedTime})
			if len(batch) == bulkSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return flush()
}

// The downgrade removes everything 1.2.0 added. The asset description column
// comes back empty; its former contents are not recoverable.
func downgradeTo113(ctx context.Context, q types.Querier, _ blockstore.Store) error {
	stmts := []string{
		`ALTER TABLE peer DROP COLUMN tls_certificate`,
		`ALTER TABLE asset ADD COLUMN data varchar`,
		`DROP TABLE setting`,
		`DROP TABLE tx_positions`,
	}
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed downgrading schema to 1.1.3: %w", err)
		}
	}

	return nil
}
