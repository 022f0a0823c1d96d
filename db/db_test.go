package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(t.Context(), "oracle", "dsn", time.Now)
	assert.ErrorContains(t, err, `unsupported database driver: "oracle"`)
}

func TestRebind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		driver Driver
		query  string
		exp    string
	}{
		{
			name:   "sqlite_untouched",
			driver: DriverSQLite,
			query:  `SELECT * FROM t WHERE a = ? AND b = ?`,
			exp:    `SELECT * FROM t WHERE a = ? AND b = ?`,
		},
		{
			name:   "postgres_numbered",
			driver: DriverPostgres,
			query:  `INSERT INTO t (a, b, c) VALUES (?, ?, ?)`,
			exp:    `INSERT INTO t (a, b, c) VALUES ($1, $2, $3)`,
		},
		{
			name:   "postgres_no_placeholders",
			driver: DriverPostgres,
			query:  `SELECT 1`,
			exp:    `SELECT 1`,
		},
		{
			name:   "postgres_quoted_literal_kept",
			driver: DriverPostgres,
			query:  `SELECT * FROM t WHERE a = '?' AND b = ?`,
			exp:    `SELECT * FROM t WHERE a = '?' AND b = $1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := &DB{driver: tt.driver}
			assert.Equal(t, tt.exp, d.rebind(tt.query))
		})
	}
}

func TestTxCommitAndRollback(t *testing.T) {
	t.Parallel()

	d, err := Open(t.Context(), DriverSQLite,
		"file:dbtest?mode=memory&cache=shared", time.Now)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	ctx := d.NewContext()

	tx, err := d.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, `CREATE TABLE committed (id int)`)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx, err = d.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, `CREATE TABLE discarded (id int)`)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	_, err = d.ExecContext(ctx, `SELECT * FROM committed`)
	assert.NoError(t, err)
	_, err = d.ExecContext(ctx, `SELECT * FROM discarded`)
	assert.Error(t, err)
}
