package queries_test

import (
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/stepwise/db"
	"go.hackfix.me/stepwise/db/queries"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	rndName := make([]byte, 12)
	_, err := rand.Read(rndName)
	require.NoError(t, err)

	d, err := db.Open(t.Context(), db.DriverSQLite,
		fmt.Sprintf("file:queries-%x?mode=memory&cache=shared", rndName), time.Now)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	return d
}

func TestSchemaVersion(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	ctx := d.NewContext()

	// An empty version table, in the exact layout the server creates, means
	// the database is unversioned.
	_, err := d.ExecContext(ctx, `
		CREATE TABLE schema_version (
			lock char(1) DEFAULT 'X' NOT NULL PRIMARY KEY,
			iroha_major int NOT NULL,
			iroha_minor int NOT NULL,
			iroha_patch int NOT NULL
		)`)
	require.NoError(t, err)

	version, err := queries.SchemaVersion(ctx, d)
	require.NoError(t, err)
	assert.Nil(t, version)

	// A version row written by the server is read back as-is.
	_, err = d.ExecContext(ctx, `
		INSERT INTO schema_version (iroha_major, iroha_minor, iroha_patch)
		VALUES (1, 1, 0)`)
	require.NoError(t, err)
	version, err = queries.SchemaVersion(ctx, d)
	require.NoError(t, err)
	require.NotNil(t, version)
	assert.Equal(t, "1.1.0", version.String())

	require.NoError(t, queries.SetSchemaVersion(ctx, d, semver.MustParse("1.1.1")))
	version, err = queries.SchemaVersion(ctx, d)
	require.NoError(t, err)
	require.NotNil(t, version)
	assert.Equal(t, "1.1.1", version.String())

	// Setting again overwrites the single row.
	require.NoError(t, queries.SetSchemaVersion(ctx, d, semver.MustParse("1.2.0")))
	version, err = queries.SchemaVersion(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", version.String())

	var count int
	require.NoError(t, d.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schema_version`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSchemaVersionMissingTable(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	_, err := queries.SchemaVersion(d.NewContext(), d)
	assert.ErrorContains(t, err, "failed reading schema version")
}

func TestSetSchemaVersionCreatesTable(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	ctx := d.NewContext()

	require.NoError(t, queries.SetSchemaVersion(ctx, d, semver.MustParse("0.1.0")))
	version, err := queries.SchemaVersion(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", version.String())
}

func TestMigrationLog(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	ctx := d.NewContext()

	// The history is empty before anything was logged.
	entries, err := queries.MigrationLog(ctx, d)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, queries.LogMigration(ctx, d, "run1",
		nil, semver.MustParse("1.0.0"), "force"))
	require.NoError(t, queries.LogMigration(ctx, d, "run2",
		semver.MustParse("1.0.0"), semver.MustParse("1.1.0"), "builtin"))

	entries, err = queries.MigrationLog(ctx, d)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "run1", entries[0].RunID)
	assert.False(t, entries[0].From.Valid)
	assert.Equal(t, "1.0.0", entries[0].To)
	assert.Equal(t, "force", entries[0].Source)
	assert.False(t, entries[0].AppliedAt.IsZero())

	assert.Equal(t, "run2", entries[1].RunID)
	assert.Equal(t, "1.0.0", entries[1].From.V)
	assert.Equal(t, "1.1.0", entries[1].To)
	assert.False(t, entries[1].AppliedAt.Before(entries[0].AppliedAt))
}
