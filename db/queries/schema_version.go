package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"go.hackfix.me/stepwise/db/types"
)

// The schema version is kept in a single row, enforced by the constant primary
// key. The layout is shared with the server, so it must not change here alone.
const schemaVersionTable = `
	CREATE TABLE IF NOT EXISTS schema_version (
		lock char(1) DEFAULT 'X' NOT NULL PRIMARY KEY,
		iroha_major int NOT NULL,
		iroha_minor int NOT NULL,
		iroha_patch int NOT NULL
	)`

// SchemaVersion returns the currently recorded schema version, or nil if no
// version record exists yet. A nil version means the database is unversioned.
func SchemaVersion(ctx context.Context, q types.Querier) (*semver.Version, error) {
	var major, minor, patch uint64
	err := q.QueryRowContext(ctx,
		`SELECT iroha_major, iroha_minor, iroha_patch FROM schema_version`).
		Scan(&major, &minor, &patch)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed reading schema version: %w", err)
	}

	return semver.New(major, minor, patch, "", ""), nil
}

// SetSchemaVersion atomically replaces the recorded schema version, creating
// the version record on first use. It must be run within the same transaction
// as the change it records.
func SetSchemaVersion(ctx context.Context, q types.Querier, version *semver.Version) error {
	if _, err := q.ExecContext(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("failed creating schema_version table: %w", err)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO schema_version (iroha_major, iroha_minor, iroha_patch)
		VALUES (?, ?, ?)
		ON CONFLICT (lock) DO UPDATE SET
			iroha_major = excluded.iroha_major,
			iroha_minor = excluded.iroha_minor,
			iroha_patch = excluded.iroha_patch`,
		version.Major(), version.Minor(), version.Patch())
	if err != nil {
		return fmt.Errorf("failed writing schema version: %w", err)
	}

	return nil
}

const migrationLogTable = `
	CREATE TABLE IF NOT EXISTS _migration_log (
		run_id text NOT NULL,
		from_version text,
		to_version text NOT NULL,
		source text NOT NULL,
		applied_at text NOT NULL
	)`

// LogEntry is a single record of the migration history.
type LogEntry struct {
	RunID     string
	From      sql.Null[string]
	To        string
	Source    string
	AppliedAt time.Time
}

// LogMigration appends a record to the migration history. A nil from version
// indicates the database was unversioned, or that the version was stamped
// without applying any transitions.
func LogMigration(
	ctx context.Context, q types.Querier,
	runID string, from, to *semver.Version, source string,
) error {
	if _, err := q.ExecContext(ctx, migrationLogTable); err != nil {
		return fmt.Errorf("failed creating _migration_log table: %w", err)
	}

	var fromVal sql.Null[string]
	if from != nil {
		fromVal = sql.Null[string]{V: from.String(), Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO _migration_log (run_id, from_version, to_version, source, applied_at)
		VALUES (?, ?, ?, ?, ?)`,
		runID, fromVal, to.String(), source,
		q.TimeNow().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed writing migration log entry: %w", err)
	}

	return nil
}

// MigrationLog returns the migration history in chronological order. It
// returns no error if the history table doesn't exist yet; the history is
// simply empty.
func MigrationLog(ctx context.Context, q types.Querier) ([]LogEntry, error) {
	if _, err := q.ExecContext(ctx, migrationLogTable); err != nil {
		return nil, fmt.Errorf("failed creating _migration_log table: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT run_id, from_version, to_version, source, applied_at
		FROM _migration_log ORDER BY applied_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed reading migration log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			e      LogEntry
			tstamp string
		)
		if err = rows.Scan(&e.RunID, &e.From, &e.To, &e.Source, &tstamp); err != nil {
			return nil, fmt.Errorf("failed scanning migration log entry: %w", err)
		}
		e.AppliedAt, err = time.Parse(time.RFC3339Nano, tstamp)
		if err != nil {
			return nil, fmt.Errorf("failed parsing migration log timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading migration log: %w", err)
	}

	return entries, nil
}
