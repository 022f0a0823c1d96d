package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/jackc/pgx/v5/stdlib"

	"go.hackfix.me/stepwise/db/types"
)

// Driver is a supported database driver.
type Driver string

// Supported database drivers.
const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// DB wraps sql.DB with additional context and placeholder rebinding for the
// active driver.
type DB struct {
	*sql.DB
	ctx     context.Context
	timeNow func() time.Time
	driver  Driver
	dsn     string
}

var _ types.Querier = (*DB)(nil)

// Open creates and configures a new database connection using the given driver
// and data source name.
func Open(ctx context.Context, driver Driver, dsn string, timeNow func() time.Time) (*DB, error) {
	var d *DB
	switch driver {
	case DriverSQLite:
		if strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, ":memory:") {
			defer func() {
				if d != nil {
					// See https://github.com/mattn/go-sqlite3#faq
					d.SetMaxIdleConns(10)
					d.SetConnMaxLifetime(time.Duration(math.Inf(1)))
				}
			}()
		}

		sqliteDB, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed opening SQLite database: %w", err)
		}
		d = &DB{DB: sqliteDB, ctx: ctx, timeNow: timeNow, driver: driver, dsn: dsn}

		// Enable foreign key enforcement
		if _, err = d.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
			return nil, fmt.Errorf("failed enabling foreign key enforcement: %w", err)
		}
	case DriverPostgres:
		pgDB, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed opening PostgreSQL database: %w", err)
		}
		d = &DB{DB: pgDB, ctx: ctx, timeNow: timeNow, driver: driver, dsn: dsn}
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	return d, nil
}

// NewContext returns a new child context of the main database context.
func (d *DB) NewContext() context.Context {
	// TODO: Return cancel func?
	ctx, _ := context.WithCancel(d.ctx) //nolint:govet // I'll handle this later...
	return ctx
}

// TimeNow returns the current system time.
func (d *DB) TimeNow() time.Time {
	return d.timeNow()
}

// Driver returns the active database driver.
func (d *DB) Driver() Driver {
	return d.driver
}

// ExecContext executes a query without returning any rows, rebinding
// placeholders for the active driver.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	//nolint:wrapcheck // Callers wrap these errors.
	return d.DB.ExecContext(ctx, d.rebind(query), args...)
}

// ExecRawContext executes a statement exactly as given, without placeholder
// rebinding. SQL scripts go through this path, so a bare ? in a script (e.g.
// the PostgreSQL jsonb operator) is never rewritten.
func (d *DB) ExecRawContext(ctx context.Context, query string) (sql.Result, error) {
	//nolint:wrapcheck // Callers wrap these errors.
	return d.DB.ExecContext(ctx, query)
}

// QueryContext executes a query that returns rows, rebinding placeholders for
// the active driver.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	//nolint:wrapcheck // Callers wrap these errors.
	return d.DB.QueryContext(ctx, d.rebind(query), args...)
}

// QueryRowContext executes a query that returns at most one row, rebinding
// placeholders for the active driver.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, d.rebind(query), args...)
}

// Begin starts a transaction.
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed beginning transaction: %w", err)
	}
	return &Tx{tx: tx, db: d}, nil
}

// rebind converts ?-style placeholders to the $N style when the active driver
// requires it. Question marks inside single-quoted literals are left intact.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres || !strings.ContainsRune(query, '?') {
		return query
	}

	var (
		sb       strings.Builder
		inQuote  bool
		argIndex int
	)
	sb.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			sb.WriteRune(r)
		case r == '?' && !inQuote:
			argIndex++
			fmt.Fprintf(&sb, "$%d", argIndex)
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// Tx is an open database transaction. It implements types.Querier, so query
// helpers and migration operations can run within it transparently.
type Tx struct {
	tx *sql.Tx
	db *DB
}

var _ types.Querier = (*Tx)(nil)

// NewContext returns a new child context of the main database context.
func (t *Tx) NewContext() context.Context {
	return t.db.NewContext()
}

// TimeNow returns the current system time.
func (t *Tx) TimeNow() time.Time {
	return t.db.TimeNow()
}

// ExecContext executes a query within the transaction without returning any rows.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	//nolint:wrapcheck // Callers wrap these errors.
	return t.tx.ExecContext(ctx, t.db.rebind(query), args...)
}

// ExecRawContext executes a statement within the transaction exactly as
// given, without placeholder rebinding.
func (t *Tx) ExecRawContext(ctx context.Context, query string) (sql.Result, error) {
	//nolint:wrapcheck // Callers wrap these errors.
	return t.tx.ExecContext(ctx, query)
}

// QueryContext executes a query within the transaction that returns rows.
func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	//nolint:wrapcheck // Callers wrap these errors.
	return t.tx.QueryContext(ctx, t.db.rebind(query), args...)
}

// QueryRowContext executes a query within the transaction that returns at most
// one row.
func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.db.rebind(query), args...)
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed committing transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed rolling back transaction: %w", err)
	}
	return nil
}
