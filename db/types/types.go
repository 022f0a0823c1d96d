package types

import (
	"context"
	"database/sql"
	"time"
)

// Querier exposes only methods for running SQL queries, and some helper functions.
// Both the database handle and open transactions implement it, so query helpers
// and migration operations don't need to care which one they received.
type Querier interface {
	NewContext() context.Context
	TimeNow() time.Time
	ExecContext(ctx context.Context, sql string, arguments ...any) (sql.Result, error)
	// ExecRawContext executes the statement exactly as given, without any
	// placeholder rewriting. Meant for SQL scripts that bind no arguments.
	ExecRawContext(ctx context.Context, sql string) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
