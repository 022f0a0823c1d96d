package migrate

import (
	"context"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/nrednav/cuid2"

	"go.hackfix.me/stepwise/blockstore"
	"go.hackfix.me/stepwise/db"
	"go.hackfix.me/stepwise/db/queries"
)

// Executor applies a resolved migration path against the live database, or
// force-stamps the recorded schema version. Execution is strictly sequential:
// one transition at a time, in path order.
type Executor struct {
	db     *db.DB
	blocks blockstore.Store
	logger *slog.Logger
	runID  string
}

// NewExecutor creates an executor. Each executor is tagged with a unique run
// ID, which is stamped on log records and migration history rows.
func NewExecutor(d *db.DB, blocks blockstore.Store, logger *slog.Logger) *Executor {
	runID := cuid2.Generate()
	return &Executor{
		db:     d,
		blocks: blocks,
		logger: logger.With("run_id", runID),
		runID:  runID,
	}
}

// Run applies the transitions of the path in order. Each transition runs in
// its own transaction, together with the update of the recorded schema
// version and the history entry, so the version record always reflects
// exactly the transitions that committed. On operation failure the
// transaction is rolled back, no further transitions are attempted, and an
// ExecutionError is returned; re-running with the same target resumes from
// the last committed version.
func (e *Executor) Run(ctx context.Context, path []Transition) error {
	for _, t := range path {
		e.logger.Info("applying migration",
			"from", t.From.String(), "to", t.To.String(), "source", t.Source)

		if err := e.apply(ctx, t); err != nil {
			return err
		}
	}

	return nil
}

func (e *Executor) apply(ctx context.Context, t Transition) error {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return err
	}
	// Rollback after a successful commit is a no-op.
	//nolint:errcheck // Nothing to do with a failed rollback here.
	defer tx.Rollback()

	if err = t.Apply(ctx, tx, e.blocks); err != nil {
		return &ExecutionError{Transition: t, Err: err}
	}
	if err = queries.SetSchemaVersion(ctx, tx, t.To); err != nil {
		return err
	}
	if err = queries.LogMigration(ctx, tx, e.runID, t.From, t.To, t.Source); err != nil {
		return err
	}

	return tx.Commit()
}

// Force writes the given version into the schema version record as a single
// atomic update, without resolving a path or invoking any operation. This is
// the sanctioned recovery mechanism for versions whose recorded schema number
// is known to be wrong or unsupported by normal migration.
func (e *Executor) Force(ctx context.Context, from, version *semver.Version) error {
	e.logger.Info("force setting schema version", "version", version.String())

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return err
	}
	//nolint:errcheck // Nothing to do with a failed rollback here.
	defer tx.Rollback()

	if err = queries.SetSchemaVersion(ctx, tx, version); err != nil {
		return err
	}
	if err = queries.LogMigration(ctx, tx, e.runID, from, version, "force"); err != nil {
		return err
	}

	return tx.Commit()
}
