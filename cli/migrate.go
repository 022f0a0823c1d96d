package cli

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	actx "go.hackfix.me/stepwise/app/context"
	aerrors "go.hackfix.me/stepwise/app/errors"
	"go.hackfix.me/stepwise/blockstore"
	"go.hackfix.me/stepwise/migrate"
)

// The Migrate command resolves the migration path from the current schema
// version to the target, and applies it one transaction at a time.
type Migrate struct {
	Target *semver.Version `kong:"arg,type='version',help='Target schema version.'"`

	TransitionsDir      []string `kong:"help='Additional directory containing transition SQL scripts, registered after the built-in transitions. Can be repeated.'"`
	Force               bool     `kong:"help='Write the target version into the schema version record directly, without resolving or applying any transitions.'"`
	PrintCurrentVersion bool     `kong:"help='Report the current schema version before doing anything else.'"`
}

// Run the migrate command.
func (c *Migrate) Run(appCtx *actx.Context) error {
	unlock, err := lockRun(appCtx)
	if err != nil {
		return err
	}
	defer unlock()

	current := currentVersion(appCtx)
	if c.PrintCurrentVersion {
		printCurrentVersion(appCtx, current)
	}

	blocks, err := blockstore.New(appCtx.BlockStore, appCtx.FS, appCtx.DB)
	if err != nil {
		return err
	}

	ctx := appCtx.DB.NewContext()
	executor := migrate.NewExecutor(appCtx.DB, blocks, appCtx.Logger)

	if c.Force {
		if err = executor.Force(ctx, current, c.Target); err != nil {
			return aerrors.NewWithCause("failed force setting the schema version", err,
				"version", c.Target.String())
		}
		fmt.Fprintf(appCtx.Stdout, "Schema version set to %s.\n", c.Target)
		return nil
	}

	if current == nil {
		return errNoCurrentVersion()
	}

	graph, err := buildGraph(appCtx, c.TransitionsDir)
	if err != nil {
		return err
	}

	path, err := graph.Resolve(current, c.Target)
	if err != nil {
		return err
	}
	if len(path) == 0 {
		fmt.Fprintf(appCtx.Stdout, "Schema is already at version %s; nothing to do.\n", c.Target)
		return nil
	}

	if err = executor.Run(ctx, path); err != nil {
		//nolint:wrapcheck // ExecutionError is informative on its own.
		return err
	}

	fmt.Fprintf(appCtx.Stdout, "Migrated schema from %s to %s (%d transitions applied).\n",
		current, c.Target, len(path))

	return nil
}
