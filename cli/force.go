package cli

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	actx "go.hackfix.me/stepwise/app/context"
	aerrors "go.hackfix.me/stepwise/app/errors"
	"go.hackfix.me/stepwise/migrate"
)

// The Force command writes the given version into the schema version record
// as a single atomic update, without invoking any transition. It exists to
// recover databases whose recorded schema version is known to be wrong or
// unsupported by normal migration.
type Force struct {
	Target *semver.Version `kong:"arg,type='version',help='Schema version to record.'"`
}

// Run the force command.
func (c *Force) Run(appCtx *actx.Context) error {
	unlock, err := lockRun(appCtx)
	if err != nil {
		return err
	}
	defer unlock()

	executor := migrate.NewExecutor(appCtx.DB, nil, appCtx.Logger)
	err = executor.Force(appCtx.DB.NewContext(), currentVersion(appCtx), c.Target)
	if err != nil {
		return aerrors.NewWithCause("failed force setting the schema version", err,
			"version", c.Target.String())
	}

	fmt.Fprintf(appCtx.Stdout, "Schema version set to %s.\n", c.Target)

	return nil
}
