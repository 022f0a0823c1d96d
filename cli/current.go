package cli

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	actx "go.hackfix.me/stepwise/app/context"
)

// The Current command displays the current schema version without mutating
// any state.
type Current struct{}

// Run the current command.
func (c *Current) Run(appCtx *actx.Context) error {
	printCurrentVersion(appCtx, currentVersion(appCtx))
	return nil
}

func printCurrentVersion(appCtx *actx.Context, version *semver.Version) {
	if version == nil {
		fmt.Fprintln(appCtx.Stdout, "The database schema is unversioned.")
		return
	}
	fmt.Fprintf(appCtx.Stdout, "Current schema version: %s\n", version)
}
