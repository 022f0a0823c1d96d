package cli

import (
	"fmt"
	"strconv"

	"github.com/Masterminds/semver/v3"

	actx "go.hackfix.me/stepwise/app/context"
	aerrors "go.hackfix.me/stepwise/app/errors"
)

// The Plan command resolves the migration path to a target version and
// displays it, without applying anything. Only the schema version record is
// read from the database.
type Plan struct {
	Target *semver.Version `kong:"arg,type='version',help='Target schema version.'"`

	TransitionsDir []string `kong:"help='Additional directory containing transition SQL scripts, registered after the built-in transitions. Can be repeated.'"`
}

// Run the plan command.
func (c *Plan) Run(appCtx *actx.Context) error {
	current := currentVersion(appCtx)
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

	fmt.Fprintf(appCtx.Stdout, "Migration path from %s to %s:\n", current, c.Target)
	data := make([][]string, len(path))
	for i, t := range path {
		data[i] = []string{
			strconv.Itoa(i + 1), t.From.String(), t.To.String(), t.Source,
		}
	}

	err = renderTable([]string{"#", "FROM", "TO", "SOURCE"}, data, appCtx.Stdout)
	if err != nil {
		return aerrors.NewWithCause("failed rendering the migration path", err)
	}

	return nil
}
