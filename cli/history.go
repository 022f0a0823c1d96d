package cli

import (
	"fmt"
	"time"

	actx "go.hackfix.me/stepwise/app/context"
	aerrors "go.hackfix.me/stepwise/app/errors"
	"go.hackfix.me/stepwise/db/queries"
)

// The History command displays the migration history in chronological order.
type History struct{}

// Run the history command.
func (c *History) Run(appCtx *actx.Context) error {
	entries, err := queries.MigrationLog(appCtx.DB.NewContext(), appCtx.DB)
	if err != nil {
		return aerrors.NewWithCause("failed reading the migration history", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(appCtx.Stdout, "No migrations have been applied yet.")
		return nil
	}

	data := make([][]string, len(entries))
	for i, e := range entries {
		from := "-"
		if e.From.Valid {
			from = e.From.V
		}
		data[i] = []string{
			e.AppliedAt.Format(time.RFC3339), from, e.To, e.Source, e.RunID,
		}
	}

	err = renderTable([]string{"APPLIED", "FROM", "TO", "SOURCE", "RUN"}, data, appCtx.Stdout)
	if err != nil {
		return aerrors.NewWithCause("failed rendering the migration history", err)
	}

	return nil
}
