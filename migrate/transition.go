// Package migrate resolves and applies schema-version transitions. It builds a
// graph of versioned edges collected from pluggable sources, finds a
// deterministic path between the recorded and the requested schema version,
// and applies the path one transaction at a time.
package migrate

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"go.hackfix.me/stepwise/blockstore"
	"go.hackfix.me/stepwise/db/types"
)

// Operation performs the actual schema change of a single transition. It runs
// within an open transaction, and signals failure by returning an error, which
// rolls the transaction back.
type Operation func(ctx context.Context, q types.Querier, blocks blockstore.Store) error

// Transition is a directed edge of the version graph: applying it moves the
// database schema from version From to version To. Transitions are immutable
// once registered.
type Transition struct {
	From   *semver.Version
	To     *semver.Version
	Apply  Operation
	Source string // origin of the transition, for diagnostics
}

// String implements the fmt.Stringer interface.
func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s", t.From, t.To)
}

// Source yields transition declarations. Implementations exist for the
// compiled-in registry and for operator-supplied directories of SQL scripts;
// anything able to produce a list of transitions can serve.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Transitions returns the source's transition declarations, in
	// declaration order. The order is load-bearing: it decides duplicate
	// precedence and path selection ties.
	Transitions() ([]Transition, error)
}
