// Package transitions is the compiled-in transition registry. Each release
// file declares the schema transitions shipped with that release; Builtin
// collects them in declaration order.
package transitions

import (
	"github.com/Masterminds/semver/v3"

	"go.hackfix.me/stepwise/migrate"
)

// Builtin returns the transition source compiled into the binary. It is
// always registered first, ahead of any operator-supplied directories.
func Builtin() migrate.Source {
	return builtinSource{}
}

type builtinSource struct{}

// Name implements the migrate.Source interface.
func (builtinSource) Name() string {
	return "builtin"
}

// Transitions implements the migrate.Source interface.
func (builtinSource) Transitions() ([]migrate.Transition, error) {
	var ts []migrate.Transition
	ts = append(ts, release112()...)
	ts = append(ts, release120()...)

	return ts, nil
}

func version(s string) *semver.Version {
	return semver.MustParse(s)
}
