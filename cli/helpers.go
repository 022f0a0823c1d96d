package cli

import (
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/gofrs/flock"

	actx "go.hackfix.me/stepwise/app/context"
	aerrors "go.hackfix.me/stepwise/app/errors"
	"go.hackfix.me/stepwise/db/queries"
	"go.hackfix.me/stepwise/migrate"
	"go.hackfix.me/stepwise/transitions"
)

// buildGraph assembles the version graph from the built-in transitions, the
// directories declared in the configuration file, and the given
// flag-supplied directories, in that order. The order decides duplicate
// precedence and path selection, so it must not be reshuffled.
func buildGraph(appCtx *actx.Context, dirs []string) (*migrate.Graph, error) {
	sources := []migrate.Source{transitions.Builtin()}
	if appCtx.Config != nil {
		for _, dir := range appCtx.Config.TransitionsDirs {
			sources = append(sources, migrate.NewDirSource(appCtx.FS, dir))
		}
	}
	for _, dir := range dirs {
		sources = append(sources, migrate.NewDirSource(appCtx.FS, dir))
	}

	//nolint:wrapcheck // RegistryError is informative on its own.
	return migrate.NewRegistry(appCtx.Logger, sources...).Load()
}

// currentVersion reads the recorded schema version. A nil version means the
// database is unversioned, either because it was never stamped or because the
// version record couldn't be read; the original cause is only worth a warning,
// since force-stamping is the sanctioned recovery either way.
func currentVersion(appCtx *actx.Context) *semver.Version {
	version, err := queries.SchemaVersion(appCtx.DB.NewContext(), appCtx.DB)
	if err != nil {
		appCtx.Logger.Warn("could not read the database schema version", "error", err)
		return nil
	}

	return version
}

// errNoCurrentVersion is returned by commands that cannot proceed without a
// readable schema version record.
func errNoCurrentVersion() error {
	return aerrors.NewWith(
		"cannot determine the current schema version; " +
			"force set it to the version of the server that created this schema")
}

// lockRun takes the advisory run lock, preventing two concurrent mutating
// runs from the same data directory. The returned function releases the lock.
func lockRun(appCtx *actx.Context) (func(), error) {
	if appCtx.DataDir == "" {
		return func() {}, nil
	}

	lockPath := filepath.Join(appCtx.DataDir, "stepwise.lock")
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, aerrors.NewWithCause("failed acquiring the run lock", err, "path", lockPath)
	}
	if !locked {
		return nil, aerrors.NewWith("another migration run is in progress", "path", lockPath)
	}

	return func() {
		//nolint:errcheck // The lock is released on process exit regardless.
		fl.Unlock()
	}, nil
}
