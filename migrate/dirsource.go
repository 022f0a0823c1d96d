package migrate

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/stepwise/blockstore"
	"go.hackfix.me/stepwise/db/types"
)

// DirSource collects transitions from a directory of SQL script files named
// `<from>_to_<to>.sql`, e.g. `1.1.0_to_1.1.1.sql`. Each file contributes a
// single transition whose operation executes the script. Declaration order
// within the directory is lexical filename order.
//
// NOTE: Scripts are sent to the database verbatim as a single statement
// batch: they bind no arguments and no placeholder rewriting is applied, so
// a bare ? keeps its database-specific meaning. For PostgreSQL, running a
// script with multiple statements requires the simple query protocol
// (`default_query_exec_mode=simple_protocol` in the DSN).
type DirSource struct {
	fs   vfs.FileSystem
	path string
}

const scriptSuffix = ".sql"

var _ Source = (*DirSource)(nil)

// NewDirSource creates a transition source over the given directory.
func NewDirSource(fs vfs.FileSystem, path string) *DirSource {
	return &DirSource{fs: fs, path: path}
}

// Name implements the Source interface.
func (s *DirSource) Name() string {
	return s.path
}

// Transitions implements the Source interface. Any file with the .sql suffix
// that doesn't follow the naming scheme, or that can't be read, fails the
// whole source.
func (s *DirSource) Transitions() ([]Transition, error) {
	entries, err := vfs.ReadDir(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed reading transitions directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var transitions []Transition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), scriptSuffix) {
			continue
		}

		from, to, err := parseScriptName(entry.Name())
		if err != nil {
			return nil, err
		}

		scriptPath := filepath.Join(s.path, entry.Name())
		script, err := vfs.ReadFile(s.fs, scriptPath)
		if err != nil {
			return nil, fmt.Errorf("failed reading transition script %q: %w", scriptPath, err)
		}

		transitions = append(transitions, Transition{
			From:   from,
			To:     to,
			Source: scriptPath,
			Apply:  scriptOperation(string(script)),
		})
	}

	return transitions, nil
}

func parseScriptName(name string) (from, to *semver.Version, err error) {
	base := strings.TrimSuffix(name, scriptSuffix)
	fromStr, toStr, found := strings.Cut(base, "_to_")
	if !found {
		return nil, nil, fmt.Errorf(
			"invalid transition script name %q: expected <from>_to_<to>%s", name, scriptSuffix)
	}

	if from, err = semver.StrictNewVersion(fromStr); err != nil {
		return nil, nil, fmt.Errorf(
			"invalid from version in script name %q: %w", name, err)
	}
	if to, err = semver.StrictNewVersion(toStr); err != nil {
		return nil, nil, fmt.Errorf(
			"invalid to version in script name %q: %w", name, err)
	}

	return from, to, nil
}

func scriptOperation(script string) Operation {
	return func(ctx context.Context, q types.Querier, _ blockstore.Store) error {
		//nolint:wrapcheck // The executor wraps operation errors.
		_, err := q.ExecRawContext(ctx, script)
		return err
	}
}
