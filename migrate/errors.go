package migrate

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// RegistryError indicates a malformed transition source. No partial registry
// is ever used: a single bad source fails the whole run before the database is
// touched.
type RegistryError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	return fmt.Sprintf("invalid transition source %q: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegistryError) Unwrap() error {
	return e.Err
}

// PathNotFoundError indicates that no sequence of registered transitions leads
// from the current schema version to the target. It is raised before any
// database interaction, so it is always safe to re-run after registering the
// missing transitions.
type PathNotFoundError struct {
	Current *semver.Version
	Target  *semver.Version
}

// Error implements the error interface.
func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("no migration path from %s to %s", e.Current, e.Target)
}

// ExecutionError indicates that a transition's operation failed while being
// applied. The recorded schema version reflects the last transition that
// committed successfully, so re-running with the same target resumes from
// there.
type ExecutionError struct {
	Transition Transition
	Err        error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("migration %s failed: %v", e.Transition, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}
