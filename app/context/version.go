package context

import "runtime/debug"

// GetVersion returns the application version recorded in the build info, or
// "(devel)" for builds without version control metadata.
func GetVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}

	return info.Main.Version
}
