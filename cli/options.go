package cli

import (
	"fmt"
	"reflect"

	"github.com/Masterminds/semver/v3"
	"github.com/alecthomas/kong"
)

// VersionMapper parses schema version arguments. Versions must have exactly
// the major.minor.patch form; they are compared only for equality, never
// ordered.
type VersionMapper struct{}

var _ kong.Mapper = (*VersionMapper)(nil)

// Decode implements the kong.Mapper interface.
func (vm VersionMapper) Decode(kctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	err := kctx.Scan.PopValueInto("version", &value)
	if err != nil {
		return err
	}

	version, err := semver.StrictNewVersion(value)
	if err != nil {
		return fmt.Errorf("invalid schema version %q: %w", value, err)
	}

	target.Set(reflect.ValueOf(version))

	return nil
}
