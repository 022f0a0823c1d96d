// Package context defines the application context shared by all commands.
package context

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/stepwise/app/config"
	"go.hackfix.me/stepwise/blockstore"
	"go.hackfix.me/stepwise/db"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx     context.Context // global context
	FS      vfs.FileSystem  // filesystem
	Logger  *slog.Logger    // global logger
	TimeNow func() time.Time

	DB         *db.DB
	Config     *config.Config
	BlockStore blockstore.Config
	DataDir    string

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Metadata
	Version string
}
