// Package app wires the application together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/stepwise/app/config"
	actx "go.hackfix.me/stepwise/app/context"
	aerrors "go.hackfix.me/stepwise/app/errors"
	"go.hackfix.me/stepwise/blockstore"
	"go.hackfix.me/stepwise/cli"
	"go.hackfix.me/stepwise/db"
)

// App is the application.
type App struct {
	name string
	ctx  *actx.Context
	cli  *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application.
func New(name, configFilePath, dataDir string, opts ...Option) (*App, error) {
	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		TimeNow: time.Now,
		Version: actx.GetVersion(),
	}
	app := &App{name: name, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version)
	var err error
	app.cli, err = cli.New(ver, configFilePath, dataDir)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	cfg := config.New(app.ctx.FS, app.cli.ConfigFile)
	if err := cfg.Load(); err != nil {
		return err
	}
	app.ctx.Config = cfg
	app.cli.ApplyConfig(cfg)

	app.ctx.DataDir = app.cli.DataDir
	if err := app.ctx.FS.MkdirAll(app.cli.DataDir, 0o755); err != nil {
		return aerrors.NewWithCause("failed creating the data directory", err,
			"path", app.cli.DataDir)
	}

	// Resolve and validate the block storage configuration up front, so a
	// conflicting setup is rejected before any command touches the database.
	blockMode := app.cli.BlockStore.Mode
	if blockMode == "" {
		blockMode = string(blockstore.ModeDatabase)
	}
	app.ctx.BlockStore = blockstore.Config{
		Mode: blockstore.Mode(blockMode),
		Path: app.cli.BlockStore.Path,
	}
	if err := app.ctx.BlockStore.Validate(); err != nil {
		return err
	}

	if app.ctx.DB == nil {
		if err := app.openDB(); err != nil {
			return err
		}
	}

	return app.cli.Execute(app.ctx)
}

func (app *App) openDB() error {
	driver := db.Driver(app.cli.Database.Driver)
	if driver == "" {
		driver = db.DriverSQLite
	}

	dsn := app.cli.Database.DSN
	if dsn == "" {
		if driver != db.DriverSQLite {
			return aerrors.NewWith("a database connection string is required",
				"flag", "--db-dsn", "driver", string(driver))
		}
		dsn = filepath.Join(app.cli.DataDir, app.name+".db")
	}

	d, err := db.Open(app.ctx.Ctx, driver, dsn, app.ctx.TimeNow)
	if err != nil {
		return aerrors.NewWithCause("failed opening the database", err,
			"driver", string(driver))
	}
	app.ctx.DB = d

	return nil
}
