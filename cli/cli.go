// Package cli defines the command line interface of stepwise.
package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/stepwise/app/config"
	actx "go.hackfix.me/stepwise/app/context"
)

// CLI is the command line interface of stepwise.
type CLI struct {
	Migrate Migrate `kong:"cmd,help='Migrate the database schema to a target version.'"`
	Plan    Plan    `kong:"cmd,help='Resolve and display the migration path to a target version, without applying it.'"`
	Force   Force   `kong:"cmd,help='Set the schema version record directly, without applying any transitions.'"`
	Current Current `kong:"cmd,help='Display the current schema version.'"`
	History History `kong:"cmd,help='Display the migration history.'"`

	Database struct {
		Driver string `help:"Database driver; either sqlite or postgres. Default: sqlite"`
		DSN    string `help:"Database connection string. Default: <data-dir>/stepwise.db (sqlite only)"`
	} `embed:"" prefix:"db-"`
	BlockStore struct {
		Mode string `help:"Block storage mode; either database or filesystem. Default: database"`
		Path string `help:"Root path of file-based block storage. Required in filesystem mode."`
	} `embed:"" prefix:"block-store-"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: I'm deliberately not using kong.ConfigFlag or its support for reading
	// values from configuration files, since I want to manage configuration
	// independently from the CLI.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the stepwise configuration file.'"`
	DataDir    string           `kong:"default='${dataDir}',help='Path to the directory where stepwise data is stored.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(version, configFilePath, dataDir string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("stepwise"),
		kong.Description("Resolve and apply database schema-version migrations."),
		kong.UsageOnError(),
		kong.DefaultEnvars("STEPWISE"),
		kong.NamedMapper("version", &VersionMapper{}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"dataDir":    dataDir,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they
// weren't already set.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	if c.Database.Driver == "" && cfg.Database.Driver.Valid {
		c.Database.Driver = cfg.Database.Driver.V
	}
	if c.Database.DSN == "" && cfg.Database.DSN.Valid {
		c.Database.DSN = cfg.Database.DSN.V
	}
	if c.BlockStore.Mode == "" && cfg.BlockStore.Mode.Valid {
		c.BlockStore.Mode = cfg.BlockStore.Mode.V
	}
	if c.BlockStore.Path == "" && cfg.BlockStore.Path.Valid {
		c.BlockStore.Path = cfg.BlockStore.Path.V
	}
}
