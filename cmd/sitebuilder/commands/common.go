// Package commands implements the sitebuilder command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
)

// Global is shared state bound into every command.
type Global struct {
	Context context.Context
	Logger  *slog.Logger
	// Stdout receives user-facing output; logs go to the logger.
	Stdout io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuilder.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site or run a legacy pipeline target"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever sources change"`
	Graph   GraphCmd   `cmd:"" help:"Print a pipeline task graph (text, mermaid, dot, json)"`
	History HistoryCmd `cmd:"" help:"Show recorded builds"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; sets up the bootstrap logger.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// PipelineFlags select what to build.
type PipelineFlags struct {
	Pipeline   string `short:"p" help:"Pipeline to run (site, legacy)" default:"site" enum:"site,legacy"`
	Target     string `short:"t" help:"Target within the pipeline" default:"default"`
	Production bool   `help:"Production build: no source maps" env:"SITEBUILDER_PRODUCTION"`
}

func (f PipelineFlags) request(cfg *config.Config) build.Request {
	return build.Request{Config: cfg, Pipeline: f.Pipeline, Target: f.Target, Production: f.Production}
}

// loadConfig loads the configuration and replaces the bootstrap logger with
// one honoring the logging section.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = config.NewLogger(os.Stderr, cfg.Logging, root.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// openHistory opens the configured history store, or returns nil when
// history is disabled.
func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg.History.Path == "" {
		return nil, nil
	}
	store, err := history.Open(cfg.Path(cfg.History.Path))
	if err != nil {
		return nil, errors.FileSystemError("open history", cfg.History.Path, err)
	}
	return store, nil
}

func closeHistory(g *Global, store *history.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		g.Logger.Warn("Failed to close history", "error", err)
	}
}
