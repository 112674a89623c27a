package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/cmd/sitebuilder/commands"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// .env files may feed ${VAR} references in the configuration and flag defaults.
	if _, err := config.LoadEnvFiles("."); err != nil {
		slog.Warn("Failed to load .env files", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	global := &commands.Global{Context: ctx, Logger: slog.Default(), Stdout: os.Stdout}
	parser, err := kong.New(cli,
		kong.Name("sitebuilder"),
		kong.Description("Static site and asset builder."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err != nil {
		slog.Error("Failed to initialize CLI", "error", err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	err = kctx.Run(global, cli)
	return errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
