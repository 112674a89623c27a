// Package legacy implements the task-based asset pipeline: clean, copy fonts,
// bundle style sheets and copy scripts, composed into targets.
package legacy

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/fsutil"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
)

// Pipeline is the name the build service registers the legacy pipeline under.
const Pipeline = "legacy"

// Task names.
const (
	TaskClean  = "clean"
	TaskFonts  = "css:fonts"
	TaskStyles = "css:styles"
	TaskJS     = "js"
)

// Targets lists the runnable targets in display order.
var Targets = []string{"build", "default", "clean", "css", "js"}

// Options configures a Runner.
type Options struct {
	Config     *config.Config
	Production bool
	Logger     *slog.Logger
}

// Runner executes legacy pipeline tasks. Create one per build.
type Runner struct {
	cfg        *config.Config
	production bool
	logger     *slog.Logger
	out        *fsutil.Output
}

// New returns a Runner for opts.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:        opts.Config,
		production: opts.Production,
		logger:     logger.With(logfields.Pipeline(Pipeline)),
		out:        fsutil.NewOutput(opts.Config.BaseDir),
	}
}

// Name implements the build service pipeline contract.
func (r *Runner) Name() string { return Pipeline }

// Written returns the absolute paths of every file the run wrote.
func (r *Runner) Written() []string { return r.out.Files() }

// Graph returns the task graph for target. Only the full build orders the
// other tasks after clean; the css and js targets run on their own.
func (r *Runner) Graph(target string) (*taskgraph.Graph, error) {
	g := taskgraph.New()
	switch target {
	case TaskClean:
		g.Task(TaskClean, r.clean)
	case "css":
		g.Task(TaskFonts, r.fonts)
		g.Task(TaskStyles, r.styles)
		g.Group("css", TaskFonts, TaskStyles)
	case TaskJS:
		g.Task(TaskJS, r.scripts)
	case "", "build", "default":
		g.Task(TaskClean, r.clean)
		g.Task(TaskFonts, r.fonts).After(TaskClean)
		g.Task(TaskStyles, r.styles).After(TaskClean)
		g.Group("css", TaskFonts, TaskStyles)
		g.Task(TaskJS, r.scripts).After(TaskClean)
		g.Group("build", "css", TaskJS)
		g.Group("default", "build")
	default:
		return nil, errors.ValidationFailed("target", fmt.Sprintf("unknown %s target %q", Pipeline, target))
	}
	return g, nil
}

func (r *Runner) clean(ctx context.Context) error {
	for _, dir := range r.cfg.Legacy.Clean {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs := r.cfg.Path(dir)
		if err := fsutil.CleanDir(abs); err != nil {
			return errors.FileSystemError("clean", abs, err)
		}
		r.logger.Debug("Cleaned", logfields.Path(dir))
	}
	r.logger.Info("Clean complete", logfields.Count(len(r.cfg.Legacy.Clean)))
	return nil
}

func (r *Runner) fonts(ctx context.Context) error {
	f := r.cfg.Legacy.Fonts
	if f.From == "" {
		r.logger.Debug("No font directory configured")
		return nil
	}
	if err := requireSource(r.cfg.Path(f.From), f.From); err != nil {
		return err
	}
	if err := r.out.CopyTree(r.cfg.Path(f.From), f.To); err != nil {
		return errors.FileSystemError("copy", f.From, err)
	}
	r.logger.Info("Fonts copied", logfields.Path(f.From), logfields.Output(f.To))
	return ctx.Err()
}
