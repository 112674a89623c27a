package site

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/fsutil"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/sass"
	"git.home.luguber.info/inful/sitebuilder/internal/sitedata"
	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
	"git.home.luguber.info/inful/sitebuilder/internal/transform"
)

// Pipeline is the name the build service registers the builder under.
const Pipeline = "site"

// Node names of the builder graph.
const (
	NodeClean       = "clean"
	NodeScan        = "scan"
	NodeData        = "data"
	NodePassthrough = "passthrough"
	NodeStyles      = "styles"
	NodePages       = "pages"
)

// Targets lists the runnable targets in display order.
var Targets = []string{"build", "default", NodePassthrough, NodeStyles, NodePages}

// Options configures a Builder.
type Options struct {
	Config     *config.Config
	Compiler   sass.Compiler
	Production bool
	Logger     *slog.Logger
	// Now is the build time exposed to templates; zero means time.Now.
	Now time.Time
}

// Builder renders one site. A Builder is single use: create a new one per build.
type Builder struct {
	cfg        *config.Config
	compiler   sass.Compiler
	production bool
	logger     *slog.Logger
	now        time.Time

	out   *fsutil.Output
	chain *transform.Chain

	// Written by scan and data; read by later stages once those completed.
	manifest *Manifest
	global   map[string]any

	tmplMu sync.Mutex
}

// New returns a Builder for opts.
func New(opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	cfg := opts.Config

	chain := transform.NewChain()
	if cfg.HTMLMinify() {
		chain.Add(transform.HTMLMinify{})
	}
	chain.Add(transform.NewPostCSS(cfg.CSS.Prefixes, cfg.CSSMinify()))

	return &Builder{
		cfg:        cfg,
		compiler:   opts.Compiler,
		production: opts.Production,
		logger:     logger.With(logfields.Pipeline(Pipeline)),
		now:        now,
		out:        fsutil.NewOutput(cfg.OutputDir()),
		chain:      chain,
	}
}

// Name implements the build service pipeline contract.
func (b *Builder) Name() string { return Pipeline }

// Written returns the absolute paths of every file the build wrote.
func (b *Builder) Written() []string { return b.out.Files() }

// Manifest returns the scan result, or nil before scan ran.
func (b *Builder) Manifest() *Manifest { return b.manifest }

// Graph returns the task graph of the build.
func (b *Builder) Graph() *taskgraph.Graph {
	g := taskgraph.New()
	g.Task(NodeClean, b.clean)
	g.Task(NodeScan, b.scan)
	g.Task(NodeData, b.loadData)
	g.Task(NodePassthrough, b.passthrough).After(NodeClean, NodeScan)
	g.Task(NodeStyles, b.styles).After(NodeClean, NodeScan)
	g.Task(NodePages, b.pages).After(NodeClean, NodeScan, NodeData)
	g.Group("build", NodePassthrough, NodeStyles, NodePages)
	g.Group("default", "build")
	return g
}

func (b *Builder) concurrency() int {
	if b.cfg.Build.Concurrency > 0 {
		return b.cfg.Build.Concurrency
	}
	return runtime.NumCPU()
}

func (b *Builder) clean(ctx context.Context) error {
	if !b.cfg.Output.Clean {
		b.logger.Debug("Output clean disabled")
		return nil
	}
	dir := b.cfg.OutputDir()
	b.logger.Info("Cleaning output directory", logfields.Path(dir))
	if err := fsutil.CleanDir(dir); err != nil {
		return fsError("clean", dir, err)
	}
	return ctx.Err()
}

func (b *Builder) loadData(ctx context.Context) error {
	data, err := sitedata.LoadDir(b.cfg.DataDir())
	if err != nil {
		return err
	}
	b.global = data
	b.logger.Debug("Global data loaded", logfields.Count(len(data)))
	return ctx.Err()
}
