package commands

import (
	"context"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/sass"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	PipelineFlags `embed:""`

	Every    time.Duration `help:"Also rebuild on this interval (0 disables)" default:"0s"`
	Debounce time.Duration `help:"Quiet period after the last change before rebuilding" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory(g, store)

	timeout, err := cfg.SassTimeout()
	if err != nil {
		return err
	}
	compiler := sass.NewDartSass(cfg.Sass.Binary, timeout, g.Logger)
	defer func() { _ = compiler.Close() }()
	svc := build.NewService(g.Logger).WithHistory(store).WithCompiler(compiler)

	rebuild := func(ctx context.Context, _ string) error {
		// Reload so edits to the configuration apply to the next build.
		current, err := config.Load(root.Config)
		if err != nil {
			return err
		}
		_, err = svc.Run(ctx, w.request(current))
		return err
	}

	watcher := watch.New(watch.Options{
		Root:     cfg.BaseDir,
		Ignore:   watchIgnores(cfg),
		Debounce: w.Debounce,
		Every:    w.Every,
		Logger:   g.Logger,
	}, rebuild)
	return watcher.Run(g.Context)
}

// watchIgnores lists every path a build writes, so a build never triggers
// the next one. The project root itself is never ignored.
func watchIgnores(cfg *config.Config) []string {
	lg := cfg.Legacy
	paths := []string{cfg.OutputDir(), cfg.Path(lg.Scripts.Output), cfg.Path(lg.Fonts.To)}
	if lg.Styles.Output != "" {
		paths = append(paths, filepath.Dir(cfg.Path(lg.Styles.Output)))
	}
	for _, dir := range lg.Clean {
		paths = append(paths, cfg.Path(dir))
	}
	if cfg.History.Path != "" {
		db := cfg.Path(cfg.History.Path)
		paths = append(paths, db, db+"-journal", db+"-wal", db+"-shm")
	}

	root := filepath.Clean(cfg.BaseDir)
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if p == root || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
