package site

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/sass"
)

// loadPaths are the import search directories after the entry's own
// directory: the includes directory, then the configured library paths.
func (b *Builder) loadPaths() []string {
	paths := []string{b.cfg.IncludesDir()}
	for _, p := range b.cfg.Sass.LoadPaths {
		paths = append(paths, b.cfg.Path(p))
	}
	return paths
}

// styles compiles every Sass entry point concurrently.
func (b *Builder) styles(ctx context.Context) error {
	if len(b.manifest.Styles) == 0 {
		return nil
	}
	if b.compiler == nil {
		return errors.InternalError("no sass compiler configured", nil)
	}

	loadPaths := b.loadPaths()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency())
	for _, s := range b.manifest.Styles {
		g.Go(func() error {
			return b.compileStyle(gctx, s, loadPaths)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	b.logger.Info("Styles compiled", logfields.Count(len(b.manifest.Styles)))
	return nil
}

func (b *Builder) compileStyle(ctx context.Context, s Style, loadPaths []string) error {
	// #nosec G304 -- s.Source comes from walking the input directory
	src, err := os.ReadFile(s.Source)
	if err != nil {
		return fsError("read", s.Source, err)
	}

	res, err := b.compiler.Compile(ctx, sass.Request{
		Path:      s.Source,
		Source:    string(src),
		Syntax:    sass.SyntaxOf(s.Source),
		LoadPaths: append([]string{filepath.Dir(s.Source)}, loadPaths...),
		Style:     sass.Style(b.cfg.Sass.Style),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.CompileFailed(s.Source, err)
	}

	out, err := b.chain.Apply(ctx, s.Output, []byte(res.CSS))
	if err != nil {
		return err
	}
	if err := b.out.WriteFile(s.Output, out); err != nil {
		return fsError("write", b.out.Abs(s.Output), err)
	}
	b.logger.Debug("Style written", logfields.File(s.Rel), logfields.Output(s.Output))
	return nil
}
