package legacy

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/css"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// styles concatenates the configured style sheets in order, prefixes and
// minifies them and writes the bundle. Outside production a source map is
// written next to the bundle and linked from it.
func (r *Runner) styles(ctx context.Context) error {
	cfg := r.cfg.Legacy.Styles
	if len(cfg.Sources) == 0 {
		r.logger.Debug("No style sheets configured")
		return nil
	}
	outAbs := r.cfg.Path(cfg.Output)
	outDir := filepath.Dir(outAbs)

	proc := css.Processor{Prefixer: css.NewPrefixer(r.cfg.CSS.Prefixes), Minify: r.cfg.CSSMinify()}
	bundle := css.NewBundle(path.Base(cfg.Output))
	for _, src := range cfg.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs := r.cfg.Path(src)
		if err := requireSource(abs, src); err != nil {
			return err
		}
		// #nosec G304 -- configured project path
		raw, err := os.ReadFile(abs)
		if err != nil {
			return errors.FileSystemError("read", src, err)
		}
		out, err := proc.Process(raw)
		if err != nil {
			return errors.TransformFailed("postcss", cfg.Output, err)
		}
		bundle.Add(abs, string(raw), out)
	}

	content := bundle.Bytes()
	if !r.production {
		m := bundle.Map(func(source string) string {
			rel, err := filepath.Rel(outDir, source)
			if err != nil {
				return source
			}
			return filepath.ToSlash(rel)
		})
		raw, err := m.JSON()
		if err != nil {
			return errors.InternalError("encode source map", err)
		}
		mapRel := cfg.Output + ".map"
		if err := r.out.WriteFile(mapRel, raw); err != nil {
			return errors.FileSystemError("write", mapRel, err)
		}
		content = append(append([]byte(nil), content...), css.Comment(path.Base(mapRel))...)
	}
	if err := r.out.WriteFile(cfg.Output, content); err != nil {
		return errors.FileSystemError("write", cfg.Output, err)
	}
	r.logger.Info("Style bundle written", logfields.Output(cfg.Output), logfields.Count(len(cfg.Sources)))
	return nil
}

func requireSource(abs, display string) error {
	if _, err := os.Stat(abs); err != nil {
		return errors.MissingSource(display)
	}
	return nil
}
