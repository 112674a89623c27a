package legacy

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// scriptFile is a gathered script and its path below the output directory.
type scriptFile struct {
	source string // absolute
	rel    string // output directory relative, slash separated
}

// gatherScripts expands the configured sources in order. Literal paths must
// exist; glob patterns may match nothing. Each file keeps its path relative to
// the static part of the pattern it came from (the directory of a literal).
func (r *Runner) gatherScripts() ([]scriptFile, error) {
	var files []scriptFile
	claimed := map[string]string{}
	add := func(src, rel string) error {
		if prev, ok := claimed[rel]; ok {
			if prev == src {
				return nil
			}
			return errors.OutputCollision(path.Join(r.cfg.Legacy.Scripts.Output, rel), prev, src)
		}
		claimed[rel] = src
		files = append(files, scriptFile{source: src, rel: rel})
		return nil
	}

	for _, entry := range r.cfg.Legacy.Scripts.Sources {
		pattern := filepath.ToSlash(entry)
		base, glob := doublestar.SplitPattern(pattern)
		if glob == "" || !hasMeta(glob) {
			abs := r.cfg.Path(pattern)
			info, err := os.Stat(abs)
			if err != nil || info.IsDir() {
				return nil, errors.MissingSource(entry)
			}
			if err := add(abs, path.Base(pattern)); err != nil {
				return nil, err
			}
			continue
		}

		root := r.cfg.Path(base)
		if _, err := os.Stat(root); err != nil {
			r.logger.Debug("Script glob base missing", logfields.Path(base))
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(root), glob, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.ValidationFailed("legacy.scripts.sources", err.Error())
		}
		sort.Strings(matches)
		for _, m := range matches {
			if err := add(filepath.Join(root, filepath.FromSlash(m)), m); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

func hasMeta(p string) bool {
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// scripts copies every gathered script into the output directory, or
// concatenates them when a bundle name is configured.
func (r *Runner) scripts(ctx context.Context) error {
	cfg := r.cfg.Legacy.Scripts
	files, err := r.gatherScripts()
	if err != nil {
		return err
	}

	if cfg.Concat != "" {
		var buf bytes.Buffer
		for i, f := range files {
			// #nosec G304 -- gathered from configured project paths
			raw, err := os.ReadFile(f.source)
			if err != nil {
				return errors.FileSystemError("read", f.source, err)
			}
			if i > 0 {
				buf.WriteByte('\n')
			}
			buf.Write(raw)
		}
		out := path.Join(cfg.Output, cfg.Concat)
		if err := r.out.WriteFile(out, buf.Bytes()); err != nil {
			return errors.FileSystemError("write", out, err)
		}
		r.logger.Info("Scripts concatenated", logfields.Output(out), logfields.Count(len(files)))
		return nil
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := path.Join(cfg.Output, f.rel)
		if err := r.out.CopyFile(f.source, out); err != nil {
			return errors.FileSystemError("copy", f.source, err)
		}
	}
	r.logger.Info("Scripts copied", logfields.Output(cfg.Output), logfields.Count(len(files)))
	return nil
}
