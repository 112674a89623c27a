package site

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/fsutil"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/sitedata"
)

// Copy is one passthrough file.
type Copy struct {
	Source string // absolute
	Output string // output relative, slash separated
}

// Style is one Sass entry point.
type Style struct {
	Source string // absolute
	Rel    string // input relative, slash separated
	Output string
}

// Manifest is the classified source tree.
type Manifest struct {
	Pages       []*Page
	Styles      []Style
	Passthrough []Copy
	// Ignored counts input files that are neither templates nor data.
	Ignored int

	outputs map[string]string // output path -> source that claims it
}

// Owner returns the source that writes output, if any.
func (m *Manifest) Owner(output string) (string, bool) {
	src, ok := m.outputs[output]
	return src, ok
}

func (m *Manifest) claim(output, source string) error {
	if prev, ok := m.outputs[output]; ok {
		return errors.OutputCollision(output, prev, source)
	}
	m.outputs[output] = source
	return nil
}

func (b *Builder) scan(ctx context.Context) error {
	m := &Manifest{outputs: map[string]string{}}

	roots, err := b.expandPassthrough(m)
	if err != nil {
		return err
	}

	input := b.cfg.InputDir()
	if _, err := os.Stat(input); err != nil {
		return errors.MissingSource(input)
	}
	skipDirs := map[string]bool{
		filepath.Clean(b.cfg.IncludesDir()): true,
		filepath.Clean(b.cfg.DataDir()):     true,
		filepath.Clean(b.cfg.OutputDir()):   true,
	}

	var files []string
	err = filepath.WalkDir(input, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != input && (strings.HasPrefix(name, ".") || name == "node_modules" || skipDirs[filepath.Clean(p)] || roots[filepath.Clean(p)]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() || roots[filepath.Clean(p)] {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return fsError("walk", input, err)
	}
	sort.Strings(files)

	for _, p := range files {
		rel, _ := filepath.Rel(input, p)
		rel = filepath.ToSlash(rel)
		if err := b.classify(m, p, rel); err != nil {
			return err
		}
	}

	b.manifest = m
	b.logger.Info("Source tree scanned",
		logfields.Count(len(m.Pages)),
		"styles", len(m.Styles),
		"passthrough", len(m.Passthrough),
		"ignored", m.Ignored)
	return nil
}

func (b *Builder) classify(m *Manifest, abs, rel string) error {
	name := path.Base(rel)
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	stem := strings.TrimSuffix(name, path.Ext(name))

	if sitedata.IsDataFile(name) && strings.HasSuffix(stem, ".data") {
		return nil
	}

	switch ext {
	case "html", "md":
		if !b.cfg.HasTemplateFormat(ext) {
			break
		}
		page, err := b.loadPage(abs, rel, ext)
		if err != nil {
			return err
		}
		if page.Output != "" {
			if err := m.claim(page.Output, rel); err != nil {
				return err
			}
		}
		m.Pages = append(m.Pages, page)
		return nil
	case "scss", "sass":
		if !b.cfg.HasTemplateFormat(ext) {
			break
		}
		if strings.HasPrefix(name, "_") {
			return nil
		}
		out := strings.TrimSuffix(rel, path.Ext(rel)) + ".css"
		if err := m.claim(out, rel); err != nil {
			return err
		}
		m.Styles = append(m.Styles, Style{Source: abs, Rel: rel, Output: out})
		return nil
	}
	m.Ignored++
	return nil
}

func (b *Builder) loadPage(abs, rel, format string) (*Page, error) {
	// #nosec G304 -- abs comes from walking the input directory
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fsError("read", abs, err)
	}
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, errors.ParseFailed(abs, err)
	}
	sibling, err := sitedata.LoadSibling(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fsError("stat", abs, err)
	}

	p := &Page{
		Input:   abs,
		Rel:     rel,
		Format:  format,
		Front:   doc,
		Sibling: sibling,
		Date:    pageDate(doc.Fields["date"], info.ModTime()),
		Tags:    tagsOf(doc.Fields["tags"]),
	}
	p.Output, err = resolvePermalink(rel, doc, sitedata.Merge(sibling, doc.Fields))
	if err != nil {
		return nil, errors.ParseFailed(abs, err)
	}
	p.URL = outputURL(p.Output)
	return p, nil
}

// expandPassthrough resolves every passthrough entry and returns the set of
// absolute source roots so the walk can skip them.
func (b *Builder) expandPassthrough(m *Manifest) (map[string]bool, error) {
	roots := map[string]bool{}
	sources := make([]string, 0, len(b.cfg.Passthrough))
	for src := range b.cfg.Passthrough {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		dst := path.Clean(filepath.ToSlash(b.cfg.Passthrough[src]))
		abs := b.cfg.Path(src)
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.MissingSource(src)
		}
		roots[filepath.Clean(abs)] = true

		if !info.IsDir() {
			if err := m.claim(dst, src); err != nil {
				return nil, err
			}
			m.Passthrough = append(m.Passthrough, Copy{Source: abs, Output: dst})
			continue
		}
		files, err := fsutil.WalkFiles(abs)
		if err != nil {
			return nil, fsError("walk", abs, err)
		}
		for _, f := range files {
			out := path.Join(dst, f)
			if err := m.claim(out, path.Join(src, f)); err != nil {
				return nil, err
			}
			m.Passthrough = append(m.Passthrough, Copy{Source: filepath.Join(abs, filepath.FromSlash(f)), Output: out})
		}
	}
	return roots, nil
}

func fsError(op, p string, err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.FileSystemError(op, p, err)
}
