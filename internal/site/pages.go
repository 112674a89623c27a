package site

import (
	"context"
	"html/template"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/sitedata"
)

// pages renders every template with a permalink.
func (b *Builder) pages(ctx context.Context) error {
	ts, err := loadTemplates(b.cfg.IncludesDir(), funcMap(b.cfg.PathPrefix))
	if err != nil {
		return err
	}
	collections := b.collections()
	buildVars := b.buildVars()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency())
	rendered := 0
	for _, p := range b.manifest.Pages {
		if p.Output == "" {
			b.logger.Debug("Page not written (permalink false)", logfields.File(p.Rel))
			continue
		}
		rendered++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := b.renderPage(ts, p, collections, buildVars)
			if err != nil {
				return err
			}
			out, err = b.chain.Apply(gctx, p.Output, out)
			if err != nil {
				return err
			}
			if err := b.out.WriteFile(p.Output, out); err != nil {
				return fsError("write", b.out.Abs(p.Output), err)
			}
			b.logger.Debug("Page written", logfields.File(p.Rel), logfields.Output(p.Output))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	b.logger.Info("Pages rendered", logfields.Count(rendered))
	return nil
}

// renderPage applies the data cascade and renders the page through its layouts.
func (b *Builder) renderPage(ts *templateSet, p *Page, collections, buildVars map[string]any) ([]byte, error) {
	var chain []*include
	if name := p.Front.String("layout"); name != "" {
		var err error
		if chain, err = ts.layoutChain(name); err != nil {
			return nil, errors.ParseFailed(p.Input, err)
		}
	}

	// global < sibling data < layouts (outermost first) < page front matter
	data := sitedata.Merge(b.global, p.Sibling)
	for i := len(chain) - 1; i >= 0; i-- {
		data = sitedata.Merge(data, chain[i].front.Fields)
	}
	data = sitedata.Merge(data, p.Front.Fields)
	data["page"] = p.vars()
	data["collections"] = collections
	data["build"] = buildVars

	body := string(p.Front.Body)
	content := []byte(body)
	if strings.Contains(body, "{{") {
		t, err := ts.page("page:"+p.Rel, body)
		if err != nil {
			return nil, errors.ParseFailed(p.Input, err)
		}
		if content, err = execute(t, t.Name(), data); err != nil {
			return nil, errors.CompileFailed(p.Input, err)
		}
	}
	content, err := renderFormat(p.Format, content)
	if err != nil {
		return nil, errors.CompileFailed(p.Input, err)
	}

	if len(chain) == 0 {
		return content, nil
	}
	t, err := ts.page("page:"+p.Rel+":layouts", "")
	if err != nil {
		return nil, errors.ParseFailed(p.Input, err)
	}
	for _, layout := range chain {
		// #nosec G203 -- rendered page content is trusted site output
		data["content"] = template.HTML(content)
		if content, err = execute(t, layout.name, data); err != nil {
			return nil, errors.CompileFailed(layout.path, err)
		}
		if content, err = renderFormat(layout.format, content); err != nil {
			return nil, errors.CompileFailed(layout.path, err)
		}
	}
	return content, nil
}

// collections groups pages by tag. "all" holds every page not excluded with
// `excludeFromCollections: true`. Entries are ordered by input path.
func (b *Builder) collections() map[string]any {
	grouped := map[string][]map[string]any{}
	pages := append([]*Page(nil), b.manifest.Pages...)
	sort.Slice(pages, func(i, j int) bool { return pages[i].Rel < pages[j].Rel })

	for _, p := range pages {
		if excluded, _ := p.Front.Fields["excludeFromCollections"].(bool); excluded {
			continue
		}
		entry := map[string]any{
			"url":       p.URL,
			"inputPath": "./" + p.Rel,
			"fileSlug":  p.FileSlug(),
			"date":      p.Date,
			"data":      sitedata.Merge(p.Sibling, p.Front.Fields),
		}
		grouped["all"] = append(grouped["all"], entry)
		for _, tag := range p.Tags {
			grouped[tag] = append(grouped[tag], entry)
		}
	}

	out := make(map[string]any, len(grouped)+1)
	out["all"] = []map[string]any{}
	for k, v := range grouped {
		out[k] = v
	}
	return out
}

func (b *Builder) buildVars() map[string]any {
	vars := map[string]any{
		"production": b.production,
		"time":       b.now,
	}
	if info, ok := sitedata.ReadGitInfo(b.cfg.BaseDir); ok {
		vars["commit"] = info.Commit
		vars["shortCommit"] = info.ShortCommit
		vars["branch"] = info.Branch
	}
	return vars
}
