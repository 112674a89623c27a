package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

// include is a file from the includes directory. Every include is a named
// template; includes used as `layout` wrap page content.
type include struct {
	name   string // includes relative, slash separated
	path   string // absolute
	format string
	front  frontmatter.Document
}

// templateSet holds the parsed includes. Pages render in clones of base.
type templateSet struct {
	mu       sync.Mutex
	base     *template.Template
	includes map[string]*include
}

func loadTemplates(dir string, funcs template.FuncMap) (*templateSet, error) {
	ts := &templateSet{
		base:     template.New("").Funcs(funcs),
		includes: map[string]*include{},
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ts, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && !strings.HasPrefix(d.Name(), ".") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fsError("walk", dir, err)
	}
	sort.Strings(files)

	for _, p := range files {
		rel, _ := filepath.Rel(dir, p)
		name := filepath.ToSlash(rel)
		// #nosec G304 -- p comes from walking the includes directory
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fsError("read", p, err)
		}
		doc, err := frontmatter.Parse(raw)
		if err != nil {
			return nil, errors.ParseFailed(p, err)
		}
		if _, err := ts.base.New(name).Parse(string(doc.Body)); err != nil {
			return nil, errors.ParseFailed(p, err)
		}
		ts.includes[name] = &include{
			name:   name,
			path:   p,
			format: strings.TrimPrefix(strings.ToLower(path.Ext(name)), "."),
			front:  doc,
		}
	}
	return ts, nil
}

// layout finds the include a `layout` value names, with or without extension.
func (ts *templateSet) layout(name string) (*include, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	for _, candidate := range []string{name, name + ".html", name + ".md", "layouts/" + name, "layouts/" + name + ".html"} {
		if inc, ok := ts.includes[candidate]; ok {
			return inc, true
		}
	}
	return nil, false
}

// layoutChain follows `layout` references starting from first, innermost
// layout first.
func (ts *templateSet) layoutChain(first string) ([]*include, error) {
	var chain []*include
	seen := map[string]bool{}
	trail := []string{}
	for name := first; name != ""; {
		inc, ok := ts.layout(name)
		if !ok {
			return nil, fmt.Errorf("layout %q not found in includes", name)
		}
		trail = append(trail, inc.name)
		if seen[inc.name] {
			return nil, fmt.Errorf("layout cycle: %s", strings.Join(trail, " -> "))
		}
		seen[inc.name] = true
		chain = append(chain, inc)
		name = inc.front.String("layout")
	}
	return chain, nil
}

// page parses body as a page template in a private clone of the includes.
func (ts *templateSet) page(name, body string) (*template.Template, error) {
	ts.mu.Lock()
	clone, err := ts.base.Clone()
	ts.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return clone.New(name).Parse(body)
}

func execute(t *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderFormat(format string, content []byte) ([]byte, error) {
	if format == "md" {
		return markdown.Render(content)
	}
	return content, nil
}
