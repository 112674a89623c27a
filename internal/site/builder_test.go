package site

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/sass"
	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
)

var importRe = regexp.MustCompile(`@import\s+['"]([^'"]+)['"];`)

// inlineCompiler resolves @import statements through the load paths and
// inlines them; everything else passes through unchanged.
var inlineCompiler = sass.Func(func(_ context.Context, req sass.Request) (sass.Result, error) {
	r := sass.NewResolver(req.LoadPaths...)
	var failed error
	css := importRe.ReplaceAllStringFunc(req.Source, func(stmt string) string {
		name := importRe.FindStringSubmatch(stmt)[1]
		p, ok := r.Resolve(name, "")
		if !ok {
			failed = stderrors.New("can't find stylesheet to import: " + name)
			return ""
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			failed = err
		}
		return string(raw)
	})
	return sass.Result{CSS: css}, failed
})

var failingCompiler = sass.Func(func(context.Context, sass.Request) (sass.Result, error) {
	return sass.Result{}, stderrors.New("Undefined variable")
})

func write(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func read(t *testing.T, root, rel string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(raw)
}

func fixture(t *testing.T) (string, *config.Config) {
	t.Helper()
	root := t.TempDir()
	write(t, root, "src/index.html", "---\ntitle: Home\nlayout: base\n---\n<h1>{{ .title }}</h1>\n<p>{{ .site.name }}</p>\n")
	write(t, root, "src/about.md", "---\ntitle: About\nlayout: base.html\ntags: [nav]\n---\n# About {{ .title }}\n\nTeam: {{ range .team }}{{ . }}{{ end }}\n")
	write(t, root, "src/about.data.yaml", "team: [ada]\n")
	write(t, root, "src/posts/first.md", "---\nslug: hello\ntitle: Hello\npermalink: \"/blog/{{ .slug }}/\"\ntags: post\n---\nFirst post\n")
	write(t, root, "src/draft.html", "---\npermalink: false\ntitle: Draft\n---\n<p>draft</p>\n")
	write(t, root, "src/readme.txt", "not a template")
	write(t, root, "src/_includes/base.html", "---\nsiteTitle: Example\n---\n<!doctype html>\n<html>\n<head><title>{{ .title }} | {{ .siteTitle }}</title></head>\n<body>\n  {{ template \"nav.html\" . }}\n  {{ .content }}\n</body>\n</html>\n")
	write(t, root, "src/_includes/nav.html", `<nav>{{ range .collections.nav }}<a href="{{ url .url }}">{{ .data.title }}</a>{{ end }}</nav>`)
	write(t, root, "src/_data/site.yaml", "name: Sitebuilder\n")
	write(t, root, "src/css/main.scss", "@import 'partials/vars';\nbody { user-select: none; }\n")
	write(t, root, "src/css/partials/_vars.scss", ".vars { color: red; }\n")
	write(t, root, "src/img/logo.png", "\x89PNG\r\n\x1a\n")

	cfg := config.Default(root)
	cfg.Passthrough = map[string]string{"src/img": "img"}
	return root, cfg
}

func run(t *testing.T, b *Builder, targets ...string) (*taskgraph.Result, error) {
	t.Helper()
	plan, err := b.Graph().Plan()
	require.NoError(t, err)
	if len(targets) > 0 {
		plan, err = plan.Subset(targets...)
		require.NoError(t, err)
	}
	return (&taskgraph.Executor{}).Run(t.Context(), plan)
}

func TestBuildSite(t *testing.T) {
	root, cfg := fixture(t)
	b := New(Options{Config: cfg, Compiler: inlineCompiler, Now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)})

	res, err := run(t, b)
	require.NoError(t, err)
	require.Equal(t, taskgraph.StateSucceeded, res.States[NodePages])

	require.Equal(t,
		`<!doctype html><html><head><title>Home | Example</title></head><body><nav><a href="/about/">About</a></nav><h1>Home</h1><p>Sitebuilder</p></body></html>`,
		read(t, root, "dist/index.html"))

	about := read(t, root, "dist/about/index.html")
	require.Contains(t, about, `<title>About | Example</title>`)
	require.Contains(t, about, `<h1 id="about-about">About About</h1>`)
	require.Contains(t, about, `Team: ada`)

	require.Contains(t, read(t, root, "dist/blog/hello/index.html"), "<p>First post</p>")
	require.NoFileExists(t, filepath.Join(root, "dist", "draft", "index.html"))
	require.NoFileExists(t, filepath.Join(root, "dist", "readme.txt"))

	css := read(t, root, "dist/css/main.css")
	require.Contains(t, css, ".vars{color:red}")
	require.Contains(t, css, "-webkit-user-select:none")
	require.Contains(t, css, "-moz-user-select:none")
	require.NotContains(t, css, "\n")
	require.NoFileExists(t, filepath.Join(root, "dist", "css", "partials", "_vars.css"))

	require.Equal(t, "\x89PNG\r\n\x1a\n", read(t, root, "dist/img/logo.png"))

	written := b.Written()
	require.Contains(t, written, filepath.Join(root, "dist", "img", "logo.png"))
	require.Contains(t, written, filepath.Join(root, "dist", "css", "main.css"))
	require.Len(t, written, 5)
}

func TestBuildVarsAndCollections(t *testing.T) {
	root, cfg := fixture(t)
	write(t, root, "src/list.html", `{{ range .collections.all }}{{ .inputPath }};{{ end }}|{{ len .collections.post }}|{{ .build.production }}|{{ dateFormat "2006" .build.time }}`)
	cfg.HTML.Minify = new(bool)

	b := New(Options{Config: cfg, Compiler: inlineCompiler, Production: true, Now: time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)})
	_, err := run(t, b, NodePages)
	require.NoError(t, err)

	require.Equal(t, "./about.md;./draft.html;./index.html;./list.html;./posts/first.md;|1|true|2031", read(t, root, "dist/list/index.html"))
	require.NoFileExists(t, filepath.Join(root, "dist", "css", "main.css"), "styles not part of the pages target")
	require.NoFileExists(t, filepath.Join(root, "dist", "img", "logo.png"))
}

func TestCleanRemovesStaleOutput(t *testing.T) {
	root, cfg := fixture(t)
	write(t, root, "dist/stale.html", "old")
	cfg.Output.Clean = true

	_, err := run(t, New(Options{Config: cfg, Compiler: inlineCompiler}))
	require.NoError(t, err)
	require.NoFileExists(t, filepath.Join(root, "dist", "stale.html"))
	require.FileExists(t, filepath.Join(root, "dist", "index.html"))
}

func TestCleanDisabledKeepsOutput(t *testing.T) {
	root, cfg := fixture(t)
	write(t, root, "dist/stale.html", "old")

	_, err := run(t, New(Options{Config: cfg, Compiler: inlineCompiler}), NodePassthrough)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, "dist", "stale.html"))
	require.FileExists(t, filepath.Join(root, "dist", "img", "logo.png"))
}

func TestBuildIndentedSyntax(t *testing.T) {
	root, cfg := fixture(t)
	write(t, root, "src/css/indented.sass", "a\n  color: red\n")

	var mu sync.Mutex
	syntaxes := map[string]sass.Syntax{}
	compiler := sass.Func(func(_ context.Context, req sass.Request) (sass.Result, error) {
		mu.Lock()
		syntaxes[filepath.Base(req.Path)] = req.Syntax
		mu.Unlock()
		return sass.Result{CSS: "a { color: red; }\n"}, nil
	})

	_, err := run(t, New(Options{Config: cfg, Compiler: compiler}), NodeStyles)
	require.NoError(t, err)
	require.Equal(t, "a{color:red}", read(t, root, "dist/css/indented.css"))
	require.Equal(t, map[string]sass.Syntax{"main.scss": sass.SyntaxSCSS, "indented.sass": sass.SyntaxSass}, syntaxes)
}

// snapshot reads every file under dir keyed by its slash-separated relative path.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(raw)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestBuildIsDeterministic(t *testing.T) {
	root, cfg := fixture(t)
	cfg.Output.Clean = true
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := run(t, New(Options{Config: cfg, Compiler: inlineCompiler, Now: now}))
	require.NoError(t, err)
	first := snapshot(t, cfg.OutputDir())

	write(t, root, "dist/stale.html", "old")
	_, err = run(t, New(Options{Config: cfg, Compiler: inlineCompiler, Now: now}))
	require.NoError(t, err)
	second := snapshot(t, cfg.OutputDir())

	require.Len(t, first, 5)
	require.Equal(t, first, second)
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(t *testing.T, root string, cfg *config.Config)
		compiler sass.Compiler
		node     string
		category errors.ErrorCategory
	}{
		{
			name: "output collision",
			mutate: func(t *testing.T, root string, _ *config.Config) {
				write(t, root, "src/about/index.html", "dup")
			},
			node:     NodeScan,
			category: errors.CategoryValidation,
		},
		{
			name: "passthrough collides with page",
			mutate: func(t *testing.T, root string, cfg *config.Config) {
				write(t, root, "static/index.html", "x")
				cfg.Passthrough["static/index.html"] = "index.html"
			},
			node:     NodeScan,
			category: errors.CategoryValidation,
		},
		{
			name: "missing passthrough source",
			mutate: func(_ *testing.T, _ string, cfg *config.Config) {
				cfg.Passthrough["src/missing"] = "missing"
			},
			node:     NodeScan,
			category: errors.CategorySource,
		},
		{
			name: "layout cycle",
			mutate: func(t *testing.T, root string, _ *config.Config) {
				write(t, root, "src/_includes/a.html", "---\nlayout: b\n---\n{{ .content }}")
				write(t, root, "src/_includes/b.html", "---\nlayout: a\n---\n{{ .content }}")
				write(t, root, "src/loop.html", "---\nlayout: a\n---\nx")
			},
			node:     NodePages,
			category: errors.CategoryParse,
		},
		{
			name: "missing layout",
			mutate: func(t *testing.T, root string, _ *config.Config) {
				write(t, root, "src/lost.html", "---\nlayout: nowhere\n---\nx")
			},
			node:     NodePages,
			category: errors.CategoryParse,
		},
		{
			name: "template execution error",
			mutate: func(t *testing.T, root string, _ *config.Config) {
				write(t, root, "src/bad.html", "{{ index .title 5 }}")
			},
			node:     NodePages,
			category: errors.CategoryCompile,
		},
		{
			name: "broken data file",
			mutate: func(t *testing.T, root string, _ *config.Config) {
				write(t, root, "src/_data/broken.json", "{")
			},
			node:     NodeData,
			category: errors.CategoryParse,
		},
		{
			name:     "sass failure",
			mutate:   func(*testing.T, string, *config.Config) {},
			compiler: failingCompiler,
			node:     NodeStyles,
			category: errors.CategoryCompile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, cfg := fixture(t)
			tt.mutate(t, root, cfg)
			compiler := tt.compiler
			if compiler == nil {
				compiler = inlineCompiler
			}

			res, err := run(t, New(Options{Config: cfg, Compiler: compiler}))
			require.Error(t, err)

			var taskErr *taskgraph.TaskError
			require.True(t, stderrors.As(err, &taskErr), "got %v", err)
			require.Equal(t, tt.node, taskErr.Task)
			require.True(t, errors.IsCategory(err, tt.category), "got %v", err)
			require.Equal(t, taskgraph.StateFailed, res.States[tt.node])
		})
	}
}

func TestScanSkipsPassthroughRootsAndIncludes(t *testing.T) {
	root, cfg := fixture(t)
	write(t, root, "src/img/icon.html", "not a page")
	cfg.TemplateFormats = []string{"html", "md"}

	b := New(Options{Config: cfg, Compiler: inlineCompiler})
	_, err := run(t, b, NodeScan)
	require.NoError(t, err)

	m := b.Manifest()
	var rels []string
	for _, p := range m.Pages {
		rels = append(rels, p.Rel)
	}
	require.Equal(t, []string{"about.md", "draft.html", "index.html", "posts/first.md"}, rels)
	require.Empty(t, m.Styles, "scss not registered")
	require.Len(t, m.Passthrough, 2)

	owner, ok := m.Owner("img/icon.html")
	require.True(t, ok)
	require.Equal(t, "src/img/icon.html", owner)
	require.True(t, strings.HasSuffix(m.Passthrough[0].Source, filepath.Join("img", "icon.html")))
}
