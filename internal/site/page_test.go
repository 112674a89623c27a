package site

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

func TestResolvePermalink(t *testing.T) {
	tests := []struct {
		name   string
		rel    string
		fields map[string]any
		want   string
		url    string
	}{
		{"root index", "index.html", nil, "index.html", "/"},
		{"nested index", "docs/index.md", nil, "docs/index.html", "/docs/"},
		{"pretty url", "a/b.html", nil, "a/b/index.html", "/a/b/"},
		{"markdown", "notes.md", nil, "notes/index.html", "/notes/"},
		{"explicit file", "feed.html", map[string]any{"permalink": "/feed.xml"}, "feed.xml", "/feed.xml"},
		{"directory permalink", "x.md", map[string]any{"permalink": "/custom/"}, "custom/index.html", "/custom/"},
		{"root permalink", "home.html", map[string]any{"permalink": "/"}, "index.html", "/"},
		{"templated", "p.md", map[string]any{"permalink": "/tags/{{ .tag }}/", "tag": "go"}, "tags/go/index.html", "/tags/go/"},
		{"disabled", "draft.md", map[string]any{"permalink": false}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := frontmatter.Document{Fields: tt.fields}
			got, err := resolvePermalink(tt.rel, doc, tt.fields)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.url, outputURL(got))
		})
	}
}

func TestResolvePermalinkErrors(t *testing.T) {
	for _, v := range []any{true, "../escape.html", "  ", 42} {
		fields := map[string]any{"permalink": v}
		_, err := resolvePermalink("x.html", frontmatter.Document{Fields: fields}, fields)
		require.Error(t, err, "permalink %v", v)
	}
}

func TestPageFileSlugAndVars(t *testing.T) {
	p := &Page{Rel: "blog/post-one.md", Output: "blog/post-one/index.html", URL: "/blog/post-one/"}
	require.Equal(t, "post-one", p.FileSlug())
	require.Equal(t, "post-one", (&Page{Rel: "post-one/index.html"}).FileSlug())
	require.Equal(t, "", (&Page{Rel: "index.html"}).FileSlug())

	vars := p.vars()
	require.Equal(t, "./blog/post-one.md", vars["inputPath"])
	require.Equal(t, "/blog/post-one", vars["filePathStem"])
	require.Equal(t, "/blog/post-one/", vars["url"])
}

func TestPageDate(t *testing.T) {
	fallback := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC), pageDate("2023-04-05", fallback))
	require.Equal(t, fallback, pageDate("last week", fallback))
	require.Equal(t, fallback, pageDate(nil, fallback))
}

func TestTagsOf(t *testing.T) {
	require.Equal(t, []string{"post"}, tagsOf("post"))
	require.Equal(t, []string{"a", "b"}, tagsOf([]any{"a", 3, "b", ""}))
	require.Nil(t, tagsOf(nil))
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello World", "hello-world"},
		{"Héllo Wörld!", "hello-world"},
		{"  Go 1.24: release  ", "go-1-24-release"},
		{"Crème brûlée & café", "creme-brulee-cafe"},
		{"already-slugged", "already-slugged"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestPlainify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"<h1>Fish &amp; chips</h1>\n\n<p>  served\n hot </p>", "Fish & chips served hot"},
		{"<p>x</p><script>var a = '<b>';</script><style>p{}</style>", "x"},
		{"plain text", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Plainify(tt.in), "input %q", tt.in)
	}
}

func TestPrefixURL(t *testing.T) {
	require.Equal(t, "/about/", prefixURL("/", "/about/"))
	require.Equal(t, "/docs/about/", prefixURL("/docs/", "/about/"))
	require.Equal(t, "/docs/", prefixURL("docs", "/"))
	require.Equal(t, "https://example.com/x", prefixURL("/docs/", "https://example.com/x"))
	require.Equal(t, "//cdn.example.com/x", prefixURL("/docs/", "//cdn.example.com/x"))
	require.Equal(t, "relative.html", prefixURL("/docs/", "relative.html"))
}
