package sass

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bep/godartsass/v2"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	entryDir := filepath.Join(root, "src", "css")
	includes := filepath.Join(root, "src", "_includes")
	modules := filepath.Join(root, "node_modules")

	partial := touch(t, filepath.Join(entryDir, "_vars.scss"), "$c: red;")
	shared := touch(t, filepath.Join(includes, "mixins.scss"), "")
	sassFile := touch(t, filepath.Join(includes, "_grid.sass"), "")
	index := touch(t, filepath.Join(modules, "theme", "_index.scss"), "")
	normalize := touch(t, filepath.Join(modules, "normalize.css", "normalize.css"), "")
	shadow := touch(t, filepath.Join(entryDir, "mixins.scss"), "")

	r := NewResolver(includes, modules)
	tests := []struct {
		url  string
		want string
	}{
		{"vars", partial},
		{"_vars.scss", partial},
		{"mixins", shadow},
		{"grid", sassFile},
		{"theme", index},
		{"~theme", index},
		{"normalize.css/normalize", normalize},
		{"normalize.css/normalize.css", normalize},
		{FileURL(shared), shared},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := r.Resolve(tt.url, entryDir)
			require.True(t, ok)
			require.Equal(t, tt.want, got)
		})
	}

	got, ok := r.Resolve("mixins", "")
	require.True(t, ok)
	require.Equal(t, shared, got, "without a base the load paths win")

	_, ok = r.Resolve("missing", entryDir)
	require.False(t, ok)
}

func TestCanonicalizeAndLoad(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "_colors.sass"), "$c: red\n")
	r := NewResolver(root)

	canonical, err := r.CanonicalizeURL("colors")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(canonical, "file:///"))
	require.True(t, strings.HasSuffix(canonical, "/_colors.sass"))

	imp, err := r.Load(canonical)
	require.NoError(t, err)
	require.Equal(t, "$c: red\n", imp.Content)
	require.Equal(t, godartsass.SourceSyntaxSASS, imp.SourceSyntax)

	canonical, err = r.CanonicalizeURL("nowhere")
	require.NoError(t, err)
	require.Empty(t, canonical)
}

func TestSyntaxOf(t *testing.T) {
	require.Equal(t, SyntaxSCSS, SyntaxOf("a/main.scss"))
	require.Equal(t, SyntaxSass, SyntaxOf("a/main.SASS"))
	require.Equal(t, SyntaxCSS, SyntaxOf("a/main.css"))
}
