package sitedata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoadDirNestsByPath(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "site.yaml"), "title: Example\nauthor:\n  name: Ada\n")
	write(t, filepath.Join(dir, "nav", "main.yml"), "- label: Home\n  url: /\n")
	write(t, filepath.Join(dir, "nav", "footer.json"), `{"links": 2}`)
	write(t, filepath.Join(dir, "README.txt"), "ignored")

	data, err := LoadDir(dir)
	require.NoError(t, err)

	require.Equal(t, "Example", data["site"].(map[string]any)["title"])
	require.Equal(t, "Ada", data["site"].(map[string]any)["author"].(map[string]any)["name"])

	nav := data["nav"].(map[string]any)
	require.Len(t, nav["main"], 1)
	require.Equal(t, float64(2), nav["footer"].(map[string]any)["links"])
	require.NotContains(t, data, "README")
}

func TestLoadDirMergesFileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "site.yaml"), "title: Example\n")
	write(t, filepath.Join(dir, "site", "social.yaml"), "handle: ex\n")

	data, err := LoadDir(dir)
	require.NoError(t, err)
	site := data["site"].(map[string]any)
	require.Equal(t, "Example", site["title"])
	require.Equal(t, "ex", site["social"].(map[string]any)["handle"])
}

func TestLoadDirMissingIsEmpty(t *testing.T) {
	data, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestLoadDirParseFailureNamesFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.json")
	write(t, bad, "{nope")

	_, err := LoadDir(dir)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryParse))
	e, ok := errors.As(err)
	require.True(t, ok)
	require.Equal(t, bad, e.Context["path"])
}

func TestMerge(t *testing.T) {
	base := map[string]any{"a": 1, "nested": map[string]any{"x": 1, "y": 1}}
	over := map[string]any{"b": 2, "nested": map[string]any{"y": 2}}

	got := Merge(base, over)
	require.Equal(t, map[string]any{"a": 1, "b": 2, "nested": map[string]any{"x": 1, "y": 2}}, got)
	require.Equal(t, 1, base["nested"].(map[string]any)["y"], "base must not be mutated")
}

func TestLoadSibling(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "about.md")
	write(t, tpl, "# About")

	m, err := LoadSibling(tpl)
	require.NoError(t, err)
	require.Nil(t, m)

	write(t, filepath.Join(dir, "about.data.yml"), "team: [a, b]\n")
	m, err = LoadSibling(tpl)
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, m["team"])

	write(t, filepath.Join(dir, "list.html"), "")
	write(t, filepath.Join(dir, "list.data.json"), "[1,2]")
	_, err = LoadSibling(filepath.Join(dir, "list.html"))
	require.Error(t, err)
}

func TestReadGitInfo(t *testing.T) {
	dir := t.TempDir()
	_, ok := ReadGitInfo(dir)
	require.False(t, ok)

	repo, err := ggit.PlainInit(dir, false)
	require.NoError(t, err)
	_, ok = ReadGitInfo(dir)
	require.False(t, ok, "no commits yet")

	write(t, filepath.Join(dir, "src", "index.html"), "hi")
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("src/index.html")
	require.NoError(t, err)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	hash, err := wt.Commit("initial", &ggit.CommitOptions{
		Author: &object.Signature{Name: "t", Email: "t@example.com", When: when},
	})
	require.NoError(t, err)

	info, ok := ReadGitInfo(filepath.Join(dir, "src"))
	require.True(t, ok)
	require.Equal(t, hash.String(), info.Commit)
	require.Equal(t, hash.String()[:7], info.ShortCommit)
	require.Equal(t, "master", info.Branch)
	require.True(t, when.Equal(info.Date))
}
