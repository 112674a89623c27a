package sass

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/godartsass/v2"
)

var importExtensions = []string{".scss", ".sass", ".css"}

// Resolver finds imported style sheets in an ordered list of load paths.
// It implements the canonicalize and load steps of the Dart Sass importer
// protocol. Imports it cannot find canonicalize to "" so the compiler falls
// back to its own resolution.
type Resolver struct {
	LoadPaths []string
}

// NewResolver returns a Resolver over loadPaths.
func NewResolver(loadPaths ...string) *Resolver {
	return &Resolver{LoadPaths: loadPaths}
}

// Resolve returns the file an import URL refers to. Relative imports are
// tried against base first (the importing file's directory), then every load
// path. A leading `~` (the webpack convention for packages) is ignored.
func (r *Resolver) Resolve(importURL, base string) (string, bool) {
	if strings.HasPrefix(importURL, "file://") {
		u, err := url.Parse(importURL)
		if err != nil {
			return "", false
		}
		return resolveFile(filepath.FromSlash(u.Path))
	}

	name := filepath.FromSlash(strings.TrimPrefix(importURL, "~"))
	if filepath.IsAbs(name) {
		return resolveFile(name)
	}
	dirs := r.LoadPaths
	if base != "" {
		dirs = append([]string{base}, dirs...)
	}
	for _, dir := range dirs {
		if p, ok := resolveFile(filepath.Join(dir, name)); ok {
			return p, true
		}
	}
	return "", false
}

// CanonicalizeURL implements godartsass.ImportResolver.
func (r *Resolver) CanonicalizeURL(importURL string) (string, error) {
	p, ok := r.Resolve(importURL, "")
	if !ok {
		return "", nil
	}
	return FileURL(p), nil
}

// Load implements godartsass.ImportResolver.
func (r *Resolver) Load(canonicalizedURL string) (godartsass.Import, error) {
	u, err := url.Parse(canonicalizedURL)
	if err != nil {
		return godartsass.Import{}, fmt.Errorf("invalid import url %q: %w", canonicalizedURL, err)
	}
	p := filepath.FromSlash(u.Path)
	// #nosec G304 -- p was resolved inside the configured load paths
	content, err := os.ReadFile(p)
	if err != nil {
		return godartsass.Import{}, err
	}
	return godartsass.Import{Content: string(content), SourceSyntax: dartSyntax(SyntaxOf(p))}, nil
}

// FileURL converts an absolute path to a file URL.
func FileURL(p string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String()
}

// resolveFile applies the partial and index conventions to p.
func resolveFile(p string) (string, bool) {
	dir, base := filepath.Split(p)
	var candidates []string
	if hasImportExtension(base) {
		candidates = append(candidates, p, filepath.Join(dir, "_"+base))
	} else {
		for _, ext := range importExtensions {
			candidates = append(candidates, p+ext, filepath.Join(dir, "_"+base+ext))
		}
		for _, ext := range importExtensions {
			candidates = append(candidates, filepath.Join(p, "_index"+ext), filepath.Join(p, "index"+ext))
		}
	}
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && st.Mode().IsRegular() {
			abs, err := filepath.Abs(c)
			if err != nil {
				return "", false
			}
			return abs, true
		}
	}
	return "", false
}

func hasImportExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range importExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
