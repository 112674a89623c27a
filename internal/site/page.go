package site

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"text/template"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// Page is one HTML or Markdown template.
type Page struct {
	Input   string // absolute source path
	Rel     string // input relative, slash separated
	Format  string // "html" or "md"
	Front   frontmatter.Document
	Sibling map[string]any
	Date    time.Time
	Tags    []string
	// Output is the output relative path; empty when permalink is false.
	Output string
	URL    string
}

// FileSlug is the file name without extension, or the parent directory name
// for index files.
func (p *Page) FileSlug() string {
	stem := strings.TrimSuffix(path.Base(p.Rel), path.Ext(p.Rel))
	if stem == "index" {
		dir := path.Dir(p.Rel)
		if dir == "." {
			return ""
		}
		return path.Base(dir)
	}
	return stem
}

// vars is the `page` template variable.
func (p *Page) vars() map[string]any {
	return map[string]any{
		"url":          p.URL,
		"inputPath":    "./" + p.Rel,
		"outputPath":   p.Output,
		"fileSlug":     p.FileSlug(),
		"filePathStem": "/" + strings.TrimSuffix(p.Rel, path.Ext(p.Rel)),
		"date":         p.Date,
	}
}

// resolvePermalink computes the output path. A `permalink` front matter
// value overrides the default; `false` disables writing. String permalinks
// may use template actions over the page data.
func resolvePermalink(rel string, doc frontmatter.Document, data map[string]any) (string, error) {
	raw, ok := doc.Fields["permalink"]
	if !ok || raw == nil {
		return defaultPermalink(rel), nil
	}
	switch v := raw.(type) {
	case bool:
		if v {
			return "", fmt.Errorf("permalink must be false or a path, got true")
		}
		return "", nil
	case string:
		link := v
		if strings.Contains(link, "{{") {
			t, err := template.New("permalink").Option("missingkey=zero").Parse(link)
			if err != nil {
				return "", fmt.Errorf("permalink: %w", err)
			}
			var buf bytes.Buffer
			if err := t.Execute(&buf, data); err != nil {
				return "", fmt.Errorf("permalink: %w", err)
			}
			link = buf.String()
		}
		return normalizePermalink(link)
	default:
		return "", fmt.Errorf("permalink must be false or a path, got %T", raw)
	}
}

func defaultPermalink(rel string) string {
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	if path.Base(stem) == "index" {
		return stem + ".html"
	}
	return stem + "/index.html"
}

func normalizePermalink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("permalink is empty")
	}
	dir := strings.HasSuffix(link, "/")
	clean := strings.TrimPrefix(path.Clean("/"+link), "/")
	if clean == "" || dir {
		clean = path.Join(clean, "index.html")
	}
	if strings.HasPrefix(path.Clean(link), "..") {
		return "", fmt.Errorf("permalink %q leaves the output directory", link)
	}
	return clean, nil
}

// outputURL maps an output path to the URL it is served at.
func outputURL(output string) string {
	if output == "" {
		return ""
	}
	if output == "index.html" {
		return "/"
	}
	if strings.HasSuffix(output, "/index.html") {
		return "/" + strings.TrimSuffix(output, "index.html")
	}
	return "/" + output
}

func pageDate(raw any, fallback time.Time) time.Time {
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return fallback
}

func tagsOf(raw any) []string {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	}
	return nil
}
