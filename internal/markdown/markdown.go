// Package markdown renders Markdown templates and the markdownify filter.
package markdown

import (
	"bytes"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	defaultOnce sync.Once
	defaultMD   goldmark.Markdown
)

// New returns a goldmark instance with GitHub Flavored Markdown, generated
// heading IDs and raw HTML passthrough.
func New() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

func shared() goldmark.Markdown {
	defaultOnce.Do(func() { defaultMD = New() })
	return defaultMD
}

// Render converts a Markdown body to HTML.
func Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := shared().Convert(src, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderInline renders src and strips a single wrapping paragraph, for use
// inside inline markup.
func RenderInline(src []byte) ([]byte, error) {
	out, err := Render(src)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(out)
	if bytes.HasPrefix(trimmed, []byte("<p>")) && bytes.HasSuffix(trimmed, []byte("</p>")) &&
		bytes.Count(trimmed, []byte("<p>")) == 1 {
		return trimmed[3 : len(trimmed)-4], nil
	}
	return out, nil
}
