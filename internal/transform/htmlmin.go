package transform

import (
	"context"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
)

const htmlMediaType = "text/html"

var (
	htmlMinifierOnce sync.Once
	htmlMinifier     *minify.M
)

// sharedHTMLMinifier registers only the HTML minifier, so embedded script,
// style, svg and math content has no minifier and is written verbatim.
func sharedHTMLMinifier() *minify.M {
	htmlMinifierOnce.Do(func() {
		htmlMinifier = minify.New()
		htmlMinifier.Add(htmlMediaType, &minhtml.Minifier{
			KeepDocumentTags:    true,
			KeepEndTags:         true,
			KeepQuotes:          true,
			KeepDefaultAttrVals: true,
		})
	})
	return htmlMinifier
}

// HTMLMinify minifies `.html` outputs.
type HTMLMinify struct{}

func (HTMLMinify) Name() string { return "htmlmin" }

func (HTMLMinify) Applies(outputPath string) bool {
	return strings.HasSuffix(strings.ToLower(outputPath), ".html")
}

func (HTMLMinify) Apply(_ context.Context, _ string, content []byte) ([]byte, error) {
	return MinifyHTML(content)
}

// MinifyHTML removes comments, collapses whitespace runs and writes the
// short doctype. Document tags, end tags and attribute quotes are kept.
// Content of pre, textarea, script, style and inline svg is written verbatim.
func MinifyHTML(src []byte) ([]byte, error) {
	return sharedHTMLMinifier().Bytes(htmlMediaType, src)
}
