package transform

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/css"
)

// PostCSS vendor-prefixes and minifies `.css` outputs.
type PostCSS struct {
	Processor css.Processor
}

// NewPostCSS returns the postcss transform for the given prefixes.
func NewPostCSS(prefixes []string, minify bool) *PostCSS {
	return &PostCSS{Processor: css.Processor{Prefixer: css.NewPrefixer(prefixes), Minify: minify}}
}

func (p *PostCSS) Name() string { return "postcss" }

func (p *PostCSS) Applies(outputPath string) bool {
	return strings.HasSuffix(strings.ToLower(outputPath), ".css")
}

func (p *PostCSS) Apply(_ context.Context, _ string, content []byte) ([]byte, error) {
	return p.Processor.Process(content)
}
