package css

import (
	"sync"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
)

const mediaType = "text/css"

var (
	minifierOnce sync.Once
	minifier     *minify.M
)

func sharedMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.Add(mediaType, &mincss.Minifier{})
	})
	return minifier
}

// Minify removes comments and redundant whitespace while keeping the rule
// structure intact.
func Minify(src []byte) ([]byte, error) {
	return sharedMinifier().Bytes(mediaType, src)
}

// Processor runs the prefixer and, optionally, the minifier.
type Processor struct {
	Prefixer *Prefixer
	Minify   bool
}

// Process applies prefixing then minification.
func (p Processor) Process(src []byte) ([]byte, error) {
	out := src
	var err error
	if p.Prefixer != nil {
		if out, err = p.Prefixer.Prefix(out); err != nil {
			return nil, err
		}
	}
	if p.Minify {
		if out, err = Minify(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
