// Package sass compiles Sass and SCSS style sheets to CSS.
package sass

import (
	"context"
	"path/filepath"
	"strings"
)

// Syntax is the input syntax of a style sheet.
type Syntax string

const (
	SyntaxSCSS Syntax = "scss"
	SyntaxSass Syntax = "sass"
	SyntaxCSS  Syntax = "css"
)

// SyntaxOf derives the syntax from a file extension.
func SyntaxOf(path string) Syntax {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sass":
		return SyntaxSass
	case ".css":
		return SyntaxCSS
	default:
		return SyntaxSCSS
	}
}

// Style is the CSS output style.
type Style string

const (
	StyleExpanded   Style = "expanded"
	StyleCompressed Style = "compressed"
)

// Request describes one compilation.
type Request struct {
	// Path is the absolute path of the entry file.
	Path   string
	Source string
	Syntax Syntax
	// LoadPaths are searched in order for imports, usually starting with the
	// entry file's directory.
	LoadPaths []string
	Style     Style
	SourceMap bool
}

// Result is the compiled CSS and, when requested, its source map.
type Result struct {
	CSS       string
	SourceMap string
}

// Compiler turns a Request into CSS. Implementations must be safe for
// concurrent use.
type Compiler interface {
	Compile(ctx context.Context, req Request) (Result, error)
	Close() error
}

// Func adapts a function to Compiler.
type Func func(ctx context.Context, req Request) (Result, error)

func (f Func) Compile(ctx context.Context, req Request) (Result, error) { return f(ctx, req) }

func (f Func) Close() error { return nil }
