package sass

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/cli/safeexec"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultBinary is the Dart Sass executable looked up on PATH.
const DefaultBinary = "sass"

// DartSass compiles through an embedded Dart Sass process. The process is
// started on first use and shared by concurrent compilations.
type DartSass struct {
	Binary  string
	Timeout time.Duration
	Logger  *slog.Logger

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewDartSass returns a compiler using binary (empty = DefaultBinary on PATH).
func NewDartSass(binary string, timeout time.Duration, logger *slog.Logger) *DartSass {
	if logger == nil {
		logger = slog.Default()
	}
	return &DartSass{Binary: binary, Timeout: timeout, Logger: logger}
}

func (d *DartSass) start() (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler != nil {
		return d.transpiler, nil
	}

	bin := d.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	if filepath.Base(bin) == bin {
		resolved, err := safeexec.LookPath(bin)
		if err != nil {
			return nil, fmt.Errorf("dart sass executable %q not found: %w", bin, err)
		}
		bin = resolved
	}

	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: bin,
		Timeout:                  d.Timeout,
		LogEventHandler:          d.logEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("start dart sass: %w", err)
	}
	d.transpiler = t
	return t, nil
}

func (d *DartSass) logEvent(e godartsass.LogEvent) {
	switch e.Type {
	case godartsass.LogEventTypeDebug:
		d.Logger.Debug("sass: "+e.Message, slog.String("component", "sass"))
	default:
		d.Logger.Warn("sass: "+e.Message, slog.String("component", "sass"))
	}
}

type outcome struct {
	res godartsass.Result
	err error
}

// Compile implements Compiler. It returns when the compilation finishes or
// ctx is done, whichever comes first.
func (d *DartSass) Compile(ctx context.Context, req Request) (Result, error) {
	t, err := d.start()
	if err != nil {
		return Result{}, err
	}

	resolver := NewResolver(req.LoadPaths...)
	args := godartsass.Args{
		Source:                  req.Source,
		URL:                     FileURL(req.Path),
		OutputStyle:             dartStyle(req.Style),
		SourceSyntax:            dartSyntax(req.Syntax),
		IncludePaths:            req.LoadPaths,
		ImportResolver:          resolver,
		EnableSourceMap:         req.SourceMap,
		SourceMapIncludeSources: req.SourceMap,
	}

	done := make(chan outcome, 1)
	go func() {
		res, err := t.Execute(args)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		d.Logger.Debug("Sass compile abandoned", logfields.File(req.Path), logfields.Error(ctx.Err()))
		return Result{}, ctx.Err()
	case o := <-done:
		if o.err != nil {
			if stderrors.Is(o.err, godartsass.ErrShutdown) {
				d.discard(t)
			}
			return Result{}, o.err
		}
		return Result{CSS: o.res.CSS, SourceMap: o.res.SourceMap}, nil
	}
}

// discard drops t after its process went away so the next compile starts a
// new one.
func (d *DartSass) discard(t *godartsass.Transpiler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler != t {
		return
	}
	d.Logger.Warn("Dart Sass process shut down; restarting on next compile")
	_ = t.Close()
	d.transpiler = nil
}

// Close stops the Dart Sass process if it was started.
func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}

func dartStyle(s Style) godartsass.OutputStyle {
	if s == StyleCompressed {
		return godartsass.OutputStyleCompressed
	}
	return godartsass.OutputStyleExpanded
}

func dartSyntax(s Syntax) godartsass.SourceSyntax {
	switch s {
	case SyntaxSass:
		return godartsass.SourceSyntaxSASS
	case SyntaxCSS:
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}
