// Package watch rebuilds a project whenever its sources change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc performs one build. reason describes what triggered it.
type BuildFunc func(ctx context.Context, reason string) error

// Options configures a Watcher.
type Options struct {
	// Root is the directory watched recursively.
	Root string
	// Ignore lists directories whose events never trigger a rebuild, usually
	// the output root.
	Ignore []string
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Every schedules an unconditional rebuild; zero disables it.
	Every  time.Duration
	Logger *slog.Logger
}

// Watcher runs a build on start and again after every burst of source
// changes. At most one build runs at a time; changes arriving during a build
// queue exactly one follow-up build.
type Watcher struct {
	opts   Options
	build  BuildFunc
	logger *slog.Logger

	requests chan string

	mu    sync.Mutex
	timer *time.Timer
}

// New returns a Watcher calling build.
func New(opts Options, build BuildFunc) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if abs, err := filepath.Abs(opts.Root); err == nil {
		opts.Root = abs
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			ignore = append(ignore, abs)
		}
	}
	opts.Ignore = ignore
	return &Watcher{
		opts:     opts,
		build:    build,
		logger:   logger,
		requests: make(chan string, 1),
	}
}

// Run watches until ctx is done. Build failures are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()
	if err := w.addDirsRecursive(fw, w.opts.Root); err != nil {
		return err
	}

	if w.opts.Every > 0 {
		s, err := w.schedule()
		if err != nil {
			return err
		}
		s.Start()
		defer func() {
			if err := s.Shutdown(); err != nil {
				w.logger.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	defer wg.Wait()

	w.request("initial")
	w.logger.Info("Watching for changes", logfields.Path(w.opts.Root))
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			w.logger.Info("Watch stopped")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Every),
		gocron.NewTask(w.request, "scheduled"),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return s, nil
}

// worker runs builds one at a time. The request channel holds at most one
// pending build, so bursts during a build collapse into one follow-up.
func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.requests:
			start := time.Now()
			w.logger.Info("Rebuilding", slog.String("reason", reason))
			err := w.build(ctx, reason)
			ms := float64(time.Since(start).Microseconds()) / 1000
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Warn("Rebuild failed", logfields.DurationMS(ms), logfields.Error(err))
				continue
			}
			w.logger.Info("Rebuild complete", logfields.DurationMS(ms))
		}
	}
}

func (w *Watcher) request(reason string) {
	select {
	case w.requests <- reason:
	default:
	}
}

// trigger restarts the debounce timer.
func (w *Watcher) trigger(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() { w.request(reason) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) || shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger(ev.Name)
}

func (w *Watcher) ignored(p string) bool {
	for _, dir := range w.opts.Ignore {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (w.ignored(p) || skipDir(d.Name())) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// shouldIgnoreEvent returns true for editor and OS files that should not trigger rebuilds.
func shouldIgnoreEvent(p string) bool {
	base := filepath.Base(p)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
