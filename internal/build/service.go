package build

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/sass"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
)

// Request contains the inputs of one build.
type Request struct {
	Config *config.Config
	// Pipeline selects the pipeline; empty means the page builder.
	Pipeline string
	// Target selects the target within the pipeline; empty means default.
	Target string
	// Production disables development output such as source maps.
	Production bool
}

// Result is the outcome of Service.Run.
type Result struct {
	Report *Report
	States map[string]taskgraph.State
}

// Service executes builds. It is safe for sequential reuse, which is what
// the watcher does; concurrent runs must not share an output directory.
type Service struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	history  *history.Store
	compiler sass.Compiler
	newID    func() string
	now      func() time.Time
}

// NewService creates a Service with no metrics and no history.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithHistory records every build in store.
func (s *Service) WithHistory(store *history.Store) *Service {
	s.history = store
	return s
}

// WithCompiler shares one Sass compiler across runs. Without it each site
// build starts, and stops, its own Dart Sass process.
func (s *Service) WithCompiler(c sass.Compiler) *Service {
	s.compiler = c
	return s
}

// Run plans the requested target and executes it.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Config == nil {
		return nil, errors.ValidationFailed("config", "configuration is required")
	}
	pipelineName := req.Pipeline
	if pipelineName == "" {
		pipelineName = site.Pipeline
	}
	target := req.Target
	if target == "" {
		target = "default"
	}

	id := s.newID()
	start := s.now()
	r := &run{
		svc:    s,
		logger: s.logger.With(logfields.BuildID(id), logfields.Pipeline(pipelineName), logfields.Target(target)),
		result: &Result{Report: newReport(id, pipelineName, target, req.Production, start)},
	}
	if s.history != nil {
		r.recorder = history.NewTaskRecorder(ctx, s.history, id, r.logger)
		r.recorder.Started(history.BuildStarted{Pipeline: pipelineName, Target: target, Production: req.Production})
	}

	compiler := s.compiler
	if compiler == nil && pipelineName == site.Pipeline {
		var err error
		compiler, err = newCompiler(req.Config, r.logger)
		if err != nil {
			return r.finish(OutcomeFailed, err)
		}
		defer func() {
			if cerr := compiler.Close(); cerr != nil {
				r.logger.Warn("Failed to stop sass compiler", logfields.Error(cerr))
			}
		}()
	}

	p, err := NewPipeline(pipelineName, PipelineOptions{
		Config:     req.Config,
		Compiler:   compiler,
		Production: req.Production,
		Logger:     r.logger,
		Now:        start,
	})
	if err != nil {
		return r.finish(OutcomeFailed, err)
	}
	r.pipeline = p
	if r.plan, err = p.Plan(target); err != nil {
		return r.finish(OutcomeFailed, err)
	}

	observers := taskgraph.Observers{
		logObserver{logger: r.logger},
		&metrics.TaskObserver{Pipeline: pipelineName, Recorder: s.recorder},
	}
	if r.recorder != nil {
		observers = append(observers, r.recorder)
	}
	r.logger.Info("Build started", logfields.Count(r.plan.Len()), slog.Bool("production", req.Production))

	exec := &taskgraph.Executor{Concurrency: req.Config.Build.Concurrency, Observer: observers}
	r.res, err = exec.Run(ctx, r.plan)
	switch {
	case err == nil:
		return r.finish(OutcomeSuccess, nil)
	case ctx.Err() != nil:
		return r.finish(OutcomeCanceled, err)
	default:
		return r.finish(OutcomeFailed, err)
	}
}

// run is the state of one Service.Run call.
type run struct {
	svc      *Service
	logger   *slog.Logger
	result   *Result
	recorder *history.TaskRecorder
	pipeline Pipeline
	plan     *taskgraph.Plan
	res      *taskgraph.Result
}

func (r *run) finish(outcome Outcome, err error) (*Result, error) {
	report := r.result.Report
	report.Outcome = outcome
	report.End = r.svc.now()
	report.fill(r.plan, r.res)
	if r.res != nil {
		r.result.States = r.res.States
	}
	if r.pipeline != nil {
		report.Files = r.pipeline.Written()
		slices.Sort(report.Files)
	}
	if err != nil {
		report.Error = err.Error()
	}

	rec := r.svc.recorder
	rec.ObserveBuildDuration(report.Pipeline, report.Duration())
	rec.IncBuildOutcome(report.Pipeline, metrics.BuildOutcomeLabel(outcome))
	rec.AddFilesWritten(report.Pipeline, len(report.Files))
	if r.recorder != nil {
		r.recorder.Finished(history.BuildFinished{
			Outcome:    string(outcome),
			DurationMS: report.Duration().Milliseconds(),
			Files:      len(report.Files),
			Error:      report.Error,
		})
	}

	attrs := []any{
		slog.String("outcome", string(outcome)),
		logfields.Count(len(report.Files)),
		logfields.DurationMS(float64(report.Duration().Microseconds()) / 1000),
	}
	switch outcome {
	case OutcomeSuccess:
		r.logger.Info("Build finished", attrs...)
	case OutcomeCanceled:
		r.logger.Warn("Build canceled", attrs...)
	default:
		r.logger.Error("Build failed", append(attrs, logfields.Error(err))...)
	}
	return r.result, err
}

func newCompiler(cfg *config.Config, logger *slog.Logger) (sass.Compiler, error) {
	timeout, err := cfg.SassTimeout()
	if err != nil {
		return nil, err
	}
	return sass.NewDartSass(cfg.Sass.Binary, timeout, logger), nil
}
