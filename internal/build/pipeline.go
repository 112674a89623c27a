package build

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/legacy"
	"git.home.luguber.info/inful/sitebuilder/internal/sass"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
)

// Pipeline is a buildable task graph. Instances are single use.
type Pipeline interface {
	Name() string
	// Plan returns the validated plan for target; "" selects the default target.
	Plan(target string) (*taskgraph.Plan, error)
	// Written lists absolute paths of the files written so far.
	Written() []string
}

// Pipelines lists the pipeline names in display order.
var Pipelines = []string{site.Pipeline, legacy.Pipeline}

// PipelineOptions carries what a pipeline needs to be constructed.
type PipelineOptions struct {
	Config     *config.Config
	Compiler   sass.Compiler
	Production bool
	Logger     *slog.Logger
	Now        time.Time
}

// NewPipeline constructs the named pipeline.
func NewPipeline(name string, opts PipelineOptions) (Pipeline, error) {
	switch name {
	case site.Pipeline, "":
		return &sitePipeline{b: site.New(site.Options{
			Config:     opts.Config,
			Compiler:   opts.Compiler,
			Production: opts.Production,
			Logger:     opts.Logger,
			Now:        opts.Now,
		})}, nil
	case legacy.Pipeline:
		return &legacyPipeline{r: legacy.New(legacy.Options{
			Config:     opts.Config,
			Production: opts.Production,
			Logger:     opts.Logger,
		})}, nil
	default:
		return nil, errors.ValidationFailed("pipeline", fmt.Sprintf("unknown pipeline %q (want one of %v)", name, Pipelines))
	}
}

// Targets returns the runnable targets of the named pipeline.
func Targets(name string) []string {
	switch name {
	case site.Pipeline, "":
		return site.Targets
	case legacy.Pipeline:
		return legacy.Targets
	}
	return nil
}

type sitePipeline struct{ b *site.Builder }

func (p *sitePipeline) Name() string      { return site.Pipeline }
func (p *sitePipeline) Written() []string { return p.b.Written() }

func (p *sitePipeline) Plan(target string) (*taskgraph.Plan, error) {
	plan, err := p.b.Graph().Plan()
	if err != nil {
		return nil, errors.InternalError("plan site graph", err)
	}
	if target == "" || target == "default" {
		return plan, nil
	}
	if !slices.Contains(site.Targets, target) {
		return nil, errors.ValidationFailed("target", fmt.Sprintf("unknown %s target %q", site.Pipeline, target))
	}
	sub, err := plan.Subset(target)
	if err != nil {
		return nil, errors.InternalError("plan site target", err)
	}
	return sub, nil
}

type legacyPipeline struct{ r *legacy.Runner }

func (p *legacyPipeline) Name() string      { return legacy.Pipeline }
func (p *legacyPipeline) Written() []string { return p.r.Written() }

func (p *legacyPipeline) Plan(target string) (*taskgraph.Plan, error) {
	g, err := p.r.Graph(target)
	if err != nil {
		return nil, err
	}
	plan, err := g.Plan()
	if err != nil {
		return nil, errors.InternalError("plan legacy graph", err)
	}
	return plan, nil
}
