package commands

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	PipelineFlags `embed:""`

	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics of the build to this file (textfile collector format)" type:"path"`
	Report      string `name:"report" help:"Write the JSON build report to this file" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory(g, store)

	svc := build.NewService(g.Logger).WithHistory(store)
	var reg *prom.Registry
	if b.MetricsFile != "" {
		reg = prom.NewRegistry()
		svc.WithRecorder(metrics.NewPrometheusRecorder(reg))
	}

	res, runErr := svc.Run(g.Context, b.request(cfg))
	if res != nil {
		_, _ = fmt.Fprintln(g.Stdout, res.Report.Summary())
		if b.Report != "" {
			if err := res.Report.Persist(b.Report); err != nil {
				g.Logger.Warn("Failed to write build report", "error", err)
			}
		}
	}
	if reg != nil {
		if err := metrics.WriteTextfile(b.MetricsFile, reg); err != nil && runErr == nil {
			return errors.FileSystemError("write metrics", b.MetricsFile, err)
		}
	}
	return runErr
}
