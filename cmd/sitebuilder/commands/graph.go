package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
)

// GraphCmd implements the 'graph' command.
type GraphCmd struct {
	Pipeline string `short:"p" help:"Pipeline to show (site, legacy)" default:"site" enum:"site,legacy"`
	Target   string `short:"t" help:"Target within the pipeline" default:"default"`
	Format   string `short:"f" help:"Output format: text, mermaid, dot, json" default:"text" enum:"text,mermaid,dot,json"`
	Output   string `short:"o" help:"Output file path (optional, prints to stdout if not specified)" type:"path"`
}

func (c *GraphCmd) Run(g *Global, root *CLI) error {
	var cfg *config.Config
	if _, statErr := os.Stat(root.Config); os.IsNotExist(statErr) {
		wd, err := os.Getwd()
		if err != nil {
			return errors.FileSystemError("getwd", ".", err)
		}
		g.Logger.Debug("No configuration file; showing the default graph", "config", root.Config)
		cfg = config.Default(wd)
	} else {
		var err error
		if cfg, err = loadConfig(g, root); err != nil {
			return err
		}
	}

	p, err := build.NewPipeline(c.Pipeline, build.PipelineOptions{Config: cfg, Logger: g.Logger})
	if err != nil {
		return err
	}
	plan, err := p.Plan(c.Target)
	if err != nil {
		return err
	}
	out, err := taskgraph.Visualize(plan, fmt.Sprintf("%s %s", c.Pipeline, c.Target), taskgraph.Format(c.Format))
	if err != nil {
		return errors.ValidationFailed("format", err.Error())
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, []byte(out), 0o600); err != nil {
			return errors.FileSystemError("write", c.Output, err)
		}
		g.Logger.Info("Pipeline graph written", "file", c.Output, "format", c.Format)
		return nil
	}
	_, _ = fmt.Fprint(g.Stdout, out)
	return nil
}
