package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	BuildID string `name:"build-id" help:"Show the events of one build"`
	Limit   int    `short:"n" help:"Number of builds to list" default:"10"`
	JSON    bool   `name:"json" help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.ValidationFailed("history.path", "build history is disabled; set history.path in the configuration")
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory(g, store)

	if h.BuildID != "" {
		return h.printEvents(g, store)
	}
	return h.printBuilds(g, store)
}

func (h *HistoryCmd) printBuilds(g *Global, store *history.Store) error {
	builds, err := store.Builds(g.Context, h.Limit)
	if err != nil {
		return errors.InternalError("list builds", err)
	}
	if h.JSON {
		return writeJSON(g, builds)
	}
	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD ID\tSTARTED\tPIPELINE\tTARGET\tSTATUS\tDURATION\tFILES")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			b.BuildID, b.StartedAt.Format(time.DateTime), b.Pipeline, b.Target, b.Status,
			b.Duration.Truncate(time.Millisecond), b.Files)
	}
	return tw.Flush()
}

func (h *HistoryCmd) printEvents(g *Global, store *history.Store) error {
	events, err := store.Events(g.Context, h.BuildID)
	if err != nil {
		return errors.InternalError("list events", err)
	}
	if len(events) == 0 {
		return errors.ValidationFailed("build-id", fmt.Sprintf("no build %q recorded", h.BuildID))
	}
	if h.JSON {
		return writeJSON(g, events)
	}
	for _, ev := range events {
		_, _ = fmt.Fprintf(g.Stdout, "%s  %-14s %s\n", ev.Timestamp.Format("15:04:05.000"), ev.Type, ev.Payload)
	}
	return nil
}

func writeJSON(g *Global, v any) error {
	enc := json.NewEncoder(g.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.InternalError("encode json", err)
	}
	return nil
}
