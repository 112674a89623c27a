package build

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
)

// logObserver logs task transitions.
type logObserver struct {
	logger *slog.Logger
}

func (o logObserver) OnTaskStart(name string) {
	o.logger.Debug("Task started", logfields.Task(name))
}

func (o logObserver) OnTaskComplete(name string, d time.Duration, err error) {
	ms := float64(d.Microseconds()) / 1000
	if err != nil {
		o.logger.Error("Task failed", logfields.Task(name), logfields.DurationMS(ms), logfields.Error(err))
		return
	}
	o.logger.Info("Task finished", logfields.Task(name), logfields.DurationMS(ms))
}

func (o logObserver) OnTaskSkipped(name string) {
	o.logger.Warn("Task skipped", logfields.Task(name), logfields.State(string(taskgraph.StateSkipped)))
}
