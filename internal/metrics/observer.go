package metrics

import (
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
)

// TaskObserver forwards task lifecycle events to a Recorder.
type TaskObserver struct {
	Pipeline string
	Recorder Recorder
}

var _ taskgraph.Observer = (*TaskObserver)(nil)

func (o *TaskObserver) OnTaskStart(string) {}

func (o *TaskObserver) OnTaskComplete(name string, d time.Duration, err error) {
	o.Recorder.ObserveTaskDuration(o.Pipeline, name, d)
	result := ResultSuccess
	if err != nil {
		result = ResultFailed
	}
	o.Recorder.IncTaskResult(o.Pipeline, name, result)
}

func (o *TaskObserver) OnTaskSkipped(name string) {
	o.Recorder.IncTaskResult(o.Pipeline, name, ResultSkipped)
}
