package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
)

// TaskRecorder appends task lifecycle events of one build to a Store.
// Failures to persist are logged and remembered, never propagated to the
// executor.
type TaskRecorder struct {
	store   *Store
	buildID string
	ctx     context.Context
	logger  *slog.Logger

	mu  sync.Mutex
	err error
}

var _ taskgraph.Observer = (*TaskRecorder)(nil)

// NewTaskRecorder returns a recorder for buildID. Appends outlive ctx
// cancellation so a canceled build still records how it ended.
func NewTaskRecorder(ctx context.Context, store *Store, buildID string, logger *slog.Logger) *TaskRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskRecorder{
		store:   store,
		buildID: buildID,
		ctx:     context.WithoutCancel(ctx),
		logger:  logger,
	}
}

func (r *TaskRecorder) OnTaskStart(string) {}

func (r *TaskRecorder) OnTaskComplete(name string, d time.Duration, err error) {
	payload := TaskFinished{Task: name, DurationMS: d.Milliseconds()}
	eventType := EventTaskCompleted
	if err != nil {
		eventType = EventTaskFailed
		payload.Error = err.Error()
	}
	r.append(eventType, payload)
}

func (r *TaskRecorder) OnTaskSkipped(name string) {
	r.append(EventTaskSkipped, TaskFinished{Task: name})
}

// Started records the beginning of the build.
func (r *TaskRecorder) Started(p BuildStarted) { r.append(EventBuildStarted, p) }

// Finished records the end of the build.
func (r *TaskRecorder) Finished(p BuildFinished) { r.append(EventBuildFinished, p) }

// Err returns the first persistence error, if any.
func (r *TaskRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *TaskRecorder) append(eventType EventType, payload any) {
	if err := r.store.Append(r.ctx, r.buildID, eventType, payload, nil); err != nil {
		r.logger.Warn("Failed to record build event",
			logfields.BuildID(r.buildID), slog.String("event", string(eventType)), logfields.Error(err))
		r.mu.Lock()
		if r.err == nil {
			r.err = err
		}
		r.mu.Unlock()
	}
}
