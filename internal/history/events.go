package history

import (
	"encoding/json"
	"time"
)

// EventType names a recorded build event.
type EventType string

const (
	EventBuildStarted  EventType = "BuildStarted"
	EventTaskCompleted EventType = "TaskCompleted"
	EventTaskFailed    EventType = "TaskFailed"
	EventTaskSkipped   EventType = "TaskSkipped"
	EventBuildFinished EventType = "BuildFinished"
)

// Event is a stored build event.
type Event struct {
	ID        int64
	BuildID   string
	Type      EventType
	Timestamp time.Time
	Payload   json.RawMessage
	Metadata  map[string]string
}

// BuildStarted is the payload of EventBuildStarted.
type BuildStarted struct {
	Pipeline   string `json:"pipeline"`
	Target     string `json:"target"`
	Production bool   `json:"production"`
}

// TaskFinished is the payload of the task events.
type TaskFinished struct {
	Task       string `json:"task"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BuildFinished is the payload of EventBuildFinished.
type BuildFinished struct {
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Files      int    `json:"files"`
	Error      string `json:"error,omitempty"`
}
