package history

import (
	"encoding/json"
	"time"
)

// StatusRunning marks a build without a BuildFinished event.
const StatusRunning = "running"

// Summary is the read model of one build, folded from its events.
type Summary struct {
	BuildID    string        `json:"build_id"`
	Pipeline   string        `json:"pipeline"`
	Target     string        `json:"target"`
	Production bool          `json:"production"`
	Status     string        `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Tasks      int           `json:"tasks"`
	Failed     []string      `json:"failed,omitempty"`
	Skipped    int           `json:"skipped"`
	Files      int           `json:"files"`
	Error      string        `json:"error,omitempty"`
}

// Summarize folds events of a single build into a Summary. Payloads that do
// not decode are ignored.
func Summarize(events []Event) Summary {
	var s Summary
	s.Status = StatusRunning
	for i, ev := range events {
		if i == 0 {
			s.BuildID = ev.BuildID
			s.StartedAt = ev.Timestamp
		}
		switch ev.Type {
		case EventBuildStarted:
			var p BuildStarted
			if err := json.Unmarshal(ev.Payload, &p); err == nil {
				s.Pipeline, s.Target, s.Production = p.Pipeline, p.Target, p.Production
			}
			s.StartedAt = ev.Timestamp
		case EventTaskCompleted:
			s.Tasks++
		case EventTaskFailed:
			s.Tasks++
			var p TaskFinished
			if err := json.Unmarshal(ev.Payload, &p); err == nil {
				s.Failed = append(s.Failed, p.Task)
			}
		case EventTaskSkipped:
			s.Skipped++
		case EventBuildFinished:
			at := ev.Timestamp
			s.FinishedAt = &at
			s.Duration = at.Sub(s.StartedAt)
			var p BuildFinished
			if err := json.Unmarshal(ev.Payload, &p); err == nil {
				s.Status = p.Outcome
				s.Files = p.Files
				s.Error = p.Error
				if p.DurationMS > 0 {
					s.Duration = time.Duration(p.DurationMS) * time.Millisecond
				}
			}
		}
	}
	return s
}
