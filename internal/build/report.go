package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/taskgraph"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

// Outcome is the final status of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// TaskReport is the outcome of one task.
type TaskReport struct {
	Name     string          `json:"name"`
	State    taskgraph.State `json:"state"`
	Duration time.Duration   `json:"duration_ns,omitempty"`
}

// Report captures what a build did.
type Report struct {
	SchemaVersion int          `json:"schema_version"`
	Version       string       `json:"version"`
	ID            string       `json:"id"`
	Pipeline      string       `json:"pipeline"`
	Target        string       `json:"target"`
	Production    bool         `json:"production"`
	Start         time.Time    `json:"start"`
	End           time.Time    `json:"end"`
	Outcome       Outcome      `json:"outcome"`
	Tasks         []TaskReport `json:"tasks"`
	Files         []string     `json:"files"`
	Error         string       `json:"error,omitempty"`
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Count returns the number of tasks in state s.
func (r *Report) Count(s taskgraph.State) int {
	n := 0
	for _, t := range r.Tasks {
		if t.State == s {
			n++
		}
	}
	return n
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("pipeline=%s target=%s tasks=%d succeeded=%d failed=%d skipped=%d files=%d duration=%s outcome=%s",
		r.Pipeline, r.Target, len(r.Tasks),
		r.Count(taskgraph.StateSucceeded), r.Count(taskgraph.StateFailed), r.Count(taskgraph.StateSkipped),
		len(r.Files), r.Duration().Truncate(time.Millisecond), r.Outcome)
}

func newReport(id, pipeline, target string, production bool, start time.Time) *Report {
	return &Report{
		SchemaVersion: 1,
		Version:       version.Version,
		ID:            id,
		Pipeline:      pipeline,
		Target:        target,
		Production:    production,
		Start:         start,
	}
}

// fill copies task states in plan order.
func (r *Report) fill(plan *taskgraph.Plan, res *taskgraph.Result) {
	if plan == nil || res == nil {
		return
	}
	for _, name := range plan.Order() {
		r.Tasks = append(r.Tasks, TaskReport{Name: name, State: res.States[name], Duration: res.Durations[name]})
	}
}

// Persist writes the report as JSON to path, replacing it atomically.
func (r *Report) Persist(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(raw, '\n'), 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report json: %w", err)
	}
	return nil
}
