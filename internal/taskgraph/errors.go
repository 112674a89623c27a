package taskgraph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGraph is returned (wrapped) for any structural graph problem.
var ErrInvalidGraph = errors.New("invalid task graph")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGraph, fmt.Sprintf(format, args...))
}

func cycleError(path []string) error {
	return invalidf("cycle detected: %s", strings.Join(path, " -> "))
}

// TaskError wraps the first failure of a graph run with the failing node name.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string { return fmt.Sprintf("task %s: %v", e.Task, e.Err) }
func (e *TaskError) Unwrap() error { return e.Err }
