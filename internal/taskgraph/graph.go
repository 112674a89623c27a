package taskgraph

import "context"

// Func is the body of a task. It returns once its I/O has completed.
type Func func(ctx context.Context) error

// Task is a named unit of work with zero or more predecessors.
// A Task without a body acts as a group: it succeeds as soon as all its
// predecessors have.
type Task struct {
	Name  string
	Deps  []string
	Run   Func
	index int
}

// After declares predecessors that must succeed before this task starts.
func (t *Task) After(names ...string) *Task {
	t.Deps = append(t.Deps, names...)
	return t
}

// Graph collects task declarations. It is not safe for concurrent mutation;
// declare everything, then call Plan.
type Graph struct {
	tasks  []*Task
	byName map[string]*Task
	errs   []error
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{byName: make(map[string]*Task)}
}

// Task declares a task. Declaring the same name twice is reported by Plan.
func (g *Graph) Task(name string, fn Func) *Task {
	t := &Task{Name: name, Run: fn, index: len(g.tasks)}
	if name == "" {
		g.errs = append(g.errs, invalidf("task name is required"))
	} else if _, exists := g.byName[name]; exists {
		g.errs = append(g.errs, invalidf("duplicate task name: %q", name))
	} else {
		g.byName[name] = t
	}
	g.tasks = append(g.tasks, t)
	return t
}

// Group declares a body-less task that completes once all members have.
func (g *Graph) Group(name string, members ...string) *Task {
	return g.Task(name, nil).After(members...)
}

// Has reports whether a task with the given name was declared.
func (g *Graph) Has(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// Len returns the number of declared tasks.
func (g *Graph) Len() int { return len(g.tasks) }
