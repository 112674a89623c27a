package taskgraph

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Observer receives task lifecycle callbacks. All callbacks are issued from
// the executor's dispatch goroutine, never concurrently.
type Observer interface {
	OnTaskStart(name string)
	OnTaskComplete(name string, d time.Duration, err error)
	OnTaskSkipped(name string)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnTaskStart(string)                          {}
func (NoopObserver) OnTaskComplete(string, time.Duration, error) {}
func (NoopObserver) OnTaskSkipped(string)                        {}

// Observers fans callbacks out to several observers in order.
type Observers []Observer

func (o Observers) OnTaskStart(name string) {
	for _, ob := range o {
		ob.OnTaskStart(name)
	}
}

func (o Observers) OnTaskComplete(name string, d time.Duration, err error) {
	for _, ob := range o {
		ob.OnTaskComplete(name, d, err)
	}
}

func (o Observers) OnTaskSkipped(name string) {
	for _, ob := range o {
		ob.OnTaskSkipped(name)
	}
}

// Result captures the outcome of a graph run.
type Result struct {
	States    map[string]State
	Durations map[string]time.Duration
	// Completed lists tasks in the order they finished (succeeded or failed).
	Completed []string
}

// Executor runs a Plan.
type Executor struct {
	// Concurrency bounds the number of tasks in flight; 0 means unbounded.
	Concurrency int
	Observer    Observer
}

type completion struct {
	idx int
	dur time.Duration
	err error
}

// Run executes every task of the plan, starting each one once all its
// predecessors succeeded. On the first failure no further task is started;
// tasks already running are awaited and the remaining ones are skipped.
// The returned error is a *TaskError for task failures or the context error
// when ctx ended before the graph finished.
func (e *Executor) Run(ctx context.Context, p *Plan) (*Result, error) {
	obs := e.Observer
	if obs == nil {
		obs = NoopObserver{}
	}

	n := len(p.tasks)
	res := &Result{
		States:    make(map[string]State, n),
		Durations: make(map[string]time.Duration, n),
	}
	for _, t := range p.tasks {
		res.States[t.Name] = StatePending
	}

	remaining := make([]int, n)
	var ready []int
	for i := range p.tasks {
		remaining[i] = len(p.incoming[i])
		if remaining[i] == 0 {
			ready = append(ready, i)
		}
	}
	p.sortByRank(ready)

	var eg errgroup.Group
	if e.Concurrency > 0 {
		eg.SetLimit(e.Concurrency)
	}
	done := make(chan completion, n)
	running := 0
	var firstErr error

	for {
		for firstErr == nil && ctx.Err() == nil && len(ready) > 0 {
			idx := ready[0]
			ready = ready[1:]
			t := p.tasks[idx]
			res.States[t.Name] = StateRunning
			obs.OnTaskStart(t.Name)
			running++
			eg.Go(func() error {
				start := time.Now()
				var err error
				if t.Run != nil {
					err = t.Run(ctx)
				}
				done <- completion{idx: idx, dur: time.Since(start), err: err}
				return nil
			})
		}

		if running == 0 {
			break
		}

		c := <-done
		running--
		t := p.tasks[c.idx]
		res.Durations[t.Name] = c.dur
		res.Completed = append(res.Completed, t.Name)
		obs.OnTaskComplete(t.Name, c.dur, c.err)

		if c.err != nil {
			res.States[t.Name] = StateFailed
			if firstErr == nil {
				firstErr = &TaskError{Task: t.Name, Err: c.err}
			}
			continue
		}

		res.States[t.Name] = StateSucceeded
		for _, succ := range p.outgoing[c.idx] {
			remaining[succ]--
			if remaining[succ] == 0 {
				ready = append(ready, succ)
			}
		}
		p.sortByRank(ready)
	}
	_ = eg.Wait()

	skipped := 0
	for _, idx := range p.order {
		name := p.tasks[idx].Name
		if res.States[name] == StatePending {
			res.States[name] = StateSkipped
			obs.OnTaskSkipped(name)
			skipped++
		}
	}

	if firstErr != nil {
		return res, firstErr
	}
	if skipped > 0 {
		return res, ctx.Err()
	}
	return res, nil
}

func (p *Plan) sortByRank(idx []int) {
	sort.Slice(idx, func(a, b int) bool { return p.rank[idx[a]] < p.rank[idx[b]] })
}
