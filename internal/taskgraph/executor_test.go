package taskgraph

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu      sync.Mutex
	started []string
	skipped []string
}

func (r *recordingObserver) OnTaskStart(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, name)
}
func (r *recordingObserver) OnTaskComplete(string, time.Duration, error) {}
func (r *recordingObserver) OnTaskSkipped(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, name)
}

func mustPlan(t *testing.T, g *Graph) *Plan {
	t.Helper()
	p, err := g.Plan()
	require.NoError(t, err)
	return p
}

func TestExecutor_PredecessorRunsFirst(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(name string) Func {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, name)
			return nil
		}
	}

	g := New()
	g.Task("clean", record("clean"))
	g.Task("css", record("css")).After("clean")
	g.Task("js", record("js")).After("clean")
	g.Group("build", "css", "js")

	res, err := (&Executor{}).Run(t.Context(), mustPlan(t, g))
	require.NoError(t, err)
	require.Equal(t, "clean", events[0])
	require.ElementsMatch(t, []string{"css", "js"}, events[1:])
	for name, st := range res.States {
		require.Equal(t, StateSucceeded, st, name)
	}
	require.Equal(t, "build", res.Completed[len(res.Completed)-1])
}

func TestExecutor_IndependentTasksRunConcurrently(t *testing.T) {
	aStarted := make(chan struct{})
	bStarted := make(chan struct{})
	wait := func(own, other chan struct{}) Func {
		return func(ctx context.Context) error {
			close(own)
			select {
			case <-other:
				return nil
			case <-time.After(5 * time.Second):
				return errors.New("sibling never started")
			}
		}
	}

	g := New()
	g.Task("a", wait(aStarted, bStarted))
	g.Task("b", wait(bStarted, aStarted))

	_, err := (&Executor{}).Run(t.Context(), mustPlan(t, g))
	require.NoError(t, err)
}

func TestExecutor_ConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	work := func(context.Context) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}

	g := New()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		g.Task(name, work)
	}

	_, err := (&Executor{Concurrency: 2}).Run(t.Context(), mustPlan(t, g))
	require.NoError(t, err)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestExecutor_FailureSkipsPendingAndLetsStartedFinish(t *testing.T) {
	release := make(chan struct{})
	siblingDone := atomic.Bool{}
	boom := errors.New("missing source")

	g := New()
	g.Task("clean", noop)
	g.Task("slow", func(context.Context) error {
		<-release
		siblingDone.Store(true)
		return nil
	}).After("clean")
	g.Task("fail", func(context.Context) error {
		close(release)
		return boom
	}).After("clean")
	g.Task("after-fail", noop).After("fail")
	g.Group("build", "slow", "after-fail")

	obs := &recordingObserver{}
	res, err := (&Executor{Observer: obs}).Run(t.Context(), mustPlan(t, g))
	require.Error(t, err)

	var te *TaskError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "fail", te.Task)
	require.ErrorIs(t, err, boom)

	require.True(t, siblingDone.Load(), "started sibling must complete")
	require.Equal(t, StateSucceeded, res.States["slow"])
	require.Equal(t, StateFailed, res.States["fail"])
	require.Equal(t, StateSkipped, res.States["after-fail"])
	require.Equal(t, StateSkipped, res.States["build"])
	require.ElementsMatch(t, []string{"after-fail", "build"}, obs.skipped)
	require.NotContains(t, obs.started, "after-fail")
}

func TestExecutor_CanceledContextStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())

	g := New()
	g.Task("first", func(context.Context) error {
		cancel()
		return nil
	})
	g.Task("second", noop).After("first")

	res, err := (&Executor{}).Run(ctx, mustPlan(t, g))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StateSucceeded, res.States["first"])
	require.Equal(t, StateSkipped, res.States["second"])
}
