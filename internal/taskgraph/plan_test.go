package taskgraph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestPlan_RejectsInvalidGraphs(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *Graph)
		msg   string
	}{
		{
			name:  "empty name",
			build: func(g *Graph) { g.Task("", noop) },
			msg:   "task name is required",
		},
		{
			name: "duplicate name",
			build: func(g *Graph) {
				g.Task("clean", noop)
				g.Task("clean", noop)
			},
			msg: `duplicate task name: "clean"`,
		},
		{
			name:  "unknown predecessor",
			build: func(g *Graph) { g.Task("js", noop).After("clean") },
			msg:   `task "js" depends on unknown task "clean"`,
		},
		{
			name:  "self loop",
			build: func(g *Graph) { g.Task("js", noop).After("js") },
			msg:   `self-loop: "js"`,
		},
		{
			name: "indirect cycle",
			build: func(g *Graph) {
				g.Task("a", noop).After("c")
				g.Task("b", noop).After("a")
				g.Task("c", noop).After("b")
			},
			msg: "cycle detected: a -> b -> c -> a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			tt.build(g)
			_, err := g.Plan()
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidGraph))
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPlan_OrderIsDeterministic(t *testing.T) {
	g := New()
	g.Task("clean", noop)
	g.Task("css:fonts", noop).After("clean")
	g.Task("css:styles", noop).After("clean")
	g.Group("css", "css:fonts", "css:styles")
	g.Task("js", noop).After("clean")
	g.Group("build", "css", "js")

	p, err := g.Plan()
	require.NoError(t, err)
	require.Equal(t, []string{"clean", "css:fonts", "css:styles", "css", "js", "build"}, p.Order())

	d, ok := p.Depth("build")
	require.True(t, ok)
	require.Equal(t, 3, d)
	require.Equal(t, []string{"css", "js"}, p.Predecessors("build"))
	require.Contains(t, p.Edges(), Edge{From: "clean", To: "js"})
}

func TestPlan_Subset(t *testing.T) {
	g := New()
	g.Task("clean", noop)
	g.Task("scan", noop)
	g.Task("data", noop)
	g.Task("styles", noop).After("clean", "scan")
	g.Task("pages", noop).After("clean", "scan", "data")

	p, err := g.Plan()
	require.NoError(t, err)

	sub, err := p.Subset("styles")
	require.NoError(t, err)
	require.Equal(t, []string{"clean", "scan", "styles"}, sub.Order())

	_, err = p.Subset("missing")
	require.ErrorIs(t, err, ErrInvalidGraph)
}
