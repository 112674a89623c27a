package taskgraph

import (
	"container/heap"
	"sort"
)

// Edge is a predecessor relationship: From must finish before To starts.
type Edge struct {
	From string
	To   string
}

// Plan is an immutable, validated graph. It is safe for concurrent read access.
type Plan struct {
	tasks    []*Task // declaration order
	index    map[string]int
	incoming [][]int
	outgoing [][]int
	order    []int // deterministic topological order
	rank     []int // position of each task in order
	depth    []int
}

// Plan validates the graph and freezes it.
//
// Validation rejects:
//   - empty or duplicate task names
//   - predecessors referencing unknown tasks
//   - self-loops
//   - any cycle (direct or indirect)
func (g *Graph) Plan() (*Plan, error) {
	if len(g.errs) > 0 {
		return nil, g.errs[0]
	}

	p := &Plan{
		tasks:    make([]*Task, len(g.tasks)),
		index:    make(map[string]int, len(g.tasks)),
		incoming: make([][]int, len(g.tasks)),
		outgoing: make([][]int, len(g.tasks)),
	}
	copy(p.tasks, g.tasks)
	for i, t := range p.tasks {
		p.index[t.Name] = i
	}

	for i, t := range p.tasks {
		seen := make(map[int]struct{}, len(t.Deps))
		for _, dep := range t.Deps {
			j, ok := p.index[dep]
			if !ok {
				return nil, invalidf("task %q depends on unknown task %q", t.Name, dep)
			}
			if j == i {
				return nil, invalidf("self-loop: %q", t.Name)
			}
			if _, dup := seen[j]; dup {
				continue
			}
			seen[j] = struct{}{}
			p.incoming[i] = append(p.incoming[i], j)
			p.outgoing[j] = append(p.outgoing[j], i)
		}
	}
	for i := range p.tasks {
		sort.Ints(p.incoming[i])
		sort.Ints(p.outgoing[i])
	}

	p.order = p.topoOrder()
	if len(p.order) != len(p.tasks) {
		return nil, cycleError(p.findCycle())
	}
	p.rank = make([]int, len(p.tasks))
	for pos, idx := range p.order {
		p.rank[idx] = pos
	}
	p.depth = p.computeDepth()
	return p, nil
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoOrder runs Kahn's algorithm; ties are broken by declaration order.
func (p *Plan) topoOrder() []int {
	indeg := make([]int, len(p.tasks))
	for i := range p.tasks {
		indeg[i] = len(p.incoming[i])
	}

	ready := &intMinHeap{}
	for i, d := range indeg {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(p.tasks))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range p.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// findCycle returns one stable cycle witness, first node repeated at the end.
func (p *Plan) findCycle() []string {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(p.tasks))
	stack := make([]int, 0, len(p.tasks))
	var cycle []int

	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		stack = append(stack, u)
		for _, v := range p.outgoing[u] {
			switch color[v] {
			case white:
				if dfs(v) {
					return true
				}
			case gray:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == v {
						cycle = append(cycle, stack[i:]...)
						cycle = append(cycle, v)
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[u] = black
		return false
	}

	for i := range p.tasks {
		if color[i] == white && dfs(i) {
			break
		}
	}

	names := make([]string, 0, len(cycle))
	for _, idx := range cycle {
		names = append(names, p.tasks[idx].Name)
	}
	return names
}

func (p *Plan) computeDepth() []int {
	depth := make([]int, len(p.tasks))
	for _, u := range p.order {
		for _, parent := range p.incoming[u] {
			if d := depth[parent] + 1; d > depth[u] {
				depth[u] = d
			}
		}
	}
	return depth
}

// Order returns task names in deterministic topological order.
func (p *Plan) Order() []string {
	names := make([]string, 0, len(p.order))
	for _, idx := range p.order {
		names = append(names, p.tasks[idx].Name)
	}
	return names
}

// Len returns the number of tasks in the plan.
func (p *Plan) Len() int { return len(p.tasks) }

// Depth returns the longest path length from any root to the named task.
func (p *Plan) Depth(name string) (int, bool) {
	i, ok := p.index[name]
	if !ok {
		return 0, false
	}
	return p.depth[i], true
}

// Predecessors returns the direct predecessors of a task in topological order.
func (p *Plan) Predecessors(name string) []string {
	i, ok := p.index[name]
	if !ok {
		return nil
	}
	return p.namesByRank(p.incoming[i])
}

// Edges returns all predecessor relationships in topological order of their target.
func (p *Plan) Edges() []Edge {
	var out []Edge
	for _, to := range p.order {
		for _, from := range p.namesByRank(p.incoming[to]) {
			out = append(out, Edge{From: from, To: p.tasks[to].Name})
		}
	}
	return out
}

func (p *Plan) namesByRank(idx []int) []string {
	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.Slice(sorted, func(a, b int) bool { return p.rank[sorted[a]] < p.rank[sorted[b]] })
	names := make([]string, 0, len(sorted))
	for _, i := range sorted {
		names = append(names, p.tasks[i].Name)
	}
	return names
}

// Subset returns a plan restricted to the targets and their transitive predecessors.
func (p *Plan) Subset(targets ...string) (*Plan, error) {
	keep := make(map[int]bool)
	var visit func(i int)
	visit = func(i int) {
		if keep[i] {
			return
		}
		keep[i] = true
		for _, j := range p.incoming[i] {
			visit(j)
		}
	}
	for _, name := range targets {
		i, ok := p.index[name]
		if !ok {
			return nil, invalidf("unknown target %q", name)
		}
		visit(i)
	}

	g := New()
	for i, t := range p.tasks {
		if !keep[i] {
			continue
		}
		g.Task(t.Name, t.Run).After(t.Deps...)
	}
	return g.Plan()
}
