package graph

import (
	"fmt"
	"sort"

	"github.com/joshharrison/planloom/internal/model"
)

// Virtual node ids used when a graph gets a single synthetic source and sink.
const (
	SourceID = -1
	SinkID   = -2
)

// New builds the graph induced by the selected task ids: nodes are the
// selected tasks that exist, and there is an edge a -> b iff b is one of a's
// successors and b is selected. A nil selection selects every task.
// New does not reject cycles; see BuildFromTasks.
func New(tasks []model.Task, selected []int) *TaskGraph {
	g := &TaskGraph{
		Tasks:  make(map[int]*Node),
		Adj:    make(map[int][]int),
		RevAdj: make(map[int][]int),
	}

	var want map[int]bool
	if selected != nil {
		want = make(map[int]bool, len(selected))
		for _, id := range selected {
			want[id] = true
		}
	}

	byID := make(map[int]model.Task, len(tasks))
	for _, t := range tasks {
		if want != nil && !want[t.ID] {
			continue
		}
		byID[t.ID] = t
		g.Tasks[t.ID] = &Node{
			ID:          t.ID,
			Description: t.Description,
			Col:         t.Col,
			Duration:    t.Duration,
		}
	}

	// Edges come from successors; predecessors are their mirror and add
	// nothing, but are read too so a half-mirrored input still yields the
	// full edge set.
	edgeSet := make(map[[2]int]bool)
	addEdge := func(from, to int) {
		key := [2]int{from, to}
		if edgeSet[key] || from == to {
			return
		}
		edgeSet[key] = true
		g.Adj[from] = append(g.Adj[from], to)
		g.RevAdj[to] = append(g.RevAdj[to], from)
	}
	for id, t := range byID {
		for _, succ := range t.Successors {
			if _, ok := g.Tasks[succ]; ok {
				addEdge(id, succ)
			}
		}
		for _, pred := range t.Predecessors {
			if _, ok := g.Tasks[pred]; ok {
				addEdge(pred, id)
			}
		}
	}

	g.reindex()
	return g
}

// BuildFromTasks is New followed by a cycle check.
func BuildFromTasks(tasks []model.Task, selected []int) (*TaskGraph, error) {
	g := New(tasks, selected)
	if cycle := g.DetectCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCycleDetected, cycle)
	}
	return g, nil
}

// reindex sorts adjacency lists and recomputes roots and leaves.
func (g *TaskGraph) reindex() {
	for k := range g.Adj {
		sort.Ints(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Ints(g.RevAdj[k])
	}

	g.Roots, g.Leaves = nil, nil
	for _, id := range g.IDs() {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (g *TaskGraph) DetectCycle() []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[int]int)
	parent := make(map[int]int)

	var dfs func(node int) []int
	dfs = func(node int) []int {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				cycle := []int{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range g.IDs() {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// IDs returns node ids in ascending order.
func (g *TaskGraph) IDs() []int {
	ids := make([]int, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// TaskCount returns the number of tasks in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.Tasks)
}

// EdgeCount returns the number of precedence edges.
func (g *TaskGraph) EdgeCount() int {
	n := 0
	for _, succs := range g.Adj {
		n += len(succs)
	}
	return n
}

// WithEndpoints returns a copy of g with a zero-duration virtual source
// linked to every root and a virtual sink linked from every leaf. The
// original graph is left untouched.
func (g *TaskGraph) WithEndpoints() *TaskGraph {
	c := &TaskGraph{
		Tasks:  make(map[int]*Node, len(g.Tasks)+2),
		Adj:    make(map[int][]int, len(g.Adj)+1),
		RevAdj: make(map[int][]int, len(g.RevAdj)+1),
	}
	for id, n := range g.Tasks {
		nc := *n
		c.Tasks[id] = &nc
	}
	for id, succs := range g.Adj {
		c.Adj[id] = append([]int(nil), succs...)
	}
	for id, preds := range g.RevAdj {
		c.RevAdj[id] = append([]int(nil), preds...)
	}

	c.Tasks[SourceID] = &Node{ID: SourceID, Description: "source", Virtual: true}
	c.Tasks[SinkID] = &Node{ID: SinkID, Description: "sink", Virtual: true}
	for _, r := range g.Roots {
		c.Adj[SourceID] = append(c.Adj[SourceID], r)
		c.RevAdj[r] = append(c.RevAdj[r], SourceID)
	}
	for _, l := range g.Leaves {
		c.Adj[l] = append(c.Adj[l], SinkID)
		c.RevAdj[SinkID] = append(c.RevAdj[SinkID], l)
	}
	c.reindex()
	return c
}

// Filter returns the subgraph of tasks matching the predicate. Edges to
// filtered-out tasks are dropped.
func (g *TaskGraph) Filter(pred func(*Node) bool) *TaskGraph {
	c := &TaskGraph{
		Tasks:  make(map[int]*Node),
		Adj:    make(map[int][]int),
		RevAdj: make(map[int][]int),
	}
	for id, n := range g.Tasks {
		if pred(n) {
			nc := *n
			c.Tasks[id] = &nc
		}
	}
	for from, succs := range g.Adj {
		if _, ok := c.Tasks[from]; !ok {
			continue
		}
		for _, to := range succs {
			if _, ok := c.Tasks[to]; ok {
				c.Adj[from] = append(c.Adj[from], to)
				c.RevAdj[to] = append(c.RevAdj[to], from)
			}
		}
	}
	c.reindex()
	return c
}

// Components returns the number of weakly connected components.
func (g *TaskGraph) Components() int {
	seen := make(map[int]bool, len(g.Tasks))
	n := 0
	for _, id := range g.IDs() {
		if seen[id] {
			continue
		}
		n++
		stack := []int{id}
		seen[id] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range append(append([]int(nil), g.Adj[cur]...), g.RevAdj[cur]...) {
				if !seen[next] {
					seen[next] = true
					stack = append(stack, next)
				}
			}
		}
	}
	return n
}
