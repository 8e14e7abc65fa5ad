package graph

import (
	"errors"
	"testing"

	"github.com/joshharrison/planloom/internal/model"
)

// tasksWithSuccessors builds tasks 1..n, wiring successors from succ.
func tasksWithSuccessors(succ map[int][]int, n int) []model.Task {
	tasks := make([]model.Task, 0, n)
	for id := 1; id <= n; id++ {
		tasks = append(tasks, model.Task{ID: id, Duration: 1, Successors: succ[id]})
	}
	return tasks
}

func TestNew_SimpleDAG(t *testing.T) {
	// 1 -> 2 -> 4
	// 1 -> 3 -> 4
	tasks := tasksWithSuccessors(map[int][]int{1: {2, 3}, 2: {4}, 3: {4}}, 4)

	g, err := BuildFromTasks(tasks, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.TaskCount() != 4 {
		t.Errorf("expected 4 tasks, got %d", g.TaskCount())
	}
	if len(g.Roots) != 1 || g.Roots[0] != 1 {
		t.Errorf("expected roots=[1], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != 4 {
		t.Errorf("expected leaves=[4], got %v", g.Leaves)
	}
	if adj := g.Adj[1]; len(adj) != 2 {
		t.Errorf("expected 1 to precede 2 tasks, got %v", adj)
	}
	if rev := g.RevAdj[4]; len(rev) != 2 {
		t.Errorf("expected 4 to follow 2 tasks, got %v", rev)
	}
	if g.EdgeCount() != 4 {
		t.Errorf("expected 4 edges, got %d", g.EdgeCount())
	}
}

func TestNew_SelectionDropsOutsideEdges(t *testing.T) {
	tasks := tasksWithSuccessors(map[int][]int{1: {2}, 2: {3}}, 3)

	g := New(tasks, []int{1, 3})

	if g.TaskCount() != 2 {
		t.Errorf("expected 2 tasks, got %d", g.TaskCount())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("expected no edges once 2 is unselected, got %v", g.Adj)
	}
	if g.Components() != 2 {
		t.Errorf("expected 2 components, got %d", g.Components())
	}
}

func TestNew_PredecessorOnlyMirror(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Duration: 1},
		{ID: 2, Duration: 1, Predecessors: []int{1}},
	}

	g := New(tasks, nil)
	if len(g.Adj[1]) != 1 || g.Adj[1][0] != 2 {
		t.Errorf("expected edge 1 -> 2 from predecessor side, got %v", g.Adj)
	}
}

func TestBuildFromTasks_CycleDetection(t *testing.T) {
	tasks := tasksWithSuccessors(map[int][]int{1: {2}, 2: {3}, 3: {1}}, 3)

	_, err := BuildFromTasks(tasks, nil)
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	if !errors.Is(err, model.ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
}

func TestBuildFromTasks_CycleOutsideSelectionIgnored(t *testing.T) {
	tasks := tasksWithSuccessors(map[int][]int{1: {2}, 2: {3}, 3: {1}}, 3)

	if _, err := BuildFromTasks(tasks, []int{1, 2}); err != nil {
		t.Fatalf("selection {1,2} is acyclic, got %v", err)
	}
}

func TestDetectCycle_WithCycle(t *testing.T) {
	g := &TaskGraph{
		Tasks: map[int]*Node{1: {ID: 1}, 2: {ID: 2}, 3: {ID: 3}},
		Adj:   map[int][]int{1: {2}, 2: {3}, 3: {1}},
		RevAdj: map[int][]int{
			1: {3}, 2: {1}, 3: {2},
		},
	}

	cycle := g.DetectCycle()
	if cycle == nil {
		t.Fatal("expected cycle, got nil")
	}
	if len(cycle) < 3 {
		t.Errorf("expected cycle of length >= 3, got %v", cycle)
	}
}

func TestWithEndpoints(t *testing.T) {
	// two roots (1, 2), two leaves (3, 4)
	tasks := tasksWithSuccessors(map[int][]int{1: {3}, 2: {4}}, 4)
	g := New(tasks, nil)

	e := g.WithEndpoints()

	if len(e.Roots) != 1 || e.Roots[0] != SourceID {
		t.Errorf("expected single virtual root, got %v", e.Roots)
	}
	if len(e.Leaves) != 1 || e.Leaves[0] != SinkID {
		t.Errorf("expected single virtual leaf, got %v", e.Leaves)
	}
	if !e.Tasks[SourceID].Virtual || e.Tasks[SourceID].Duration != 0 {
		t.Error("source must be virtual with zero duration")
	}
	if _, ok := g.Tasks[SourceID]; ok {
		t.Error("original graph must not gain virtual nodes")
	}
	if len(g.Roots) != 2 {
		t.Errorf("original roots changed: %v", g.Roots)
	}
}

func TestFilter(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Duration: 1, Successors: []int{2}},
		{ID: 2, Duration: 5, Successors: []int{3}},
		{ID: 3, Duration: 2},
	}
	g := New(tasks, nil)

	filtered := g.Filter(func(n *Node) bool { return n.Duration < 5 })

	if filtered.TaskCount() != 2 {
		t.Errorf("expected 2 tasks after filter, got %d", filtered.TaskCount())
	}
	if _, ok := filtered.Tasks[2]; ok {
		t.Error("task 2 (duration 5) should have been filtered out")
	}
	if filtered.EdgeCount() != 0 {
		t.Errorf("edges through 2 must be dropped, got %v", filtered.Adj)
	}
}

func TestNew_Empty(t *testing.T) {
	g, err := BuildFromTasks(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TaskCount() != 0 {
		t.Errorf("expected 0 tasks, got %d", g.TaskCount())
	}
}
