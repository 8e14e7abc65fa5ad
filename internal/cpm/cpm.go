package cpm

import (
	"fmt"
	"sort"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/graph"
	"github.com/joshharrison/planloom/internal/model"
)

// Analyze performs critical path method analysis on a task graph. Times are
// in days relative to the earliest planned start among the graph's tasks;
// cal turns them into dates.
//
// An empty graph yields an empty result. A graph without edges yields the
// single longest task. A cyclic graph yields model.ErrCycleDetected.
func Analyze(g *graph.TaskGraph, cal calendar.Calendar) (*CPMResult, error) {
	result := &CPMResult{Tasks: make(map[int]*TaskSchedule)}
	if g.TaskCount() == 0 {
		return result, nil
	}
	result.AnchorDay = anchorDay(g)

	if g.EdgeCount() == 0 {
		longest := longestTask(g)
		ts := &TaskSchedule{
			TaskID:     longest.ID,
			Duration:   longest.Duration,
			EF:         longest.Duration,
			LF:         longest.Duration,
			IsCritical: true,
		}
		result.Tasks[longest.ID] = ts
		result.CriticalPath = []int{longest.ID}
		result.TopoOrder = []int{longest.ID}
		result.TotalDuration = longest.Duration
		result.Waves = []Wave{{Index: 0, TaskIDs: []int{longest.ID}, IsCritical: true}}
		annotateDates(result, cal)
		return result, nil
	}

	if cycle := g.DetectCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCycleDetected, cycle)
	}

	work := g
	if len(g.Roots) > 1 || len(g.Leaves) > 1 {
		work = g.WithEndpoints()
	}

	order, err := topoSort(work)
	if err != nil {
		return nil, err
	}

	schedules := make(map[int]*TaskSchedule, len(order))
	for _, id := range order {
		schedules[id] = &TaskSchedule{TaskID: id, Duration: work.Tasks[id].Duration}
	}

	// Forward pass: ES = max(EF of all predecessors)
	for _, id := range order {
		ts := schedules[id]
		es := 0
		for _, pred := range work.RevAdj[id] {
			if ef := schedules[pred].EF; ef > es {
				es = ef
			}
		}
		ts.ES = es
		ts.EF = es + ts.Duration
	}

	total := 0
	for _, ts := range schedules {
		if ts.EF > total {
			total = ts.EF
		}
	}
	result.TotalDuration = total

	// Backward pass: LF = min(LS of all successors), leaves finish at the end.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := schedules[id]
		lf := total
		for _, succ := range work.Adj[id] {
			if ls := schedules[succ].LS; ls < lf {
				lf = ls
			}
		}
		ts.LF = lf
		ts.LS = lf - ts.Duration
		ts.Slack = ts.LS - ts.ES
		ts.IsCritical = ts.Slack == 0
	}

	// Scrub virtual nodes.
	for _, id := range order {
		if work.Tasks[id].Virtual {
			continue
		}
		result.Tasks[id] = schedules[id]
		result.TopoOrder = append(result.TopoOrder, id)
	}

	result.CriticalPath = orderCritical(g, result)
	result.Waves = computeWaves(result)
	annotateDates(result, cal)
	return result, nil
}

// orderCritical orders the critical tasks topologically on the subgraph they
// induce, or by early start when that subgraph is disconnected.
func orderCritical(g *graph.TaskGraph, result *CPMResult) []int {
	sub := g.Filter(func(n *graph.Node) bool {
		ts, ok := result.Tasks[n.ID]
		return ok && ts.IsCritical
	})
	if sub.TaskCount() == 0 {
		return nil
	}

	if sub.Components() == 1 {
		if order, err := topoSort(sub); err == nil {
			return order
		}
	}

	ids := sub.IDs()
	sort.SliceStable(ids, func(a, b int) bool {
		return result.Tasks[ids[a]].ES < result.Tasks[ids[b]].ES
	})
	return ids
}

// topoSort performs Kahn's algorithm for topological sorting.
func topoSort(g *graph.TaskGraph) ([]int, error) {
	inDegree := make(map[int]int)
	for id := range g.Tasks {
		inDegree[id] = len(g.RevAdj[id])
	}

	// Start with roots (in-degree 0), sorted for determinism
	var queue []int
	for id := range g.Tasks {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Ints(queue)

	var order []int
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []int
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Ints(newReady)
		queue = append(queue, newReady...)
	}

	if len(order) != len(g.Tasks) {
		return nil, fmt.Errorf("topological sort failed: %w (%d of %d tasks sorted)", model.ErrCycleDetected, len(order), len(g.Tasks))
	}

	return order, nil
}

// computeWaves groups tasks by their earliest start time.
func computeWaves(result *CPMResult) []Wave {
	esGroups := make(map[int][]int)
	for _, id := range result.TopoOrder {
		es := result.Tasks[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		taskIDs := esGroups[es]
		sort.Ints(taskIDs)

		hasCritical := false
		for _, id := range taskIDs {
			result.Tasks[id].Wave = i
			if result.Tasks[id].IsCritical {
				hasCritical = true
			}
		}

		// Sort critical tasks first within wave
		sort.SliceStable(taskIDs, func(a, b int) bool {
			aCrit := result.Tasks[taskIDs[a]].IsCritical
			bCrit := result.Tasks[taskIDs[b]].IsCritical
			return aCrit && !bCrit
		})

		waves[i] = Wave{
			Index:      i,
			TaskIDs:    taskIDs,
			IsCritical: hasCritical,
		}
	}

	return waves
}

func annotateDates(result *CPMResult, cal calendar.Calendar) {
	day := func(offset int) int { return result.AnchorDay + offset }
	for _, ts := range result.Tasks {
		ts.EarlyStartDate = cal.DateOfDay(day(ts.ES))
		ts.EarlyFinishDate = cal.DateOfDay(day(ts.EF - 1))
		ts.LateStartDate = cal.DateOfDay(day(ts.LS))
		ts.LateFinishDate = cal.DateOfDay(day(ts.LF - 1))
	}
}

func anchorDay(g *graph.TaskGraph) int {
	first := true
	anchor := 0
	for _, n := range g.Tasks {
		if n.Virtual {
			continue
		}
		if first || n.Col < anchor {
			anchor = n.Col
			first = false
		}
	}
	return anchor
}

// longestTask picks the task with the largest duration, lowest id on ties.
func longestTask(g *graph.TaskGraph) *graph.Node {
	var best *graph.Node
	for _, id := range g.IDs() {
		n := g.Tasks[id]
		if best == nil || n.Duration > best.Duration {
			best = n
		}
	}
	return best
}
