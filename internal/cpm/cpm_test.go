package cpm

import (
	"errors"
	"testing"
	"time"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/graph"
	"github.com/joshharrison/planloom/internal/model"
)

var testCal = calendar.New(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 100)

type taskDef struct {
	id, col, dur int
	succ         []int
}

func buildTestGraph(t *testing.T, defs []taskDef, selected []int) *graph.TaskGraph {
	t.Helper()
	tasks := make([]model.Task, 0, len(defs))
	for _, s := range defs {
		tasks = append(tasks, model.Task{ID: s.id, Col: s.col, Duration: s.dur, Successors: s.succ})
	}
	return graph.New(tasks, selected)
}

func analyze(t *testing.T, g *graph.TaskGraph) *CPMResult {
	t.Helper()
	result, err := Analyze(g, testCal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestAnalyze_LinearChain(t *testing.T) {
	// A(0,2) -> B(2,3) -> C(5,4)
	g := buildTestGraph(t, []taskDef{
		{1, 0, 2, []int{2}},
		{2, 2, 3, []int{3}},
		{3, 5, 4, nil},
	}, []int{1, 2, 3})

	result := analyze(t, g)

	if result.TotalDuration != 9 {
		t.Errorf("expected total duration 9, got %d", result.TotalDuration)
	}
	assertPath(t, result.CriticalPath, 1, 2, 3)
	if len(result.Waves) != 3 {
		t.Errorf("expected 3 waves, got %d", len(result.Waves))
	}

	assertSchedule(t, result.Tasks[1], 0, 2, 0, 2, 0, true)
	assertSchedule(t, result.Tasks[2], 2, 5, 2, 5, 0, true)
	assertSchedule(t, result.Tasks[3], 5, 9, 5, 9, 0, true)

	if got := calendar.FormatDate(result.Tasks[3].EarlyFinishDate); got != "2023-01-09" {
		t.Errorf("expected C to finish 2023-01-09, got %s", got)
	}
}

func TestAnalyze_ParallelPaths(t *testing.T) {
	// A(2) -> B(5) -> D(4)
	// A(2) -> C(3) -> D(4)
	g := buildTestGraph(t, []taskDef{
		{1, 0, 2, []int{2, 3}},
		{2, 2, 5, []int{4}},
		{3, 2, 3, []int{4}},
		{4, 7, 4, nil},
	}, nil)

	result := analyze(t, g)

	if result.TotalDuration != 11 {
		t.Errorf("expected total duration 11, got %d", result.TotalDuration)
	}
	assertPath(t, result.CriticalPath, 1, 2, 4)
	if result.Tasks[3].IsCritical {
		t.Error("expected task C to NOT be critical")
	}
	if result.Tasks[3].Slack != 2 {
		t.Errorf("expected C float=2, got %d", result.Tasks[3].Slack)
	}
	assertSchedule(t, result.Tasks[3], 2, 5, 4, 7, 2, false)
}

func TestAnalyze_NoDependencies(t *testing.T) {
	g := buildTestGraph(t, []taskDef{
		{1, 0, 2, nil},
		{2, 0, 5, nil},
		{3, 10, 3, nil},
	}, nil)

	result := analyze(t, g)

	assertPath(t, result.CriticalPath, 2)
	if result.TotalDuration != 5 {
		t.Errorf("expected total duration 5, got %d", result.TotalDuration)
	}
	if len(result.Tasks) != 1 {
		t.Fatalf("expected single-entry analysis, got %d entries", len(result.Tasks))
	}
	assertSchedule(t, result.Tasks[2], 0, 5, 0, 5, 0, true)
}

func TestAnalyze_Empty(t *testing.T) {
	result := analyze(t, buildTestGraph(t, nil, nil))
	if !result.Empty() {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestAnalyze_Cycle(t *testing.T) {
	g := buildTestGraph(t, []taskDef{
		{1, 0, 1, []int{2}},
		{2, 1, 1, []int{1}},
	}, nil)

	_, err := Analyze(g, testCal)
	if !errors.Is(err, model.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestAnalyze_MultipleRootsAndLeaves(t *testing.T) {
	// 1(3) -> 3(2)
	// 2(1) -> 3
	// 2    -> 4(1)
	g := buildTestGraph(t, []taskDef{
		{1, 0, 3, []int{3}},
		{2, 0, 1, []int{3, 4}},
		{3, 3, 2, nil},
		{4, 1, 1, nil},
	}, nil)

	result := analyze(t, g)

	if result.TotalDuration != 5 {
		t.Errorf("expected total duration 5, got %d", result.TotalDuration)
	}
	assertPath(t, result.CriticalPath, 1, 3)
	for _, id := range []int{graph.SourceID, graph.SinkID} {
		if _, ok := result.Tasks[id]; ok {
			t.Errorf("virtual node %d leaked into the result", id)
		}
	}
	for _, id := range result.TopoOrder {
		if id < 0 {
			t.Errorf("virtual node %d leaked into topo order", id)
		}
	}
	assertSchedule(t, result.Tasks[4], 1, 2, 4, 5, 3, false)
	assertSchedule(t, result.Tasks[2], 0, 1, 2, 3, 2, false)
}

func TestAnalyze_DisconnectedCriticalChainsOrderedByES(t *testing.T) {
	// two independent chains of equal length 4: 1(1)->2(3) and 3(2)->4(2)
	g := buildTestGraph(t, []taskDef{
		{1, 0, 1, []int{2}},
		{2, 1, 3, nil},
		{3, 0, 2, []int{4}},
		{4, 2, 2, nil},
	}, nil)

	result := analyze(t, g)

	if result.TotalDuration != 4 {
		t.Errorf("expected total duration 4, got %d", result.TotalDuration)
	}
	assertPath(t, result.CriticalPath, 1, 3, 2, 4)
}

func TestAnalyze_FloatNonNegative(t *testing.T) {
	g := buildTestGraph(t, []taskDef{
		{1, 0, 4, []int{2, 3, 4}},
		{2, 4, 1, []int{5}},
		{3, 4, 6, []int{5}},
		{4, 4, 2, []int{5}},
		{5, 10, 1, nil},
		{6, 0, 2, nil},
	}, nil)

	result := analyze(t, g)

	for id, ts := range result.Tasks {
		if ts.Slack < 0 {
			t.Errorf("task %d has negative float %d", id, ts.Slack)
		}
	}
	// longest path 1 -> 3 -> 5 = 4 + 6 + 1
	if result.TotalDuration != 11 {
		t.Errorf("expected total duration 11, got %d", result.TotalDuration)
	}
	if result.Tasks[6].Slack != 9 {
		t.Errorf("expected isolated task 6 float 9, got %d", result.Tasks[6].Slack)
	}
}

func TestAnalyze_DatesUseAnchor(t *testing.T) {
	g := buildTestGraph(t, []taskDef{
		{1, 10, 2, []int{2}},
		{2, 12, 1, nil},
	}, nil)

	result := analyze(t, g)

	if result.AnchorDay != 10 {
		t.Fatalf("expected anchor day 10, got %d", result.AnchorDay)
	}
	if got := calendar.FormatDate(result.Tasks[2].EarlyStartDate); got != "2023-01-13" {
		t.Errorf("expected early start 2023-01-13, got %s", got)
	}
}

func assertPath(t *testing.T, got []int, want ...int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected critical path %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected critical path %v, got %v", want, got)
		}
	}
}

func assertSchedule(t *testing.T, ts *TaskSchedule, es, ef, ls, lf, slack int, critical bool) {
	t.Helper()
	if ts == nil {
		t.Fatal("missing schedule")
	}
	if ts.ES != es {
		t.Errorf("task %d: expected ES=%d, got %d", ts.TaskID, es, ts.ES)
	}
	if ts.EF != ef {
		t.Errorf("task %d: expected EF=%d, got %d", ts.TaskID, ef, ts.EF)
	}
	if ts.LS != ls {
		t.Errorf("task %d: expected LS=%d, got %d", ts.TaskID, ls, ts.LS)
	}
	if ts.LF != lf {
		t.Errorf("task %d: expected LF=%d, got %d", ts.TaskID, lf, ts.LF)
	}
	if ts.Slack != slack {
		t.Errorf("task %d: expected slack=%d, got %d", ts.TaskID, slack, ts.Slack)
	}
	if ts.IsCritical != critical {
		t.Errorf("task %d: expected critical=%v, got %v", ts.TaskID, critical, ts.IsCritical)
	}
}
