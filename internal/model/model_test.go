package model

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/planloom/internal/clock"
)

var jan1 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m, err := New(DefaultWindow(clock.Fixed(jan1)))
	require.NoError(t, err)
	return m
}

// checkInvariants asserts the universal invariants hold.
func checkInvariants(t *testing.T, m *Model) {
	t.Helper()
	w := m.Window()
	union := map[string]struct{}{}
	seen := map[int]bool{}
	for _, task := range m.Tasks() {
		assert.False(t, seen[task.ID], "duplicate task id %d", task.ID)
		seen[task.ID] = true
		assert.LessOrEqual(t, task.ID, m.TaskIDCounter())
		assert.GreaterOrEqual(t, task.Col, 0)
		assert.LessOrEqual(t, task.End(), w.Days)
		assert.GreaterOrEqual(t, task.Row, 0)
		assert.Less(t, task.Row, w.MaxRows)
		assert.NotContains(t, task.Successors, task.ID)
		for _, s := range task.Successors {
			other, err := m.GetTask(s)
			require.NoError(t, err)
			assert.Contains(t, other.Predecessors, task.ID, "mirror %d->%d", task.ID, s)
		}
		for _, p := range task.Predecessors {
			other, err := m.GetTask(p)
			require.NoError(t, err)
			assert.Contains(t, other.Successors, task.ID, "mirror %d->%d", p, task.ID)
		}
		for _, tag := range task.Tags {
			union[tag] = struct{}{}
		}
	}
	for _, r := range m.Resources() {
		assert.LessOrEqual(t, r.ID, m.ResourceIDCounter())
		assert.Len(t, r.Capacity, w.Days)
		for _, c := range r.Capacity {
			assert.GreaterOrEqual(t, c, 0.0)
		}
		for _, tag := range r.Tags {
			union[tag] = struct{}{}
		}
	}
	want := make([]string, 0, len(union))
	for tag := range union {
		want = append(want, tag)
	}
	slices.Sort(want)
	assert.Equal(t, want, m.AllTags())
}

func TestNewRejectsEmptyWindow(t *testing.T) {
	_, err := New(Window{Days: 0, MaxRows: 5})
	assert.ErrorIs(t, err, ErrInvalidBounds)
}

func TestDefaultWindow(t *testing.T) {
	w := DefaultWindow(clock.Fixed(jan1.Add(15 * time.Hour)))
	assert.Equal(t, 100, w.Days)
	assert.Equal(t, 50, w.MaxRows)
	assert.Equal(t, jan1, w.StartDate)
	assert.Equal(t, jan1, w.SetDate)
}

func TestAddTaskAssignsIDsAndDefaults(t *testing.T) {
	m := newTestModel(t)

	a, err := m.AddTask(TaskInput{Row: 0, Col: 0, Duration: 2, Description: "A", Tags: []string{"x"}})
	require.NoError(t, err)
	b, err := m.AddTask(TaskInput{Row: 1, Col: 3, Duration: 1, Description: "B", Color: "Gold"})
	require.NoError(t, err)

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, DefaultColor, a.Color)
	assert.Equal(t, "Gold", b.Color)
	assert.True(t, m.HasTag("x"))
	checkInvariants(t, m)
}

func TestAddTaskValidation(t *testing.T) {
	tests := []struct {
		name string
		in   TaskInput
		err  error
	}{
		{"zero duration", TaskInput{Duration: 0}, ErrInvalidBounds},
		{"negative col", TaskInput{Col: -1, Duration: 1}, ErrInvalidBounds},
		{"past end", TaskInput{Col: 99, Duration: 2}, ErrInvalidBounds},
		{"row too high", TaskInput{Row: 50, Duration: 1}, ErrInvalidBounds},
		{"bad color", TaskInput{Duration: 1, Color: "Mauve"}, ErrInvalidColor},
		{"bad tag", TaskInput{Duration: 1, Tags: []string{"no spaces"}}, ErrInvalidTag},
		{"missing predecessor", TaskInput{Duration: 1, Predecessors: []int{42}}, ErrNotFound},
		{"missing resource", TaskInput{Duration: 1, Resources: map[int]float64{7: 1}}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			_, err := m.AddTask(tt.in)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 0, m.TaskCount())
			assert.Equal(t, 0, m.TaskIDCounter())
		})
	}
}

func TestAddTaskWithLinksMirrors(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddTask(TaskInput{Duration: 1})
	c, _ := m.AddTask(TaskInput{Col: 5, Duration: 1})

	b, err := m.AddTask(TaskInput{Col: 2, Duration: 1, Predecessors: []int{a.ID}, Successors: []int{c.ID}})
	require.NoError(t, err)

	got, _ := m.GetTask(a.ID)
	assert.Equal(t, []int{b.ID}, got.Successors)
	got, _ = m.GetTask(c.ID)
	assert.Equal(t, []int{b.ID}, got.Predecessors)
	checkInvariants(t, m)
}

func TestAddThenDeleteLeavesTasksUnchanged(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddTask(TaskInput{Duration: 3, Tags: []string{"keep"}})
	before := m.Tasks()

	b, err := m.AddTask(TaskInput{Col: 4, Duration: 2, Predecessors: []int{a.ID}, Tags: []string{"temp"}})
	require.NoError(t, err)
	require.NoError(t, m.DeleteTask(b.ID))

	assert.Equal(t, before, m.Tasks())
	assert.False(t, m.HasTag("temp"))
	assert.Equal(t, 2, m.TaskIDCounter(), "counter stays monotonic")

	c, _ := m.AddTask(TaskInput{Duration: 1})
	assert.Equal(t, 3, c.ID, "ids are never reused")
	checkInvariants(t, m)
}

func TestDeleteMissingTask(t *testing.T) {
	m := newTestModel(t)
	assert.ErrorIs(t, m.DeleteTask(9), ErrNotFound)
}

func TestPredecessorLinks(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddTask(TaskInput{Duration: 1})
	b, _ := m.AddTask(TaskInput{Col: 1, Duration: 1})

	assert.ErrorIs(t, m.AddPredecessor(a.ID, a.ID), ErrSelfLink)
	assert.ErrorIs(t, m.AddSuccessor(a.ID, 99), ErrNotFound)

	require.NoError(t, m.AddPredecessor(b.ID, a.ID))
	checkInvariants(t, m)
	got, _ := m.GetTask(a.ID)
	assert.Equal(t, []int{b.ID}, got.Successors)

	require.NoError(t, m.RemoveSuccessor(a.ID, b.ID))
	ga, _ := m.GetTask(a.ID)
	gb, _ := m.GetTask(b.ID)
	assert.Empty(t, ga.Successors)
	assert.Empty(t, gb.Predecessors)
	checkInvariants(t, m)
}

func TestUpdateTaskPartialAndMirrors(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddTask(TaskInput{Duration: 1})
	b, _ := m.AddTask(TaskInput{Col: 1, Duration: 1, Predecessors: []int{a.ID}})
	c, _ := m.AddTask(TaskInput{Col: 2, Duration: 1})

	got, err := m.UpdateTask(b.ID, TaskPatch{
		Description:  Ptr("renamed"),
		Predecessors: &[]int{c.ID},
		Tags:         &[]string{"t1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Description)
	assert.Equal(t, 1, got.Col, "untouched field kept")

	ga, _ := m.GetTask(a.ID)
	gc, _ := m.GetTask(c.ID)
	assert.Empty(t, ga.Successors)
	assert.Equal(t, []int{b.ID}, gc.Successors)
	checkInvariants(t, m)
}

func TestUpdateTaskRejectsWithoutMutation(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddTask(TaskInput{Col: 10, Duration: 5, Tags: []string{"a"}})
	before := m.Tasks()

	_, err := m.MoveTask(a.ID, 0, 97)
	assert.ErrorIs(t, err, ErrInvalidBounds)
	_, err = m.ResizeTask(a.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidBounds)
	_, err = m.UpdateTask(a.ID, TaskPatch{Tags: &[]string{"ok", "not ok"}})
	assert.ErrorIs(t, err, ErrInvalidTag)

	assert.Equal(t, before, m.Tasks())
	checkInvariants(t, m)
}

func TestResources(t *testing.T) {
	m := newTestModel(t)

	r, err := m.AddResource("Dev", true)
	require.NoError(t, err)
	assert.Equal(t, 1, r.ID)
	assert.Len(t, r.Capacity, 100)
	assert.Equal(t, 1.0, r.Capacity[0])

	_, err = m.AddResource("Dev", false)
	assert.ErrorIs(t, err, ErrDuplicateName)

	// 2023-01-01 is a Sunday.
	ops, err := m.AddResource("Ops", false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ops.Capacity[0])
	assert.Equal(t, 1.0, ops.Capacity[1])
	assert.Equal(t, 0.0, ops.Capacity[6])

	assert.ErrorIs(t, m.UpdateResourceName(ops.ID, "Dev"), ErrDuplicateName)
	require.NoError(t, m.UpdateResourceName(ops.ID, "Ops2"))

	require.NoError(t, m.UpdateResourceCapacity(r.ID, 3, -2))
	require.NoError(t, m.UpdateResourceCapacityRange(r.ID, 10, 12, 2.5))
	assert.ErrorIs(t, m.UpdateResourceCapacityRange(r.ID, 90, 100, 1), ErrInvalidBounds)
	got, _ := m.GetResource(r.ID)
	assert.Equal(t, 0.0, got.Capacity[3], "clamped to zero")
	assert.Equal(t, []float64{2.5, 2.5, 2.5}, got.Capacity[10:13])
	checkInvariants(t, m)
}

func TestRemoveResourceStripsAllocations(t *testing.T) {
	m := newTestModel(t)
	r, _ := m.AddResource("R", true)
	task, _ := m.AddTask(TaskInput{Duration: 2, Resources: map[int]float64{r.ID: 0.5}})

	require.NoError(t, m.RemoveResource(r.ID))
	got, _ := m.GetTask(task.ID)
	assert.Empty(t, got.Resources)
	assert.ErrorIs(t, m.RemoveResource(r.ID), ErrNotFound)
}

func TestAllocation(t *testing.T) {
	m := newTestModel(t)
	r, _ := m.AddResource("R", true)
	task, _ := m.AddTask(TaskInput{Duration: 2})

	require.NoError(t, m.UpdateTaskResourceAllocation(task.ID, r.ID, 0.75))
	got, _ := m.GetTask(task.ID)
	assert.Equal(t, map[int]float64{r.ID: 0.75}, got.Resources)

	require.NoError(t, m.UpdateTaskResourceAllocation(task.ID, r.ID, 0))
	got, _ = m.GetTask(task.ID)
	assert.Empty(t, got.Resources)

	assert.ErrorIs(t, m.UpdateTaskResourceAllocation(task.ID, 99, 1), ErrNotFound)
}

func TestWorksWeekendsToggle(t *testing.T) {
	m := newTestModel(t)
	r, _ := m.AddResource("R", true)
	require.NoError(t, m.SetResourceWorksWeekends(r.ID, false))
	got, _ := m.GetResource(r.ID)
	assert.Equal(t, 0.0, got.Capacity[0])
	assert.Equal(t, 1.0, got.Capacity[1])
}

func TestResourceLoadingOverlap(t *testing.T) {
	m := newTestModel(t)
	r, _ := m.AddResource("R", true)
	_, err := m.AddTask(TaskInput{Col: 0, Duration: 3, Resources: map[int]float64{r.ID: 0.5}})
	require.NoError(t, err)
	_, err = m.AddTask(TaskInput{Row: 1, Col: 1, Duration: 3, Resources: map[int]float64{r.ID: 0.7}})
	require.NoError(t, err)

	load := m.ResourceLoading()[r.ID]
	want := []float64{0.5, 1.2, 1.2, 0.7, 0.0}
	for k, w := range want {
		assert.InDelta(t, w, load[k], 1e-9, "day %d", k)
	}

	over, err := m.OverloadedDays(r.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, over)
}

func TestOverloadToleratesRounding(t *testing.T) {
	m := newTestModel(t)
	r, _ := m.AddResource("R", true)
	require.NoError(t, m.UpdateResourceCapacity(r.ID, 0, 0.3))
	_, err := m.AddTask(TaskInput{Col: 0, Duration: 1, Resources: map[int]float64{r.ID: 0.1}})
	require.NoError(t, err)
	_, err = m.AddTask(TaskInput{Row: 1, Col: 0, Duration: 1, Resources: map[int]float64{r.ID: 0.2}})
	require.NoError(t, err)

	load := m.ResourceLoading()[r.ID]
	for range 10 {
		assert.Equal(t, load[0], m.ResourceLoading()[r.ID][0], "summation order is stable")
	}

	over, err := m.OverloadedDays(r.ID)
	require.NoError(t, err)
	assert.Empty(t, over)
	assert.False(t, Overloaded(0.1+0.2, 0.3))
	assert.True(t, Overloaded(0.31, 0.3))
	assert.True(t, Overloaded(0.5, 0))
}

func TestResourceLoadingIsAdditive(t *testing.T) {
	m := newTestModel(t)
	r, _ := m.AddResource("R", true)
	_, _ = m.AddTask(TaskInput{Col: 2, Duration: 5, Resources: map[int]float64{r.ID: 1}})
	before := m.ResourceLoading()[r.ID]

	_, err := m.AddTask(TaskInput{Row: 3, Col: 4, Duration: 2, Resources: map[int]float64{r.ID: 0.25}})
	require.NoError(t, err)
	after := m.ResourceLoading()[r.ID]

	for k := range after {
		delta := 0.0
		if k >= 4 && k < 6 {
			delta = 0.25
		}
		assert.InDelta(t, before[k]+delta, after[k], 1e-9, "day %d", k)
	}
}

func TestTagOperations(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddTask(TaskInput{Duration: 1, Tags: []string{"x"}})
	b, _ := m.AddTask(TaskInput{Col: 1, Duration: 1})
	r, _ := m.AddResource("R", true)

	require.NoError(t, m.AddTagsToTask(b.ID, "x", "y"))
	require.NoError(t, m.AddTagsToResource(r.ID, "team"))
	assert.Equal(t, []string{"team", "x", "y"}, m.AllTags())

	assert.Len(t, m.TasksByTags([]string{"x"}, false), 2)
	assert.Len(t, m.TasksByTags([]string{"x", "y"}, true), 1)
	assert.Len(t, m.ResourcesByTags([]string{"team"}, false), 1)

	require.NoError(t, m.RemoveTagsFromTask(b.ID, "y"))
	require.NoError(t, m.SetTaskTags(a.ID, nil))
	require.NoError(t, m.SetResourceTags(r.ID, []string{"ops"}))
	assert.Equal(t, []string{"ops", "x"}, m.AllTags())

	assert.ErrorIs(t, m.AddTagsToTask(a.ID, "bad tag"), ErrInvalidTag)
	assert.ErrorIs(t, m.RemoveTagsFromResource(42, "x"), ErrNotFound)

	m.RefreshAllTags()
	checkInvariants(t, m)
}

func TestUpdateWindow(t *testing.T) {
	m := newTestModel(t)
	r, _ := m.AddResource("R", false)
	_, _ = m.AddTask(TaskInput{Row: 4, Col: 10, Duration: 10})

	assert.ErrorIs(t, m.UpdateWindow(15, 50, jan1), ErrInvalidBounds)
	assert.ErrorIs(t, m.UpdateWindow(100, 4, jan1), ErrInvalidBounds)

	require.NoError(t, m.UpdateWindow(120, 10, jan1.AddDate(0, 0, 3)))
	got, _ := m.GetResource(r.ID)
	assert.Len(t, got.Capacity, 120)
	// day 104 is 2023-04-15, a Saturday
	assert.Equal(t, 0.0, got.Capacity[104])
	assert.Equal(t, 10, m.Window().MaxRows)
	checkInvariants(t, m)

	require.NoError(t, m.UpdateWindow(20, 10, jan1))
	got, _ = m.GetResource(r.ID)
	assert.Len(t, got.Capacity, 20)
}

func TestCloneIsIndependent(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddTask(TaskInput{Duration: 1, Tags: []string{"x"}})
	c := m.Clone()

	_, err := c.MoveTask(a.ID, 2, 2)
	require.NoError(t, err)
	require.NoError(t, c.AddTagsToTask(a.ID, "y"))

	got, _ := m.GetTask(a.ID)
	assert.Equal(t, 0, got.Col)
	assert.False(t, m.HasTag("y"))

	m.ReplaceWith(c)
	got, _ = m.GetTask(a.ID)
	assert.Equal(t, 2, got.Col)
	assert.True(t, m.HasTag("y"))
}

func TestRestore(t *testing.T) {
	w := DefaultWindow(clock.Fixed(jan1))
	m, err := Restore(w,
		[]Task{
			{ID: 3, Col: 0, Duration: 2, Successors: []int{7, 3, 99}, Resources: map[int]float64{5: 1}, Tags: []string{"b", "a"}},
			{ID: 7, Col: 2, Duration: 2, Resources: map[int]float64{5: 0.5, 9: 1}},
		},
		[]Resource{{ID: 5, Name: "R", Capacity: []float64{2, -1}, WorksWeekends: true}},
	)
	require.NoError(t, err)

	assert.Equal(t, 7, m.TaskIDCounter())
	assert.Equal(t, 5, m.ResourceIDCounter())
	seven, _ := m.GetTask(7)
	assert.Equal(t, []int{3}, seven.Predecessors, "mirror rebuilt")
	assert.Equal(t, map[int]float64{5: 0.5}, seven.Resources, "dangling allocation dropped")
	three, _ := m.GetTask(3)
	assert.Equal(t, []int{7}, three.Successors, "self and dangling links dropped")
	assert.Equal(t, []string{"a", "b"}, three.Tags)
	r, _ := m.GetResource(5)
	assert.Equal(t, []float64{2, 0, 1}, r.Capacity[:3])
	assert.True(t, m.HasTag("a"))
	checkInvariants(t, m)

	_, err = Restore(w, []Task{{ID: 1, Col: 99, Duration: 5}}, nil)
	assert.ErrorIs(t, err, ErrInvalidBounds)
}

func TestPalette(t *testing.T) {
	assert.Len(t, Palette(), 42)
	hex, ok := ColorHex(DefaultColor)
	assert.True(t, ok)
	assert.Equal(t, "#00FFFF", hex)
	assert.False(t, ValidColor("cyan"))
}
