package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/model"
)

var jan1 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func newModel(t *testing.T, start time.Time) *model.Model {
	t.Helper()
	m, err := model.New(model.Window{Days: 100, MaxRows: 10, StartDate: start, SetDate: start})
	require.NoError(t, err)
	return m
}

func addTask(t *testing.T, m *model.Model, col, dur int) int {
	t.Helper()
	task, err := m.AddTask(model.TaskInput{Row: 0, Col: col, Duration: dur})
	require.NoError(t, err)
	return task.ID
}

// recorder answers from fixed choices and remembers what it was asked.
type recorder struct {
	unreachable bool
	overflow    OverflowChoice
	asked       []int
}

func (r *recorder) Unreachable(t model.Task, _ int) bool {
	r.asked = append(r.asked, t.ID)
	return r.unreachable
}

func (r *recorder) Overflow(t model.Task, _ int) OverflowChoice {
	r.asked = append(r.asked, t.ID)
	return r.overflow
}

func TestShiftForwardDeletesUnreachable(t *testing.T) {
	m := newModel(t, jan1)
	a := addTask(t, m, 0, 3)
	b := addTask(t, m, 5, 5)
	c := addTask(t, m, 20, 10)

	p := &recorder{unreachable: true}
	report, err := Shift(m, time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC), p)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Delta)
	assert.Equal(t, []int{a}, report.Deleted)
	assert.Equal(t, []int{a}, p.asked)
	assert.False(t, m.HasTask(a))

	tb, err := m.GetTask(b)
	require.NoError(t, err)
	assert.Equal(t, 0, tb.Col)
	tc, err := m.GetTask(c)
	require.NoError(t, err)
	assert.Equal(t, 15, tc.Col)
	assert.Equal(t, "2023-01-06", calendar.FormatDate(m.Window().StartDate))
}

func TestShiftAbortLeavesModelUnchanged(t *testing.T) {
	m := newModel(t, jan1)
	addTask(t, m, 0, 3)
	addTask(t, m, 10, 5)
	r, err := m.AddResource("dev", true)
	require.NoError(t, err)
	require.NoError(t, m.UpdateResourceCapacity(r.ID, 50, 3))

	tasksBefore, resBefore, winBefore := m.Tasks(), m.Resources(), m.Window()

	_, err = Shift(m, jan1.AddDate(0, 0, 5), &recorder{unreachable: false})
	require.ErrorIs(t, err, model.ErrUserAborted)

	assert.Equal(t, tasksBefore, m.Tasks())
	assert.Equal(t, resBefore, m.Resources())
	assert.Equal(t, winBefore, m.Window())
}

func TestShiftOverflow(t *testing.T) {
	tests := []struct {
		name    string
		choice  OverflowChoice
		wantErr error
		wantDur int // 0 means deleted
	}{
		{"truncate", Truncate, nil, 5},
		{"delete", Delete, nil, 0},
		{"abort", Abort, model.ErrUserAborted, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(t, jan1)
			id := addTask(t, m, 90, 10)

			report, err := Shift(m, jan1.AddDate(0, 0, -5), &recorder{overflow: tt.choice})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				task, gerr := m.GetTask(id)
				require.NoError(t, gerr)
				assert.Equal(t, 90, task.Col)
				assert.Equal(t, jan1, m.Window().StartDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, -5, report.Delta)

			task, gerr := m.GetTask(id)
			if tt.wantDur == 0 {
				require.ErrorIs(t, gerr, model.ErrNotFound)
				assert.Equal(t, []int{id}, report.Deleted)
				return
			}
			require.NoError(t, gerr)
			assert.Equal(t, 95, task.Col)
			assert.Equal(t, tt.wantDur, task.Duration)
			assert.Equal(t, []int{id}, report.Truncated)
		})
	}
}

func TestShiftZeroDeltaOnlyTouchesStart(t *testing.T) {
	m := newModel(t, jan1)
	id := addTask(t, m, 4, 2)

	report, err := Shift(m, jan1.Add(5*time.Hour), Policy{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Delta)

	task, err := m.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, 4, task.Col)
}

func TestShiftThereAndBackIsIdentity(t *testing.T) {
	m := newModel(t, jan1)
	addTask(t, m, 10, 5)
	addTask(t, m, 40, 20)
	r, err := m.AddResource("dev", true)
	require.NoError(t, err)
	require.NoError(t, m.UpdateResourceCapacityRange(r.ID, 20, 30, 2.5))

	tasksBefore, resBefore := m.Tasks(), m.Resources()

	_, err = Shift(m, jan1.AddDate(0, 0, 7), Policy{})
	require.NoError(t, err)
	_, err = Shift(m, jan1, Policy{})
	require.NoError(t, err)

	assert.Equal(t, tasksBefore, m.Tasks())
	assert.Equal(t, resBefore, m.Resources())
	assert.Equal(t, jan1, m.Window().StartDate)
}

func TestShiftFillsWeekendsFromNewCalendar(t *testing.T) {
	mon := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	m := newModel(t, mon)
	r, err := m.AddResource("ops", false)
	require.NoError(t, err)

	newStart := mon.AddDate(0, 0, 3) // Thursday
	_, err = Shift(m, newStart, Policy{})
	require.NoError(t, err)

	got, err := m.GetResource(r.ID)
	require.NoError(t, err)
	cal := calendar.New(newStart, 100)
	for k, c := range got.Capacity {
		if cal.IsWeekend(k) {
			assert.Zero(t, c, "day %d is a weekend", k)
		} else {
			assert.Equal(t, 1.0, c, "day %d is a weekday", k)
		}
	}
}

func TestReanchor(t *testing.T) {
	cal := calendar.New(jan1, 5)
	old := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, []float64{3, 4, 5, 1, 1}, Reanchor(old, 2, cal, true))
	assert.Equal(t, []float64{1, 1, 1, 2, 3}, Reanchor(old, -2, cal, true))
	// 2023-01-01 is a Sunday
	assert.Equal(t, []float64{0, 1, 1, 1, 2}, Reanchor(old, -3, cal, false))
}

func TestParseOverflowChoice(t *testing.T) {
	for _, c := range []OverflowChoice{Truncate, Delete, Abort} {
		got, err := ParseOverflowChoice(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseOverflowChoice("ask")
	assert.Error(t, err)
}
