// Package shift moves the project start date while keeping tasks and
// resource capacities anchored to their calendar dates.
//
// The new state is built on a scratch copy of the model and committed only
// when every prompt has been answered in favour of the change. Any refusal
// leaves the model exactly as it was.
package shift

import (
	"fmt"
	"time"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/model"
)

// OverflowChoice is the answer for a task that would run past the end of the
// timeline after the shift.
type OverflowChoice int

const (
	Truncate OverflowChoice = iota
	Delete
	Abort
)

func (c OverflowChoice) String() string {
	switch c {
	case Truncate:
		return "truncate"
	case Delete:
		return "delete"
	default:
		return "abort"
	}
}

// ParseOverflowChoice parses "truncate", "delete" or "abort".
func ParseOverflowChoice(s string) (OverflowChoice, error) {
	switch s {
	case "truncate":
		return Truncate, nil
	case "delete":
		return Delete, nil
	case "abort":
		return Abort, nil
	}
	return Abort, fmt.Errorf("unknown overflow choice %q", s)
}

// Prompter decides, per task, what happens to tasks the shift pushes out of
// the window.
type Prompter interface {
	// Unreachable is asked for a task that would start before day 0 (or at
	// or after the last day). Returning false aborts the whole shift.
	Unreachable(t model.Task, newCol int) bool

	// Overflow is asked for a task that would start inside the window but
	// end past it.
	Overflow(t model.Task, newCol int) OverflowChoice
}

// Policy answers every prompt the same way. It drives non-interactive use.
type Policy struct {
	DeleteUnreachable bool
	OnOverflow        OverflowChoice
}

func (p Policy) Unreachable(model.Task, int) bool         { return p.DeleteUnreachable }
func (p Policy) Overflow(model.Task, int) OverflowChoice { return p.OnOverflow }

// Report summarises a committed shift.
type Report struct {
	Delta     int   `json:"delta"`
	Moved     []int `json:"moved,omitempty"`
	Truncated []int `json:"truncated,omitempty"`
	Deleted   []int `json:"deleted,omitempty"`
}

// Shift changes the start date to newStart and moves every task by the same
// number of days in the opposite direction, so each keeps its calendar
// dates. Capacity vectors are re-anchored the same way; days that come into
// view get default capacity for the new calendar.
//
// A refused prompt returns model.ErrUserAborted and leaves m unchanged.
func Shift(m *model.Model, newStart time.Time, p Prompter) (Report, error) {
	w := m.Window()
	newStart = calendar.Midnight(newStart)
	delta := calendar.DaysBetween(w.StartDate, newStart)
	report := Report{Delta: delta}
	if delta == 0 {
		m.SetStartDate(newStart)
		return report, nil
	}

	scratch := m.Clone()
	for _, t := range scratch.Tasks() {
		col := t.Col - delta
		switch {
		case col < 0 || col >= w.Days:
			if !p.Unreachable(t, col) {
				return Report{}, fmt.Errorf("task %d would start at day %d: %w", t.ID, col, model.ErrUserAborted)
			}
			if err := scratch.DeleteTask(t.ID); err != nil {
				return Report{}, err
			}
			report.Deleted = append(report.Deleted, t.ID)

		case col+t.Duration > w.Days:
			switch p.Overflow(t, col) {
			case Truncate:
				dur := w.Days - col
				if _, err := scratch.UpdateTask(t.ID, model.TaskPatch{Col: &col, Duration: &dur}); err != nil {
					return Report{}, err
				}
				report.Truncated = append(report.Truncated, t.ID)
			case Delete:
				if err := scratch.DeleteTask(t.ID); err != nil {
					return Report{}, err
				}
				report.Deleted = append(report.Deleted, t.ID)
			default:
				return Report{}, fmt.Errorf("task %d would end past day %d: %w", t.ID, w.Days, model.ErrUserAborted)
			}

		default:
			if _, err := scratch.MoveTask(t.ID, t.Row, col); err != nil {
				return Report{}, err
			}
			report.Moved = append(report.Moved, t.ID)
		}
	}

	cal := calendar.New(newStart, w.Days)
	for _, r := range scratch.Resources() {
		if err := scratch.SetResourceCapacity(r.ID, Reanchor(r.Capacity, delta, cal, r.WorksWeekends)); err != nil {
			return Report{}, err
		}
	}

	scratch.SetStartDate(newStart)
	m.ReplaceWith(scratch)
	return report, nil
}

// Reanchor shifts a capacity vector left by delta days (right when delta is
// negative). Days with no old value take default capacity from cal, which
// must already use the new start date.
func Reanchor(capacity []float64, delta int, cal calendar.Calendar, worksWeekends bool) []float64 {
	out := make([]float64, cal.Days)
	for k := range out {
		if old := k + delta; old >= 0 && old < len(capacity) {
			out[k] = capacity[old]
			continue
		}
		out[k] = model.DefaultCapacity(cal, k, worksWeekends)
	}
	return out
}
