// Package collision keeps a grid row free of overlapping tasks. When a task
// lands on another in the same row, the other task is pushed right to the
// displacer's end day, and the push cascades until the row is clear.
package collision

import (
	"fmt"
	"math"
	"sort"

	"github.com/joshharrison/planloom/internal/model"
)

// Edge selects which side of a task a resize drags.
type Edge int

const (
	LeftEdge Edge = iota
	RightEdge
)

func (e Edge) String() string {
	if e == LeftEdge {
		return "left"
	}
	return "right"
}

// ParseEdge accepts "left"/"l" and "right"/"r".
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "left", "l":
		return LeftEdge, nil
	case "right", "r":
		return RightEdge, nil
	}
	return 0, fmt.Errorf("unknown edge %q", s)
}

// Cell is a snapped grid placement.
type Cell struct {
	Row      int
	Col      int
	Duration int
}

// Snap rounds a rectangle in grid units to the nearest cell inside the
// window. The result is at least one day long.
func Snap(w model.Window, x1, y1, x2, y2 float64) Cell {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	row := clamp(int(math.Round(y1)), 0, w.MaxRows-1)
	col := int(math.Round(x1))
	dur := max(int(math.Round(x2))-col, 1)
	dur = min(dur, w.Days)
	col = clamp(col, 0, w.Days-dur)
	return Cell{Row: row, Col: col, Duration: dur}
}

// Result reports what a placement changed.
type Result struct {
	Task      model.Task
	Displaced []int // ids pushed right, in push order
}

// Place puts task id at cell and resolves collisions in its row. Displaced
// tasks never move past the end of the timeline; if the row cannot be
// cleared inside the window the placement is refused with
// model.ErrInvalidBounds and m is left unchanged.
func Place(m *model.Model, id int, cell Cell) (Result, error) {
	scratch := m.Clone()
	placed, err := scratch.UpdateTask(id, model.TaskPatch{
		Row:      &cell.Row,
		Col:      &cell.Col,
		Duration: &cell.Duration,
	})
	if err != nil {
		return Result{}, err
	}

	displaced, err := resolve(scratch, placed)
	if err != nil {
		return Result{}, err
	}
	m.ReplaceWith(scratch)

	placed, _ = m.GetTask(id)
	return Result{Task: placed, Displaced: displaced}, nil
}

// Move is Place keeping the task's duration.
func Move(m *model.Model, id, row, col int) (Result, error) {
	t, err := m.GetTask(id)
	if err != nil {
		return Result{}, err
	}
	return Place(m, id, Cell{Row: row, Col: col, Duration: t.Duration})
}

// Resize is Place keeping the task's row and start day.
func Resize(m *model.Model, id, duration int) (Result, error) {
	t, err := m.GetTask(id)
	if err != nil {
		return Result{}, err
	}
	if duration < 1 {
		return Result{}, fmt.Errorf("task %d duration %d: %w", id, duration, model.ErrInvalidBounds)
	}
	return Place(m, id, Cell{Row: t.Row, Col: t.Col, Duration: duration})
}

// ResizeEdge drags one edge of a task to day. Dragging the left edge keeps
// the end day fixed; dragging the right edge keeps the start day fixed.
// The task never shrinks below one day.
func ResizeEdge(m *model.Model, id int, edge Edge, day int) (Result, error) {
	t, err := m.GetTask(id)
	if err != nil {
		return Result{}, err
	}
	days := m.Window().Days
	cell := Cell{Row: t.Row, Col: t.Col, Duration: t.Duration}
	switch edge {
	case LeftEdge:
		end := t.End()
		col := clamp(day, 0, end-1)
		cell.Col, cell.Duration = col, end-col
	case RightEdge:
		end := clamp(day, t.Col+1, days)
		cell.Duration = end - t.Col
	default:
		return Result{}, fmt.Errorf("unknown edge %d", edge)
	}
	return Place(m, id, cell)
}

// resolve runs the cascade on scratch, starting from the placed task. The
// row is swept in start-day order; a task that overlaps the placed task or
// an already pushed one moves to that task's end day, so several tasks hit
// by one displacer queue up behind it instead of landing on the same day.
func resolve(scratch *model.Model, placed model.Task) ([]int, error) {
	days := scratch.Window().Days
	occupied := []model.Task{placed}
	var displaced []int

	for _, u := range rowTasks(scratch, placed.Row) {
		if u.ID == placed.ID {
			continue
		}
		at := u
		for {
			blocker, ok := firstOverlap(occupied, at)
			if !ok {
				break
			}
			at.Col = blocker.End()
		}
		if at.Col == u.Col {
			continue
		}
		if at.End() > days {
			return nil, fmt.Errorf("row %d is full: task %d would end after day %d: %w",
				placed.Row, u.ID, days, model.ErrInvalidBounds)
		}
		moved, err := scratch.MoveTask(u.ID, u.Row, at.Col)
		if err != nil {
			return nil, err
		}
		displaced = append(displaced, u.ID)
		occupied = append(occupied, moved)
	}
	return displaced, nil
}

func firstOverlap(ts []model.Task, t model.Task) (model.Task, bool) {
	for _, o := range ts {
		if o.Overlaps(t) {
			return o, true
		}
	}
	return model.Task{}, false
}

// rowTasks returns the tasks on row ordered by start day, then id.
func rowTasks(m *model.Model, row int) []model.Task {
	var out []model.Task
	for _, t := range m.Tasks() {
		if t.Row == row {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Col < out[j].Col })
	return out
}

// Overlaps lists every overlapping pair in the model, by row.
func Overlaps(m *model.Model) [][2]int {
	byRow := make(map[int][]model.Task)
	for _, t := range m.Tasks() {
		byRow[t.Row] = append(byRow[t.Row], t)
	}
	rows := make([]int, 0, len(byRow))
	for r := range byRow {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	var pairs [][2]int
	for _, r := range rows {
		ts := byRow[r]
		for i, a := range ts {
			for _, b := range ts[i+1:] {
				if a.Overlaps(b) {
					pairs = append(pairs, [2]int{a.ID, b.ID})
				}
			}
		}
	}
	return pairs
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
