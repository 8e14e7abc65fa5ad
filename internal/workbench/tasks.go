package workbench

import (
	"github.com/joshharrison/planloom/internal/collision"
	"github.com/joshharrison/planloom/internal/model"
)

// Tasks returns every task ordered by id.
func (w *Workbench) Tasks() []model.Task {
	var out []model.Task
	w.read(func(m *model.Model) { out = m.Tasks() })
	return out
}

// Task returns one task.
func (w *Workbench) Task(id int) (model.Task, error) {
	var t model.Task
	var err error
	w.read(func(m *model.Model) { t, err = m.GetTask(id) })
	return t, err
}

// AddTask creates a task. Unlike a move, adding does not push neighbours.
func (w *Workbench) AddTask(in model.TaskInput) (model.Task, error) {
	var t model.Task
	err := w.mutate("task added", func(m *model.Model) error {
		if err := checkReserved(nil, in.Tags); err != nil {
			return err
		}
		var err error
		t, err = m.AddTask(in)
		return err
	}, "row", in.Row, "col", in.Col, "duration", in.Duration)
	return t, err
}

// DeleteTask removes a task and every link to it.
func (w *Workbench) DeleteTask(id int) error {
	return w.mutate("task deleted", func(m *model.Model) error {
		return m.DeleteTask(id)
	}, "task_id", id)
}

// UpdateTask applies a partial update without collision resolution.
func (w *Workbench) UpdateTask(id int, p model.TaskPatch) (model.Task, error) {
	var t model.Task
	err := w.mutate("task updated", func(m *model.Model) error {
		if p.Tags != nil {
			if err := checkTaskReserved(m, id, *p.Tags); err != nil {
				return err
			}
		}
		var err error
		t, err = m.UpdateTask(id, p)
		return err
	}, "task_id", id)
	return t, err
}

// MoveTask moves a task and pushes overlapped tasks in its row right.
func (w *Workbench) MoveTask(id, row, col int) (collision.Result, error) {
	return w.place("task moved", id, func(m *model.Model) (collision.Result, error) {
		return collision.Move(m, id, row, col)
	}, "row", row, "col", col)
}

// ResizeTask changes a task's duration and pushes overlapped tasks right.
func (w *Workbench) ResizeTask(id, duration int) (collision.Result, error) {
	return w.place("task resized", id, func(m *model.Model) (collision.Result, error) {
		return collision.Resize(m, id, duration)
	}, "duration", duration)
}

// ResizeTaskEdge drags one edge of a task to day.
func (w *Workbench) ResizeTaskEdge(id int, edge collision.Edge, day int) (collision.Result, error) {
	return w.place("task edge dragged", id, func(m *model.Model) (collision.Result, error) {
		return collision.ResizeEdge(m, id, edge, day)
	}, "edge", edge.String(), "day", day)
}

// DropTask snaps a rectangle in grid units and places the task there.
func (w *Workbench) DropTask(id int, x1, y1, x2, y2 float64) (collision.Result, error) {
	return w.place("task dropped", id, func(m *model.Model) (collision.Result, error) {
		return collision.Place(m, id, collision.Snap(m.Window(), x1, y1, x2, y2))
	})
}

func (w *Workbench) place(op string, id int, fn func(m *model.Model) (collision.Result, error), attrs ...any) (collision.Result, error) {
	var res collision.Result
	err := w.mutate(op, func(m *model.Model) error {
		var err error
		res, err = fn(m)
		return err
	}, append([]any{"task_id", id}, attrs...)...)
	if err == nil && len(res.Displaced) > 0 {
		w.logger.Debug("tasks displaced", "task_id", id, "displaced", res.Displaced)
	}
	return res, err
}

// AddPredecessor records that pred must finish before id.
func (w *Workbench) AddPredecessor(id, pred int) error {
	return w.mutate("dependency added", func(m *model.Model) error {
		return m.AddPredecessor(id, pred)
	}, "task_id", id, "predecessor", pred)
}

// AddSuccessor records that id must finish before succ.
func (w *Workbench) AddSuccessor(id, succ int) error {
	return w.mutate("dependency added", func(m *model.Model) error {
		return m.AddSuccessor(id, succ)
	}, "task_id", id, "successor", succ)
}

// RemovePredecessor drops the link pred -> id on both sides.
func (w *Workbench) RemovePredecessor(id, pred int) error {
	return w.mutate("dependency removed", func(m *model.Model) error {
		return m.RemovePredecessor(id, pred)
	}, "task_id", id, "predecessor", pred)
}

// RemoveSuccessor drops the link id -> succ on both sides.
func (w *Workbench) RemoveSuccessor(id, succ int) error {
	return w.mutate("dependency removed", func(m *model.Model) error {
		return m.RemoveSuccessor(id, succ)
	}, "task_id", id, "successor", succ)
}

// AddTaskTags adds tags to a task.
func (w *Workbench) AddTaskTags(id int, tags ...string) error {
	return w.mutate("task tagged", func(m *model.Model) error {
		if err := checkTaskReserved(m, id, tags); err != nil {
			return err
		}
		return m.AddTagsToTask(id, tags...)
	}, "task_id", id, "tags", tags)
}

// RemoveTaskTags removes tags from a task.
func (w *Workbench) RemoveTaskTags(id int, tags ...string) error {
	return w.mutate("task untagged", func(m *model.Model) error {
		return m.RemoveTagsFromTask(id, tags...)
	}, "task_id", id, "tags", tags)
}

// SetTaskTags replaces a task's tags.
func (w *Workbench) SetTaskTags(id int, tags []string) error {
	return w.mutate("task tags set", func(m *model.Model) error {
		if err := checkTaskReserved(m, id, tags); err != nil {
			return err
		}
		return m.SetTaskTags(id, tags)
	}, "task_id", id, "tags", tags)
}

func checkTaskReserved(m *model.Model, id int, want []string) error {
	t, err := m.GetTask(id)
	if err != nil {
		return err
	}
	return checkReserved(t.Tags, want)
}
