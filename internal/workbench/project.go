package workbench

import (
	"fmt"
	"slices"
	"time"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/cpm"
	"github.com/joshharrison/planloom/internal/filter"
	"github.com/joshharrison/planloom/internal/graph"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/shift"
	"github.com/joshharrison/planloom/internal/tags"
)

// Window returns the project window.
func (w *Workbench) Window() model.Window {
	var win model.Window
	w.read(func(m *model.Model) { win = m.Window() })
	return win
}

// UpdateWindow changes timeline length, grid height and setdate.
func (w *Workbench) UpdateWindow(days, maxRows int, setDate time.Time) error {
	return w.mutate("window updated", func(m *model.Model) error {
		return m.UpdateWindow(days, maxRows, setDate)
	}, "days", days, "max_rows", maxRows, "setdate", calendar.FormatDate(setDate))
}

// SetSetDate moves the "today" marker only.
func (w *Workbench) SetSetDate(d time.Time) error {
	return w.mutate("setdate moved", func(m *model.Model) error {
		m.SetSetDate(d)
		return nil
	}, "setdate", calendar.FormatDate(d))
}

// ChangeStartDate moves day 0 to newStart. With shiftTasks, tasks and
// capacities keep their calendar dates and p is asked about tasks that fall
// out of the window; without it only the start date changes and every task
// keeps its column. setdate never moves.
func (w *Workbench) ChangeStartDate(newStart time.Time, shiftTasks bool, p shift.Prompter) (shift.Report, error) {
	var report shift.Report
	err := w.mutate("start date changed", func(m *model.Model) error {
		if !shiftTasks {
			report.Delta = calendar.DaysBetween(m.Window().StartDate, newStart)
			m.SetStartDate(newStart)
			return nil
		}
		var err error
		report, err = shift.Shift(m, newStart, p)
		if err != nil {
			w.logger.Warn("start date shift rolled back", "start_date", calendar.FormatDate(newStart), "error", err)
		}
		return err
	}, "start_date", calendar.FormatDate(newStart), "shift_tasks", shiftTasks)
	return report, err
}

// AllTags returns the union of task and resource tags.
func (w *Workbench) AllTags() []string {
	var out []string
	w.read(func(m *model.Model) { out = m.AllTags() })
	return out
}

// RefreshAllTags rebuilds the tag index from the tables.
func (w *Workbench) RefreshAllTags() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.model.RefreshAllTags()
}

// Filters returns the active filters.
func (w *Workbench) Filters() filter.Filters {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.filters
}

// SetFilters replaces both filters, e.g. from saved session state.
func (w *Workbench) SetFilters(f filter.Filters) error {
	var checked filter.Filters
	if err := checked.SetTaskFilter(f.TaskTags, f.TaskMatchAll); err != nil {
		return err
	}
	if err := checked.SetResourceFilter(f.ResourceTags, f.ResourceMatchAll); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filters = checked
	return nil
}

// SetTaskFilter replaces the task tag filter; an empty list clears it.
func (w *Workbench) SetTaskFilter(filterTags []string, matchAll bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filters.SetTaskFilter(filterTags, matchAll)
}

// SetResourceFilter replaces the resource tag filter; an empty list clears it.
func (w *Workbench) SetResourceFilter(filterTags []string, matchAll bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filters.SetResourceFilter(filterTags, matchAll)
}

// ClearFilters shows everything again.
func (w *Workbench) ClearFilters() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filters.Clear()
}

// VisibleTasks returns the tasks passing the task filter.
func (w *Workbench) VisibleTasks() []model.Task {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.filters.Tasks(w.model)
}

// VisibleResources returns the resources passing the resource filter.
func (w *Workbench) VisibleResources() []model.Resource {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.filters.Resources(w.model)
}

// ResourceLoading returns per-resource, per-day allocation totals.
func (w *Workbench) ResourceLoading() map[int][]float64 {
	var out map[int][]float64
	w.read(func(m *model.Model) { out = m.ResourceLoading() })
	return out
}

// Utilization returns load against capacity for each day of a resource.
func (w *Workbench) Utilization(id int) ([]model.DayLoad, error) {
	var out []model.DayLoad
	var err error
	w.read(func(m *model.Model) { out, err = m.Utilization(id) })
	return out, err
}

// CriticalPath analyses the tasks in ids. A nil or empty selection means
// the visible tasks. Unknown ids fail with model.ErrNotFound; a cycle among
// the selected tasks fails with model.ErrCycleDetected.
func (w *Workbench) CriticalPath(ids []int) (*cpm.CPMResult, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(ids) == 0 {
		ids = w.filters.TaskIDs(w.model)
	}
	for _, id := range ids {
		if !w.model.HasTask(id) {
			return nil, fmt.Errorf("task %d: %w", id, model.ErrNotFound)
		}
	}
	g, err := graph.BuildFromTasks(w.model.Tasks(), ids)
	if err != nil {
		return nil, err
	}
	return cpm.Analyze(g, w.model.Calendar())
}

// TagCriticalPath adds the CriticalPath tag to every task on path.
func (w *Workbench) TagCriticalPath(path []int) error {
	return w.mutate("critical path tagged", func(m *model.Model) error {
		scratch := m.Clone()
		for _, id := range path {
			if err := scratch.AddTagsToTask(id, tags.CriticalPath); err != nil {
				return err
			}
		}
		m.ReplaceWith(scratch)
		return nil
	}, "path", path)
}

// checkReserved refuses the CriticalPath tag in want unless have already
// carries it. Only TagCriticalPath applies the tag; removing it by hand is
// allowed.
func checkReserved(have, want []string) error {
	if slices.Contains(want, tags.CriticalPath) && !slices.Contains(have, tags.CriticalPath) {
		return fmt.Errorf("tag %q is reserved for the critical path: %w", tags.CriticalPath, model.ErrInvalidTag)
	}
	return nil
}

// FindCycle reports one dependency cycle in the whole project, or nil.
// Cycles are allowed in the project; only analysis rejects them.
func (w *Workbench) FindCycle() []int {
	var cycle []int
	w.read(func(m *model.Model) {
		cycle = graph.New(m.Tasks(), nil).DetectCycle()
	})
	return cycle
}

// Snapshot is what exporters and views render: the filtered lists, the
// loading vectors and the window. It shares nothing with the model.
type Snapshot struct {
	Window    model.Window         `json:"window"`
	Months    []calendar.MonthRange `json:"months"`
	Tasks     []model.Task         `json:"tasks"`
	Resources []model.Resource     `json:"resources"`
	Loading   map[int][]float64    `json:"loading"`
	Tags      []string             `json:"tags"`
	Filters   filter.Filters       `json:"filters"`
}

// Snapshot captures the current visible state.
func (w *Workbench) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	win := w.model.Window()
	return Snapshot{
		Window:    win,
		Months:    win.Calendar().MonthRanges(),
		Tasks:     w.filters.Tasks(w.model),
		Resources: w.filters.Resources(w.model),
		Loading:   w.model.ResourceLoading(),
		Tags:      w.model.AllTags(),
		Filters:   w.filters,
	}
}
