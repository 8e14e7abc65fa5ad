package workbench

import (
	"github.com/joshharrison/planloom/internal/model"
)

// Resources returns every resource ordered by id.
func (w *Workbench) Resources() []model.Resource {
	var out []model.Resource
	w.read(func(m *model.Model) { out = m.Resources() })
	return out
}

// Resource returns one resource.
func (w *Workbench) Resource(id int) (model.Resource, error) {
	var r model.Resource
	var err error
	w.read(func(m *model.Model) { r, err = m.GetResource(id) })
	return r, err
}

// ResourceByName looks a resource up by name.
func (w *Workbench) ResourceByName(name string) (model.Resource, bool) {
	var r model.Resource
	var ok bool
	w.read(func(m *model.Model) { r, ok = m.ResourceByName(name) })
	return r, ok
}

// AddResource creates a resource with default capacity.
func (w *Workbench) AddResource(name string, worksWeekends bool) (model.Resource, error) {
	var r model.Resource
	err := w.mutate("resource added", func(m *model.Model) error {
		var err error
		r, err = m.AddResource(name, worksWeekends)
		return err
	}, "name", name, "works_weekends", worksWeekends)
	return r, err
}

// RemoveResource deletes a resource and its allocations.
func (w *Workbench) RemoveResource(id int) error {
	return w.mutate("resource removed", func(m *model.Model) error {
		return m.RemoveResource(id)
	}, "resource_id", id)
}

// RenameResource gives a resource a new, unique name.
func (w *Workbench) RenameResource(id int, name string) error {
	return w.mutate("resource renamed", func(m *model.Model) error {
		return m.UpdateResourceName(id, name)
	}, "resource_id", id, "name", name)
}

// SetCapacity sets one day's capacity.
func (w *Workbench) SetCapacity(id, day int, value float64) error {
	return w.mutate("capacity set", func(m *model.Model) error {
		return m.UpdateResourceCapacity(id, day, value)
	}, "resource_id", id, "day", day, "value", value)
}

// SetCapacityRange sets capacity on days start..end inclusive.
func (w *Workbench) SetCapacityRange(id, start, end int, value float64) error {
	return w.mutate("capacity set", func(m *model.Model) error {
		return m.UpdateResourceCapacityRange(id, start, end, value)
	}, "resource_id", id, "start", start, "end", end, "value", value)
}

// SetWorksWeekends toggles weekend work for a resource.
func (w *Workbench) SetWorksWeekends(id int, worksWeekends bool) error {
	return w.mutate("weekend work set", func(m *model.Model) error {
		return m.SetResourceWorksWeekends(id, worksWeekends)
	}, "resource_id", id, "works_weekends", worksWeekends)
}

// SetAllocation sets how much of a resource a task uses per day. Zero or
// less removes the allocation.
func (w *Workbench) SetAllocation(taskID, resourceID int, allocation float64) error {
	return w.mutate("allocation set", func(m *model.Model) error {
		return m.UpdateTaskResourceAllocation(taskID, resourceID, allocation)
	}, "task_id", taskID, "resource_id", resourceID, "allocation", allocation)
}

// AddResourceTags adds tags to a resource.
func (w *Workbench) AddResourceTags(id int, tags ...string) error {
	return w.mutate("resource tagged", func(m *model.Model) error {
		if err := checkResourceReserved(m, id, tags); err != nil {
			return err
		}
		return m.AddTagsToResource(id, tags...)
	}, "resource_id", id, "tags", tags)
}

// RemoveResourceTags removes tags from a resource.
func (w *Workbench) RemoveResourceTags(id int, tags ...string) error {
	return w.mutate("resource untagged", func(m *model.Model) error {
		return m.RemoveTagsFromResource(id, tags...)
	}, "resource_id", id, "tags", tags)
}

// SetResourceTags replaces a resource's tags.
func (w *Workbench) SetResourceTags(id int, tags []string) error {
	return w.mutate("resource tags set", func(m *model.Model) error {
		if err := checkResourceReserved(m, id, tags); err != nil {
			return err
		}
		return m.SetResourceTags(id, tags)
	}, "resource_id", id, "tags", tags)
}

func checkResourceReserved(m *model.Model, id int, want []string) error {
	r, err := m.GetResource(id)
	if err != nil {
		return err
	}
	return checkReserved(r.Tags, want)
}
