package model

import (
	"fmt"
	"math"
	"strings"
)

// Resources returns copies of all resources ordered by id.
func (m *Model) Resources() []Resource {
	out := make([]Resource, 0, len(m.resources))
	for _, id := range sortedKeys(m.resources) {
		out = append(out, m.resources[id].clone())
	}
	return out
}

// GetResource returns a copy of the resource with the given id.
func (m *Model) GetResource(id int) (Resource, error) {
	r, ok := m.resources[id]
	if !ok {
		return Resource{}, fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	return r.clone(), nil
}

// ResourceByName looks a resource up by its exact name.
func (m *Model) ResourceByName(name string) (Resource, bool) {
	for _, id := range sortedKeys(m.resources) {
		if r := m.resources[id]; r.Name == name {
			return r.clone(), true
		}
	}
	return Resource{}, false
}

// AddResource creates a resource with a default capacity vector: 1.0 per
// day, and 0.0 on weekends unless worksWeekends is set.
func (m *Model) AddResource(name string, worksWeekends bool) (Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resource{}, fmt.Errorf("resource name is empty: %w", ErrInvalidBounds)
	}
	if _, taken := m.ResourceByName(name); taken {
		return Resource{}, fmt.Errorf("resource %q: %w", name, ErrDuplicateName)
	}
	r := Resource{
		ID:            m.resourceIDCounter + 1,
		Name:          name,
		Capacity:      DefaultCapacityVector(m.Calendar(), worksWeekends),
		WorksWeekends: worksWeekends,
	}
	m.resourceIDCounter = r.ID
	m.resources[r.ID] = &r
	return r.clone(), nil
}

// RemoveResource deletes a resource and strips it from every task's
// allocation map.
func (m *Model) RemoveResource(id int) error {
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	for _, t := range m.tasks {
		delete(t.Resources, id)
	}
	m.tagIndex.Remove(r.Tags...)
	delete(m.resources, id)
	return nil
}

// UpdateResourceName renames a resource; names stay unique.
func (m *Model) UpdateResourceName(id int, name string) error {
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("resource name is empty: %w", ErrInvalidBounds)
	}
	if other, taken := m.ResourceByName(name); taken && other.ID != id {
		return fmt.Errorf("resource %q: %w", name, ErrDuplicateName)
	}
	r.Name = name
	return nil
}

// UpdateResourceCapacity sets one day's capacity, clamped to [0, inf).
func (m *Model) UpdateResourceCapacity(id, day int, value float64) error {
	return m.UpdateResourceCapacityRange(id, day, day, value)
}

// UpdateResourceCapacityRange sets capacity on days start..end inclusive,
// clamped to [0, inf).
func (m *Model) UpdateResourceCapacityRange(id, start, end int, value float64) error {
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	if start < 0 || end >= m.window.Days || start > end {
		return fmt.Errorf("capacity days %d..%d outside [0,%d): %w", start, end, m.window.Days, ErrInvalidBounds)
	}
	if math.IsNaN(value) {
		return fmt.Errorf("capacity is NaN: %w", ErrInvalidBounds)
	}
	value = math.Max(0, value)
	for k := start; k <= end; k++ {
		r.Capacity[k] = value
	}
	return nil
}

// SetResourceCapacity replaces a resource's whole capacity vector. The vector
// must have one non-negative entry per day.
func (m *Model) SetResourceCapacity(id int, capacity []float64) error {
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	if len(capacity) != m.window.Days {
		return fmt.Errorf("capacity has %d days, window has %d: %w", len(capacity), m.window.Days, ErrInvalidBounds)
	}
	for k, v := range capacity {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("capacity[%d] = %v: %w", k, v, ErrInvalidBounds)
		}
	}
	r.Capacity = append([]float64(nil), capacity...)
	return nil
}

// SetResourceWorksWeekends toggles weekend work. Switching it off zeroes
// weekend capacity; switching it on restores weekend days to 1.0.
func (m *Model) SetResourceWorksWeekends(id int, worksWeekends bool) error {
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	if r.WorksWeekends == worksWeekends {
		return nil
	}
	cal := m.Calendar()
	for k := range r.Capacity {
		if cal.IsWeekend(k) {
			r.Capacity[k] = DefaultCapacity(cal, k, worksWeekends)
		}
	}
	r.WorksWeekends = worksWeekends
	return nil
}

// UpdateTaskResourceAllocation sets a task's allocation of a resource. A
// non-positive allocation removes the mapping.
func (m *Model) UpdateTaskResourceAllocation(taskID, resourceID int, allocation float64) error {
	t, ok := m.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	if _, ok := m.resources[resourceID]; !ok {
		return fmt.Errorf("resource %d: %w", resourceID, ErrNotFound)
	}
	if math.IsNaN(allocation) {
		return fmt.Errorf("allocation is NaN: %w", ErrInvalidBounds)
	}
	if allocation <= 0 {
		delete(t.Resources, resourceID)
		return nil
	}
	t.Resources[resourceID] = allocation
	return nil
}
