package model

import (
	"fmt"

	"github.com/joshharrison/planloom/internal/tags"
)

// Restore builds a model from previously persisted tables, keeping their
// ids. Precedence links are mirrored (one side is enough), dangling and
// self links are dropped, as are allocations to missing resources. Capacity
// vectors are fitted to the window, and the id counters are set to the
// largest ids present. Any bounds, color or
// tag violation rejects the whole restore.
func Restore(w Window, tasks []Task, resources []Resource) (*Model, error) {
	m, err := New(w)
	if err != nil {
		return nil, err
	}
	cal := m.Calendar()

	for _, r := range resources {
		if _, dup := m.resources[r.ID]; dup || r.ID < 1 {
			return nil, fmt.Errorf("resource id %d: %w", r.ID, ErrInvalidBounds)
		}
		if _, taken := m.ResourceByName(r.Name); taken || r.Name == "" {
			return nil, fmt.Errorf("resource %q: %w", r.Name, ErrDuplicateName)
		}
		rc := r.clone()
		rc.Capacity = fitCapacity(rc.Capacity, cal, rc.WorksWeekends)
		for k, v := range rc.Capacity {
			if v < 0 {
				rc.Capacity[k] = 0
			}
		}
		rc.Tags = tags.Normalize(rc.Tags)
		for _, tag := range rc.Tags {
			if !tags.Valid(tag) {
				return nil, fmt.Errorf("resource %d tag %q: %w", r.ID, tag, ErrInvalidTag)
			}
		}
		m.resources[rc.ID] = &rc
		m.resourceIDCounter = max(m.resourceIDCounter, rc.ID)
	}

	for _, t := range tasks {
		if _, dup := m.tasks[t.ID]; dup || t.ID < 1 {
			return nil, fmt.Errorf("task id %d: %w", t.ID, ErrInvalidBounds)
		}
		tc := t.clone()
		tc.Predecessors, tc.Successors = nil, nil
		tc.Tags = tags.Normalize(tc.Tags)
		if tc.Color == "" {
			tc.Color = DefaultColor
		}
		for rid := range tc.Resources {
			if _, ok := m.resources[rid]; !ok {
				delete(tc.Resources, rid)
			}
		}
		if err := m.validateTask(&tc); err != nil {
			return nil, err
		}
		m.tasks[tc.ID] = &tc
		m.taskIDCounter = max(m.taskIDCounter, tc.ID)
	}

	for _, t := range tasks {
		for _, p := range t.Predecessors {
			if p != t.ID && m.HasTask(p) {
				_ = m.link(p, t.ID)
			}
		}
		for _, s := range t.Successors {
			if s != t.ID && m.HasTask(s) {
				_ = m.link(t.ID, s)
			}
		}
	}

	m.RefreshAllTags()
	return m, nil
}
