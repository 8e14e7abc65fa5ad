package model

import (
	"fmt"
	"slices"

	"github.com/joshharrison/planloom/internal/tags"
)

// AllTags returns the tag index contents in sorted order.
func (m *Model) AllTags() []string {
	return m.tagIndex.All()
}

// HasTag reports whether any task or resource carries tag.
func (m *Model) HasTag(tag string) bool {
	return m.tagIndex.Has(tag)
}

// RefreshAllTags rebuilds the tag index by scanning every task and resource.
func (m *Model) RefreshAllTags() {
	sets := make([][]string, 0, len(m.tasks)+len(m.resources))
	for _, t := range m.tasks {
		sets = append(sets, t.Tags)
	}
	for _, r := range m.resources {
		sets = append(sets, r.Tags)
	}
	m.tagIndex.Rebuild(sets...)
}

// AddTagsToTask adds tags to a task.
func (m *Model) AddTagsToTask(id int, add ...string) error {
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return m.retag(&t.Tags, tags.Normalize(append(slices.Clone(t.Tags), add...)))
}

// RemoveTagsFromTask removes tags from a task. Absent tags are ignored.
func (m *Model) RemoveTagsFromTask(id int, remove ...string) error {
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return m.retag(&t.Tags, without(t.Tags, remove))
}

// SetTaskTags replaces a task's tags.
func (m *Model) SetTaskTags(id int, set []string) error {
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return m.retag(&t.Tags, tags.Normalize(set))
}

// AddTagsToResource adds tags to a resource.
func (m *Model) AddTagsToResource(id int, add ...string) error {
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	return m.retag(&r.Tags, tags.Normalize(append(slices.Clone(r.Tags), add...)))
}

// RemoveTagsFromResource removes tags from a resource.
func (m *Model) RemoveTagsFromResource(id int, remove ...string) error {
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	return m.retag(&r.Tags, without(r.Tags, remove))
}

// SetResourceTags replaces a resource's tags.
func (m *Model) SetResourceTags(id int, set []string) error {
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	return m.retag(&r.Tags, tags.Normalize(set))
}

// TasksByTags returns the tasks matching the tag filter, ordered by id.
func (m *Model) TasksByTags(filter []string, matchAll bool) []Task {
	var out []Task
	for _, id := range sortedKeys(m.tasks) {
		if t := m.tasks[id]; tags.Matches(t.Tags, filter, matchAll) {
			out = append(out, t.clone())
		}
	}
	return out
}

// ResourcesByTags returns the resources matching the tag filter, ordered by id.
func (m *Model) ResourcesByTags(filter []string, matchAll bool) []Resource {
	var out []Resource
	for _, id := range sortedKeys(m.resources) {
		if r := m.resources[id]; tags.Matches(r.Tags, filter, matchAll) {
			out = append(out, r.clone())
		}
	}
	return out
}

// retag validates next and swaps it into *cur, keeping the index in step.
func (m *Model) retag(cur *[]string, next []string) error {
	for _, tag := range next {
		if !tags.Valid(tag) {
			return fmt.Errorf("tag %q: %w", tag, ErrInvalidTag)
		}
	}
	m.tagIndex.Remove(*cur...)
	m.tagIndex.Add(next...)
	*cur = next
	return nil
}

func without(have, remove []string) []string {
	var out []string
	for _, t := range have {
		if !slices.Contains(remove, t) {
			out = append(out, t)
		}
	}
	return out
}
