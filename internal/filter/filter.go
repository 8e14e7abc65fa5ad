// Package filter narrows tasks and resources down to the visible subsets
// views and reports work with.
package filter

import (
	"fmt"

	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/tags"
)

// Filters holds the active tag filters. The zero value shows everything.
type Filters struct {
	TaskTags         []string `json:"task_tags,omitempty"`
	TaskMatchAll     bool     `json:"task_match_all,omitempty"`
	ResourceTags     []string `json:"resource_tags,omitempty"`
	ResourceMatchAll bool     `json:"resource_match_all,omitempty"`
}

// SetTaskFilter replaces the task filter. An empty list clears it.
func (f *Filters) SetTaskFilter(filter []string, matchAll bool) error {
	if err := check(filter); err != nil {
		return err
	}
	f.TaskTags = tags.Normalize(filter)
	f.TaskMatchAll = matchAll
	return nil
}

// SetResourceFilter replaces the resource filter. An empty list clears it.
func (f *Filters) SetResourceFilter(filter []string, matchAll bool) error {
	if err := check(filter); err != nil {
		return err
	}
	f.ResourceTags = tags.Normalize(filter)
	f.ResourceMatchAll = matchAll
	return nil
}

// Clear drops both filters.
func (f *Filters) Clear() {
	*f = Filters{}
}

// Active reports whether either filter is set.
func (f Filters) Active() bool {
	return len(f.TaskTags) > 0 || len(f.ResourceTags) > 0
}

// Tasks returns a snapshot of the tasks passing the task filter.
func (f Filters) Tasks(m *model.Model) []model.Task {
	return m.TasksByTags(f.TaskTags, f.TaskMatchAll)
}

// Resources returns a snapshot of the resources passing the resource filter.
func (f Filters) Resources(m *model.Model) []model.Resource {
	return m.ResourcesByTags(f.ResourceTags, f.ResourceMatchAll)
}

// TaskIDs returns the ids of Tasks.
func (f Filters) TaskIDs(m *model.Model) []int {
	ts := f.Tasks(m)
	ids := make([]int, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids
}

func check(filter []string) error {
	for _, tag := range filter {
		if !tags.Valid(tag) {
			return fmt.Errorf("filter tag %q: %w", tag, model.ErrInvalidTag)
		}
	}
	return nil
}
