// Package model owns the project state: two flat tables of tasks and
// resources keyed by id, the project window, and the tag index. Every
// exported mutation validates against a scratch value first and only then
// commits, so a failed call leaves the model unchanged.
//
// Tasks reference resources and each other by id only. Lookups resolve the
// id against the tables on demand.
//
// The model is not safe for concurrent use. Wrap it in a single writer lock
// if it must be shared.
package model

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/tags"
)

// Model is the mutable project state.
type Model struct {
	window    Window
	tasks     map[int]*Task
	resources map[int]*Resource

	taskIDCounter     int
	resourceIDCounter int

	tagIndex *tags.Index
}

// New returns an empty model over the given window.
func New(w Window) (*Model, error) {
	if w.Days < 1 || w.MaxRows < 1 {
		return nil, fmt.Errorf("window %dx%d: %w", w.Days, w.MaxRows, ErrInvalidBounds)
	}
	w.StartDate = calendar.Midnight(w.StartDate)
	w.SetDate = calendar.Midnight(w.SetDate)
	return &Model{
		window:    w,
		tasks:     make(map[int]*Task),
		resources: make(map[int]*Resource),
		tagIndex:  tags.NewIndex(),
	}, nil
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := &Model{
		window:            m.window,
		tasks:             make(map[int]*Task, len(m.tasks)),
		resources:         make(map[int]*Resource, len(m.resources)),
		taskIDCounter:     m.taskIDCounter,
		resourceIDCounter: m.resourceIDCounter,
		tagIndex:          tags.NewIndex(),
	}
	for id, t := range m.tasks {
		tc := t.clone()
		c.tasks[id] = &tc
	}
	for id, r := range m.resources {
		rc := r.clone()
		c.resources[id] = &rc
	}
	c.RefreshAllTags()
	return c
}

// ReplaceWith commits other's state into m. other must not be used afterwards.
func (m *Model) ReplaceWith(other *Model) {
	*m = *other
}

// Window returns the project window.
func (m *Model) Window() Window {
	return m.window
}

// Calendar returns the calendar of the current window.
func (m *Model) Calendar() calendar.Calendar {
	return m.window.Calendar()
}

// TaskIDCounter returns the highest task id ever assigned.
func (m *Model) TaskIDCounter() int {
	return m.taskIDCounter
}

// ResourceIDCounter returns the highest resource id ever assigned.
func (m *Model) ResourceIDCounter() int {
	return m.resourceIDCounter
}

// TaskCount returns the number of live tasks.
func (m *Model) TaskCount() int {
	return len(m.tasks)
}

// Tasks returns copies of all tasks ordered by id.
func (m *Model) Tasks() []Task {
	out := make([]Task, 0, len(m.tasks))
	for _, id := range sortedKeys(m.tasks) {
		out = append(out, m.tasks[id].clone())
	}
	return out
}

// GetTask returns a copy of the task with the given id.
func (m *Model) GetTask(id int) (Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return t.clone(), nil
}

// HasTask reports whether id is a live task.
func (m *Model) HasTask(id int) bool {
	_, ok := m.tasks[id]
	return ok
}

// AddTask creates a task with a fresh id and registers its tags.
func (m *Model) AddTask(in TaskInput) (Task, error) {
	t := Task{
		ID:           m.taskIDCounter + 1,
		Row:          in.Row,
		Col:          in.Col,
		Duration:     in.Duration,
		Description:  in.Description,
		URL:          in.URL,
		Color:        in.Color,
		Notes:        in.Notes,
		Resources:    maps.Clone(in.Resources),
		Predecessors: normalizeIDs(in.Predecessors),
		Successors:   normalizeIDs(in.Successors),
		Tags:         tags.Normalize(in.Tags),
	}
	if t.Color == "" {
		t.Color = DefaultColor
	}
	if err := m.validateTask(&t); err != nil {
		return Task{}, err
	}

	m.taskIDCounter = t.ID
	m.tasks[t.ID] = &t
	for _, p := range t.Predecessors {
		m.tasks[p].Successors = insertID(m.tasks[p].Successors, t.ID)
	}
	for _, s := range t.Successors {
		m.tasks[s].Predecessors = insertID(m.tasks[s].Predecessors, t.ID)
	}
	m.tagIndex.Add(t.Tags...)
	return t.clone(), nil
}

// DeleteTask removes a task and purges its id from every other task's
// predecessors and successors.
func (m *Model) DeleteTask(id int) error {
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	for _, p := range t.Predecessors {
		if pt, ok := m.tasks[p]; ok {
			pt.Successors = removeID(pt.Successors, id)
		}
	}
	for _, s := range t.Successors {
		if st, ok := m.tasks[s]; ok {
			st.Predecessors = removeID(st.Predecessors, id)
		}
	}
	m.tagIndex.Remove(t.Tags...)
	delete(m.tasks, id)
	return nil
}

// UpdateTask applies a partial update. Changes to predecessors or successors
// are mirrored onto the other tasks.
func (m *Model) UpdateTask(id int, p TaskPatch) (Task, error) {
	cur, ok := m.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	next := cur.clone()
	if p.Row != nil {
		next.Row = *p.Row
	}
	if p.Col != nil {
		next.Col = *p.Col
	}
	if p.Duration != nil {
		next.Duration = *p.Duration
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.URL != nil {
		next.URL = *p.URL
	}
	if p.Color != nil {
		next.Color = *p.Color
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.Resources != nil {
		next.Resources = maps.Clone(p.Resources)
	}
	if p.Predecessors != nil {
		next.Predecessors = normalizeIDs(*p.Predecessors)
	}
	if p.Successors != nil {
		next.Successors = normalizeIDs(*p.Successors)
	}
	if p.Tags != nil {
		next.Tags = tags.Normalize(*p.Tags)
	}
	if err := m.validateTask(&next); err != nil {
		return Task{}, err
	}

	for _, gone := range diffIDs(cur.Predecessors, next.Predecessors) {
		m.tasks[gone].Successors = removeID(m.tasks[gone].Successors, id)
	}
	for _, added := range diffIDs(next.Predecessors, cur.Predecessors) {
		m.tasks[added].Successors = insertID(m.tasks[added].Successors, id)
	}
	for _, gone := range diffIDs(cur.Successors, next.Successors) {
		m.tasks[gone].Predecessors = removeID(m.tasks[gone].Predecessors, id)
	}
	for _, added := range diffIDs(next.Successors, cur.Successors) {
		m.tasks[added].Predecessors = insertID(m.tasks[added].Predecessors, id)
	}
	m.tagIndex.Remove(cur.Tags...)
	m.tagIndex.Add(next.Tags...)
	*cur = next
	return next.clone(), nil
}

// MoveTask places a task at a new row and start day.
func (m *Model) MoveTask(id, row, col int) (Task, error) {
	return m.UpdateTask(id, TaskPatch{Row: &row, Col: &col})
}

// ResizeTask changes a task's duration, keeping its start day.
func (m *Model) ResizeTask(id, duration int) (Task, error) {
	return m.UpdateTask(id, TaskPatch{Duration: &duration})
}

// AddPredecessor records that predID must finish before id.
func (m *Model) AddPredecessor(id, predID int) error {
	return m.link(predID, id)
}

// AddSuccessor records that id must finish before succID.
func (m *Model) AddSuccessor(id, succID int) error {
	return m.link(id, succID)
}

// RemovePredecessor drops the predID -> id link on both sides.
func (m *Model) RemovePredecessor(id, predID int) error {
	return m.unlink(predID, id)
}

// RemoveSuccessor drops the id -> succID link on both sides.
func (m *Model) RemoveSuccessor(id, succID int) error {
	return m.unlink(id, succID)
}

func (m *Model) link(from, to int) error {
	if from == to {
		return fmt.Errorf("task %d: %w", from, ErrSelfLink)
	}
	ft, ok := m.tasks[from]
	if !ok {
		return fmt.Errorf("task %d: %w", from, ErrNotFound)
	}
	tt, ok := m.tasks[to]
	if !ok {
		return fmt.Errorf("task %d: %w", to, ErrNotFound)
	}
	ft.Successors = insertID(ft.Successors, to)
	tt.Predecessors = insertID(tt.Predecessors, from)
	return nil
}

func (m *Model) unlink(from, to int) error {
	ft, ok := m.tasks[from]
	if !ok {
		return fmt.Errorf("task %d: %w", from, ErrNotFound)
	}
	tt, ok := m.tasks[to]
	if !ok {
		return fmt.Errorf("task %d: %w", to, ErrNotFound)
	}
	ft.Successors = removeID(ft.Successors, to)
	tt.Predecessors = removeID(tt.Predecessors, from)
	return nil
}

// UpdateWindow changes the timeline length, grid height and setdate. It
// refuses sizes that would leave a task outside the window. Capacity vectors
// are truncated or padded with default capacity.
func (m *Model) UpdateWindow(days, maxRows int, setDate time.Time) error {
	if days < 1 || maxRows < 1 {
		return fmt.Errorf("window %dx%d: %w", days, maxRows, ErrInvalidBounds)
	}
	for _, id := range sortedKeys(m.tasks) {
		t := m.tasks[id]
		if t.End() > days || t.Row >= maxRows {
			return fmt.Errorf("task %d does not fit a %dx%d window: %w", id, days, maxRows, ErrInvalidBounds)
		}
	}
	m.window.Days = days
	m.window.MaxRows = maxRows
	m.window.SetDate = calendar.Midnight(setDate)
	cal := m.Calendar()
	for _, r := range m.resources {
		r.Capacity = fitCapacity(r.Capacity, cal, r.WorksWeekends)
	}
	return nil
}

// SetStartDate moves day 0 without touching task columns or capacities.
// Re-anchoring is the job of the shift package.
func (m *Model) SetStartDate(d time.Time) {
	m.window.StartDate = calendar.Midnight(d)
}

// SetSetDate moves the "today" marker.
func (m *Model) SetSetDate(d time.Time) {
	m.window.SetDate = calendar.Midnight(d)
}

func (m *Model) validateTask(t *Task) error {
	w := m.window
	if t.Duration < 1 {
		return fmt.Errorf("task %d duration %d: %w", t.ID, t.Duration, ErrInvalidBounds)
	}
	if t.Col < 0 || t.End() > w.Days {
		return fmt.Errorf("task %d days [%d,%d) outside [0,%d): %w", t.ID, t.Col, t.End(), w.Days, ErrInvalidBounds)
	}
	if t.Row < 0 || t.Row >= w.MaxRows {
		return fmt.Errorf("task %d row %d outside [0,%d): %w", t.ID, t.Row, w.MaxRows, ErrInvalidBounds)
	}
	if !ValidColor(t.Color) {
		return fmt.Errorf("task %d color %q: %w", t.ID, t.Color, ErrInvalidColor)
	}
	for _, tag := range t.Tags {
		if !tags.Valid(tag) {
			return fmt.Errorf("task %d tag %q: %w", t.ID, tag, ErrInvalidTag)
		}
	}
	if t.Resources == nil {
		t.Resources = map[int]float64{}
	}
	for rid, alloc := range t.Resources {
		if _, ok := m.resources[rid]; !ok {
			return fmt.Errorf("task %d resource %d: %w", t.ID, rid, ErrNotFound)
		}
		if alloc <= 0 {
			delete(t.Resources, rid)
		}
	}
	for _, ids := range [][]int{t.Predecessors, t.Successors} {
		for _, other := range ids {
			if other == t.ID {
				return fmt.Errorf("task %d: %w", t.ID, ErrSelfLink)
			}
			if _, ok := m.tasks[other]; !ok {
				return fmt.Errorf("task %d link to %d: %w", t.ID, other, ErrNotFound)
			}
		}
	}
	return nil
}

func fitCapacity(old []float64, cal calendar.Calendar, worksWeekends bool) []float64 {
	v := make([]float64, cal.Days)
	for k := range v {
		if k < len(old) {
			v[k] = old[k]
		} else {
			v[k] = DefaultCapacity(cal, k, worksWeekends)
		}
	}
	return v
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func normalizeIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func insertID(ids []int, id int) []int {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

func removeID(ids []int, id int) []int {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	out := slices.Delete(ids, i, i+1)
	if len(out) == 0 {
		return nil
	}
	return out
}

// diffIDs returns the ids in a that are not in b.
func diffIDs(a, b []int) []int {
	var out []int
	for _, id := range a {
		if _, found := slices.BinarySearch(b, id); !found {
			out = append(out, id)
		}
	}
	return out
}
