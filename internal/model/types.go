package model

import (
	"maps"
	"slices"
	"time"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/clock"
)

// Default window dimensions for a new project.
const (
	DefaultDays    = 100
	DefaultMaxRows = 50
)

// Task is a scheduled unit of work occupying Duration days from Col on Row.
type Task struct {
	ID           int             `json:"task_id"`
	Row          int             `json:"row"`
	Col          int             `json:"col"`
	Duration     int             `json:"duration"`
	Description  string          `json:"description"`
	URL          string          `json:"url"`
	Color        string          `json:"color"`
	Notes        string          `json:"notes,omitempty"`
	Resources    map[int]float64 `json:"resources"` // resource id -> allocation per day
	Predecessors []int           `json:"predecessors"`
	Successors   []int           `json:"successors"`
	Tags         []string        `json:"tags"`
}

// End returns the first day after the task.
func (t Task) End() int {
	return t.Col + t.Duration
}

// Overlaps reports whether t and u share a row and at least one day.
func (t Task) Overlaps(u Task) bool {
	return t.Row == u.Row && t.Col < u.End() && u.Col < t.End()
}

// Active reports whether the task runs on day k.
func (t Task) Active(k int) bool {
	return t.Col <= k && k < t.End()
}

func (t Task) clone() Task {
	c := t
	c.Resources = maps.Clone(t.Resources)
	if c.Resources == nil {
		c.Resources = map[int]float64{}
	}
	c.Predecessors = slices.Clone(t.Predecessors)
	c.Successors = slices.Clone(t.Successors)
	c.Tags = slices.Clone(t.Tags)
	return c
}

// Resource is a named capacity channel with one capacity value per day.
type Resource struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Capacity      []float64 `json:"capacity"`
	WorksWeekends bool      `json:"works_weekends"`
	Tags          []string  `json:"tags"`
}

func (r Resource) clone() Resource {
	c := r
	c.Capacity = slices.Clone(r.Capacity)
	c.Tags = slices.Clone(r.Tags)
	return c
}

// Window is the project coordinate system.
type Window struct {
	Days      int       `json:"days"`
	MaxRows   int       `json:"max_rows"`
	StartDate time.Time `json:"start_date"`
	SetDate   time.Time `json:"setdate"`
}

// DefaultWindow returns a 100-day, 50-row window starting today.
func DefaultWindow(clk clock.Clock) Window {
	today := calendar.Midnight(clk.Now())
	return Window{
		Days:      DefaultDays,
		MaxRows:   DefaultMaxRows,
		StartDate: today,
		SetDate:   today,
	}
}

// Calendar returns the calendar for the window.
func (w Window) Calendar() calendar.Calendar {
	return calendar.New(w.StartDate, w.Days)
}

// DefaultCapacity is the capacity a fresh day gets: 1.0, except 0.0 on
// weekends for resources that do not work weekends.
func DefaultCapacity(cal calendar.Calendar, day int, worksWeekends bool) float64 {
	if !worksWeekends && cal.IsWeekend(day) {
		return 0.0
	}
	return 1.0
}

// DefaultCapacityVector builds a full capacity vector for the calendar.
func DefaultCapacityVector(cal calendar.Calendar, worksWeekends bool) []float64 {
	v := make([]float64, cal.Days)
	for k := range v {
		v[k] = DefaultCapacity(cal, k, worksWeekends)
	}
	return v
}

// TaskInput carries the fields of a new task. Zero values take defaults:
// Color falls back to DefaultColor.
type TaskInput struct {
	Row          int
	Col          int
	Duration     int
	Description  string
	URL          string
	Color        string
	Notes        string
	Resources    map[int]float64
	Predecessors []int
	Successors   []int
	Tags         []string
}

// TaskPatch is a partial task update; nil fields are left untouched.
type TaskPatch struct {
	Row          *int
	Col          *int
	Duration     *int
	Description  *string
	URL          *string
	Color        *string
	Notes        *string
	Resources    map[int]float64 // replaces the allocation map when non-nil
	Predecessors *[]int
	Successors   *[]int
	Tags         *[]string
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
