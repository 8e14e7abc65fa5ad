// Package document reads and writes project documents.
//
// A document is a JSON object with tasks, resources, days, max_rows,
// start_date and setdate. Hand-edited documents may carry // and /* */
// comments and trailing commas. Older documents name max_rows "max_tasks",
// key allocations by resource name and omit resource ids; all three are
// upgraded on load.
package document

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/clock"
	"github.com/joshharrison/planloom/internal/model"
)

// DefaultName is the document file name commands look for.
const DefaultName = "project.planloom.json"

var requiredFields = []string{"tasks", "resources", "days"}

type docTask struct {
	TaskID       int                `json:"task_id" validate:"gt=0"`
	Row          int                `json:"row" validate:"gte=0"`
	Col          int                `json:"col" validate:"gte=0"`
	Duration     int                `json:"duration" validate:"gte=1"`
	Description  string             `json:"description"`
	URL          string             `json:"url"`
	Color        string             `json:"color" validate:"omitempty,palette"`
	Notes        string             `json:"notes,omitempty"`
	Resources    map[string]float64 `json:"resources"`
	Predecessors []int              `json:"predecessors"`
	Successors   []int              `json:"successors"`
	Tags         []string           `json:"tags" validate:"dive,tag"`
}

type docResource struct {
	ID            int       `json:"id" validate:"gte=0"`
	Name          string    `json:"name" validate:"required"`
	Capacity      []float64 `json:"capacity" validate:"dive,gte=0"`
	WorksWeekends *bool     `json:"works_weekends"`
	Tags          []string  `json:"tags" validate:"dive,tag"`
}

type doc struct {
	Tasks     []docTask     `json:"tasks" validate:"dive"`
	Resources []docResource `json:"resources" validate:"dive"`
	Days      int           `json:"days" validate:"gte=1"`
	MaxRows   int           `json:"max_rows" validate:"gte=1"`
	StartDate string        `json:"start_date"`
	SetDate   string        `json:"setdate"`
}

// Codec converts between documents and models.
type Codec struct {
	clock  clock.Clock
	logger *slog.Logger
}

// NewCodec returns a codec. clk supplies the start date for documents that
// lack one; a nil logger means slog.Default().
func NewCodec(clk clock.Clock, logger *slog.Logger) *Codec {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{clock: clk, logger: logger}
}

// Load reads and decodes the document at path.
func (c *Codec) Load(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := c.Decode(data)
	if err != nil {
		c.logger.Warn("document rejected", "path", path, "error", err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.logger.Debug("document loaded", "path", path,
		"tasks", m.TaskCount(), "resources", len(m.Resources()))
	return m, nil
}

// Decode builds a fresh model from document bytes. Every failure wraps
// model.ErrDocumentMalformed.
func (c *Codec) Decode(data []byte) (*model.Model, error) {
	raw := jsonc.ToJSON(data)
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("not a JSON document: %w", model.ErrDocumentMalformed)
	}
	for _, field := range requiredFields {
		if !gjson.GetBytes(raw, field).Exists() {
			return nil, fmt.Errorf("missing %q: %w", field, model.ErrDocumentMalformed)
		}
	}

	var d doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDocumentMalformed, err)
	}
	if !gjson.GetBytes(raw, "max_rows").Exists() {
		d.MaxRows = model.DefaultMaxRows
		if legacy := gjson.GetBytes(raw, "max_tasks"); legacy.Exists() {
			d.MaxRows = int(legacy.Int())
			c.logger.Debug("upgraded legacy field", "from", "max_tasks", "to", "max_rows")
		}
	}
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDocumentMalformed, err)
	}

	w, err := c.window(d)
	if err != nil {
		return nil, err
	}
	resources, err := c.resources(d, w)
	if err != nil {
		return nil, err
	}
	tasks := c.decodeTasks(d.Tasks, resources)

	m, err := model.Restore(w, tasks, resources)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDocumentMalformed, err)
	}
	return m, nil
}

func (c *Codec) window(d doc) (model.Window, error) {
	w := model.Window{Days: d.Days, MaxRows: d.MaxRows}
	today := calendar.Midnight(c.clock.Now())

	w.StartDate = today
	if d.StartDate != "" {
		start, err := calendar.ParseDate(d.StartDate)
		if err != nil {
			return w, fmt.Errorf("start_date: %w: %v", model.ErrDocumentMalformed, err)
		}
		w.StartDate = start
	}
	w.SetDate = w.StartDate
	if d.SetDate != "" {
		set, err := calendar.ParseDate(d.SetDate)
		if err != nil {
			return w, fmt.Errorf("setdate: %w: %v", model.ErrDocumentMalformed, err)
		}
		w.SetDate = set
	}
	return w, nil
}

// resources converts the resource list, giving id-less resources fresh ids
// above every id in use and fitting capacities to the window.
func (c *Codec) resources(d doc, w model.Window) ([]model.Resource, error) {
	next := 0
	for _, r := range d.Resources {
		next = max(next, r.ID)
	}

	out := make([]model.Resource, 0, len(d.Resources))
	seen := make(map[int]bool, len(d.Resources))
	for _, r := range d.Resources {
		id := r.ID
		if id == 0 {
			next++
			id = next
			c.logger.Debug("assigned resource id", "name", r.Name, "resource_id", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate resource id %d: %w", id, model.ErrDocumentMalformed)
		}
		seen[id] = true

		worksWeekends := true
		if r.WorksWeekends != nil {
			worksWeekends = *r.WorksWeekends
		}
		out = append(out, model.Resource{
			ID:            id,
			Name:          r.Name,
			Capacity:      padCapacity(r.Capacity, w.Days),
			WorksWeekends: worksWeekends,
			Tags:          r.Tags,
		})
	}
	return out, nil
}

// padCapacity right-pads with 1.0 or truncates to days entries.
func padCapacity(capacity []float64, days int) []float64 {
	if len(capacity) >= days {
		return slices.Clone(capacity[:days])
	}
	out := make([]float64, days)
	copy(out, capacity)
	for k := len(capacity); k < days; k++ {
		out[k] = 1.0
	}
	return out
}

// decodeTasks converts tasks, resolving allocation keys. A key is a resource
// id in decimal or, in older documents, a resource name. Keys naming no
// resource are dropped with a warning.
func (c *Codec) decodeTasks(in []docTask, resources []model.Resource) []model.Task {
	byName := make(map[string]int, len(resources))
	known := make(map[int]bool, len(resources))
	for _, r := range resources {
		byName[r.Name] = r.ID
		known[r.ID] = true
	}

	out := make([]model.Task, 0, len(in))
	for _, t := range in {
		alloc := make(map[int]float64, len(t.Resources))
		for key, v := range t.Resources {
			id, err := strconv.Atoi(key)
			if err != nil {
				id = byName[key]
			}
			if !known[id] {
				c.logger.Warn("dropped allocation to unknown resource", "task_id", t.TaskID, "resource", key)
				continue
			}
			alloc[id] += v
		}
		out = append(out, model.Task{
			ID:           t.TaskID,
			Row:          t.Row,
			Col:          t.Col,
			Duration:     t.Duration,
			Description:  t.Description,
			URL:          t.URL,
			Color:        t.Color,
			Notes:        t.Notes,
			Resources:    alloc,
			Predecessors: t.Predecessors,
			Successors:   t.Successors,
			Tags:         t.Tags,
		})
	}
	return out
}

// Encode renders the canonical, pretty-printed document for m.
func Encode(m *model.Model) ([]byte, error) {
	w := m.Window()
	d := doc{
		Tasks:     []docTask{},
		Resources: []docResource{},
		Days:      w.Days,
		MaxRows:   w.MaxRows,
		StartDate: calendar.FormatDate(w.StartDate),
		SetDate:   calendar.FormatDate(w.SetDate),
	}
	for _, t := range m.Tasks() {
		alloc := make(map[string]float64, len(t.Resources))
		for id, v := range t.Resources {
			alloc[strconv.Itoa(id)] = v
		}
		d.Tasks = append(d.Tasks, docTask{
			TaskID:       t.ID,
			Row:          t.Row,
			Col:          t.Col,
			Duration:     t.Duration,
			Description:  t.Description,
			URL:          t.URL,
			Color:        t.Color,
			Notes:        t.Notes,
			Resources:    alloc,
			Predecessors: nonNil(t.Predecessors),
			Successors:   nonNil(t.Successors),
			Tags:         nonNil(t.Tags),
		})
	}
	for _, r := range m.Resources() {
		worksWeekends := r.WorksWeekends
		d.Resources = append(d.Resources, docResource{
			ID:            r.ID,
			Name:          r.Name,
			Capacity:      nonNil(r.Capacity),
			WorksWeekends: &worksWeekends,
			Tags:          nonNil(r.Tags),
		})
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes m to path atomically. The document is written to a temporary
// file in the same directory, fsynced and renamed into place, so readers
// never see a partial document.
func (c *Codec) Save(path string, m *model.Model) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}
	c.logger.Debug("document saved", "path", path, "bytes", len(data))
	return nil
}

func writeAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary document: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary document: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary document: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary document: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming document into place: %w", err)
	}

	if dir, err := os.Open(filepath.Dir(path)); err == nil {
		dir.Sync()
		dir.Close()
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
