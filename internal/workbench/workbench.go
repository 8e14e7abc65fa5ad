// Package workbench is the single entry point views, exporters and the CLI
// use to drive a project. It owns the model and the active filters,
// forwards mutations (running collision resolution and start-date shifts
// where they apply) and computes derived values on demand.
//
// A Workbench serialises mutations behind a write lock; queries take a read
// lock and return snapshots, so the HTTP viewer can read while the CLI
// writes.
package workbench

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/joshharrison/planloom/internal/clock"
	"github.com/joshharrison/planloom/internal/document"
	"github.com/joshharrison/planloom/internal/filter"
	"github.com/joshharrison/planloom/internal/model"
)

// Workbench owns one project.
type Workbench struct {
	mu      sync.RWMutex
	model   *model.Model
	filters filter.Filters
	path    string
	dirty   bool

	clock  clock.Clock
	codec  *document.Codec
	logger *slog.Logger
}

// Option configures a Workbench.
type Option func(*Workbench)

// WithClock sets the clock used for "today".
func WithClock(c clock.Clock) Option {
	return func(w *Workbench) { w.clock = c }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Workbench) { w.logger = l }
}

func build(opts []Option) *Workbench {
	w := &Workbench{clock: clock.Real(), logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	w.codec = document.NewCodec(w.clock, w.logger)
	return w
}

// New returns a workbench over an empty project with the given window. A
// zero StartDate or SetDate means today.
func New(win model.Window, opts ...Option) (*Workbench, error) {
	w := build(opts)
	today := model.DefaultWindow(w.clock)
	if win.StartDate.IsZero() {
		win.StartDate = today.StartDate
	}
	if win.SetDate.IsZero() {
		win.SetDate = today.SetDate
	}
	m, err := model.New(win)
	if err != nil {
		return nil, err
	}
	w.model = m
	return w, nil
}

// Open loads the document at path into a new workbench.
func Open(path string, opts ...Option) (*Workbench, error) {
	w := build(opts)
	m, err := w.codec.Load(path)
	if err != nil {
		return nil, err
	}
	w.model = m
	w.path = path
	return w, nil
}

// Load replaces the project with the document at path. On failure the
// current project is left untouched.
func (w *Workbench) Load(path string) error {
	m, err := w.codec.Load(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.model = m
	w.path = path
	w.dirty = false
	w.logger.Info("project loaded", "path", path, "tasks", m.TaskCount())
	return nil
}

// Save writes the project to the path it was loaded from or last saved to.
func (w *Workbench) Save() error {
	w.mu.RLock()
	path := w.path
	w.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("project has no file name yet")
	}
	return w.SaveAs(path)
}

// SaveAs writes the project to path and remembers it.
func (w *Workbench) SaveAs(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.codec.Save(path, w.model); err != nil {
		return err
	}
	w.path = path
	w.dirty = false
	return nil
}

// Path returns the document path, empty for an unsaved project.
func (w *Workbench) Path() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.path
}

// Dirty reports whether there are unsaved changes.
func (w *Workbench) Dirty() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dirty
}

// mutate runs fn under the write lock and logs the outcome.
func (w *Workbench) mutate(op string, fn func(m *model.Model) error, attrs ...any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := fn(w.model); err != nil {
		w.logger.Debug(op+" rejected", append(attrs, "error", err)...)
		return err
	}
	w.dirty = true
	w.logger.Debug(op, attrs...)
	return nil
}

// read runs fn under the read lock.
func (w *Workbench) read(fn func(m *model.Model)) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	fn(w.model)
}
