// Package state persists per-document session state between CLI runs: the
// active tag filters, the selected tasks and the last critical path.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/joshharrison/planloom/internal/filter"
)

const stateDir = ".planloom"
const stateFile = "state.json"

// Store holds the sessions of every document in one directory.
type Store struct {
	Sessions map[string]*Session `json:"sessions"` // keyed by document file name

	mu   sync.Mutex `json:"-"`
	path string     `json:"-"`
}

// Session is the saved view state of a single document.
type Session struct {
	Filters      filter.Filters `json:"filters"`
	Selection    []int          `json:"selection,omitempty"`
	CriticalPath []int          `json:"critical_path,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Dir returns the state directory next to the document at docPath.
func Dir(docPath string) string {
	return filepath.Join(filepath.Dir(docPath), stateDir)
}

// Open loads the store next to docPath, or returns an empty one if none has
// been saved yet.
func Open(docPath string) (*Store, error) {
	path := filepath.Join(Dir(docPath), stateFile)
	s := &Store{Sessions: make(map[string]*Session), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if s.Sessions == nil {
		s.Sessions = make(map[string]*Session)
	}
	return s, nil
}

// Exists checks if a state file exists next to docPath.
func Exists(docPath string) bool {
	_, err := os.Stat(filepath.Join(Dir(docPath), stateFile))
	return err == nil
}

// Save persists the store to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// Get returns a copy of the session for docPath. Unknown documents get an
// empty session.
func (s *Store) Get(docPath string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.Sessions[filepath.Base(docPath)]
	if !ok {
		return Session{}
	}
	c := *ss
	c.Selection = slices.Clone(ss.Selection)
	c.CriticalPath = slices.Clone(ss.CriticalPath)
	return c
}

// Update applies fn to the session for docPath and saves.
func (s *Store) Update(docPath string, now time.Time, fn func(*Session)) error {
	s.mu.Lock()
	key := filepath.Base(docPath)
	ss, ok := s.Sessions[key]
	if !ok {
		ss = &Session{}
		s.Sessions[key] = ss
	}
	fn(ss)
	ss.UpdatedAt = now
	s.mu.Unlock()
	return s.Save()
}

// Forget drops the session for docPath and saves.
func (s *Store) Forget(docPath string) error {
	s.mu.Lock()
	delete(s.Sessions, filepath.Base(docPath))
	s.mu.Unlock()
	return s.Save()
}

// PruneSelection removes ids that no longer name a live task.
func (ss *Session) PruneSelection(live func(int) bool) {
	ss.Selection = slices.DeleteFunc(ss.Selection, func(id int) bool { return !live(id) })
	ss.CriticalPath = slices.DeleteFunc(ss.CriticalPath, func(id int) bool { return !live(id) })
}

// Clean removes the state directory next to docPath.
func Clean(docPath string) error {
	return os.RemoveAll(Dir(docPath))
}
