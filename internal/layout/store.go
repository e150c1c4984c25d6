// Package layout persists the warehouse layout document: global shelving
// parameters, the shelf list and the 3D camera view.
package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Top-level document keys
const (
	KeyGlobalParams = "global_params"
	KeyShelves      = "shelves"
	KeyViewSettings = "view_settings"
)

// Document is the warehouse layout. Keys other than the three known ones are
// carried through untouched.
type Document map[string]any

// DefaultGlobalParams returns the parameters of a freshly created layout
func DefaultGlobalParams() map[string]any {
	return map[string]any{
		"area_count":    4.0,
		"channel_count": 2.0,
		"layer_count":   5.0,
		"cell_count":    20.0,
		"unit":          "米",
	}
}

// DefaultDocument returns a new default layout
func DefaultDocument() Document {
	return Document{
		KeyGlobalParams: DefaultGlobalParams(),
		KeyShelves:      []any{},
		KeyViewSettings: map[string]any{
			"camera_position": map[string]any{"x": 0.0, "y": 10.0, "z": 15.0},
			"camera_target":   map[string]any{"x": 0.0, "y": 0.0, "z": 0.0},
		},
	}
}

// Store reads and writes the layout document file.
//
// Read-modify-write cycles hold mu, so concurrent requests inside one process
// cannot lose each other's updates. Separate processes sharing the same file
// are still last-write-wins.
type Store struct {
	path string
	mu   sync.Mutex
	log  *slog.Logger
}

// NewStore returns a store backed by the file at path
func NewStore(path string, log *slog.Logger) *Store {
	return &Store{path: path, log: log}
}

// Load returns the persisted document, or the default one when the file is
// missing or unreadable. Missing top-level keys are backfilled; the fallback
// is not written back.
func (s *Store) Load() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("layout file unreadable, using defaults", "path", s.path, "error", err)
		}
		return DefaultDocument()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		s.log.Warn("layout file is not a JSON object, using defaults", "path", s.path, "error", err)
		return DefaultDocument()
	}

	backfill(doc)
	return doc
}

func backfill(doc Document) {
	defaults := DefaultDocument()
	if _, ok := doc[KeyGlobalParams].(map[string]any); !ok {
		doc[KeyGlobalParams] = defaults[KeyGlobalParams]
	}
	if _, ok := doc[KeyShelves].([]any); !ok {
		doc[KeyShelves] = defaults[KeyShelves]
	}
	if _, ok := doc[KeyViewSettings]; !ok {
		doc[KeyViewSettings] = defaults[KeyViewSettings]
	}
}

// Save overwrites the persisted document
func (s *Store) Save(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

func (s *Store) save(doc Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create layout dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".layout-*.json")
	if err != nil {
		return fmt.Errorf("create temp layout: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write layout: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write layout: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace layout: %w", err)
	}
	return nil
}

// mutate runs fn on the loaded document and saves the result unless fn fails
func (s *Store) mutate(fn func(doc Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

// UpdateFull replaces top-level keys of the document with those in partial.
// Nested values are replaced whole.
func (s *Store) UpdateFull(partial map[string]any) error {
	return s.mutate(func(doc Document) error {
		for k, v := range partial {
			doc[k] = v
		}
		return nil
	})
}

// UpdateGlobal merges partial into global_params field by field
func (s *Store) UpdateGlobal(partial map[string]any) error {
	return s.mutate(func(doc Document) error {
		params := doc.GlobalParams()
		for k, v := range partial {
			params[k] = v
		}
		doc[KeyGlobalParams] = params
		return nil
	})
}

// GlobalParams returns the global_params object, creating a default one if
// the document lacks it
func (d Document) GlobalParams() map[string]any {
	params, ok := d[KeyGlobalParams].(map[string]any)
	if !ok {
		params = DefaultGlobalParams()
		d[KeyGlobalParams] = params
	}
	return params
}

// Shelves returns the shelf list, or nil if absent
func (d Document) Shelves() []any {
	shelves, _ := d[KeyShelves].([]any)
	return shelves
}
