// Package store keeps JSON text fields as files on disk.
//
// A Store is a directory of <id>.json documents plus a manifest.json that
// carries per-field attributes (bound schema name, popup title). Each file
// is exposed as an editor.Source through FileField.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	manifestFile = "manifest.json"
	fieldExt     = ".json"
)

var (
	// ErrFieldNotFound is returned for ids with no document on disk.
	ErrFieldNotFound = errors.New("field not found")
	// ErrInvalidID is returned for ids that would escape the store directory.
	ErrInvalidID = errors.New("invalid field id")
)

// Meta holds the attributes of one field.
type Meta struct {
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Store is a file-based field store.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// New opens a store rooted at baseDir, creating it when needed. An empty
// baseDir selects ~/.jsonedit/fields.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".jsonedit", "fields")
	}

	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	return &Store{baseDir: baseDir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.baseDir }

// Path returns the document path of a field.
func (s *Store) Path(id string) string {
	return filepath.Join(s.baseDir, id+fieldExt)
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || id+fieldExt == manifestFile {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// List returns the ids of every stored field, sorted.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading store directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == manifestFile || filepath.Ext(name) != fieldExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fieldExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// Field opens an existing field.
func (s *Store) Field(id string) (*FileField, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	path := s.Path(id)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, id)
		}
		return nil, fmt.Errorf("reading field %s: %w", id, err)
	}

	meta, err := s.Meta(id)
	if err != nil {
		return nil, err
	}
	return &FileField{id: id, path: path, meta: meta}, nil
}

// Create stores a new field, or overwrites the text and attributes of an
// existing one.
func (s *Store) Create(id string, meta Meta, text string) (*FileField, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	f := &FileField{id: id, path: s.Path(id), meta: meta}
	if err := f.SetValue(text); err != nil {
		return nil, err
	}
	if err := s.SetMeta(id, meta); err != nil {
		return nil, err
	}

	log.Debug().Str("field", id).Str("schema", meta.Schema).Msg("Field stored")
	return f, nil
}

// Remove deletes a field and its attributes.
func (s *Store) Remove(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.Remove(s.Path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFieldNotFound, id)
		}
		return fmt.Errorf("removing field %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	manifest, err := s.readManifest()
	if err != nil {
		return err
	}
	delete(manifest, id)
	return s.writeManifest(manifest)
}

// Meta returns the attributes stored for id; unknown ids have none.
func (s *Store) Meta(id string) (Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	manifest, err := s.readManifest()
	if err != nil {
		return Meta{}, err
	}
	return manifest[id], nil
}

// SetMeta replaces the attributes of id.
func (s *Store) SetMeta(id string, meta Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	manifest, err := s.readManifest()
	if err != nil {
		return err
	}
	if meta == (Meta{}) {
		delete(manifest, id)
	} else {
		manifest[id] = meta
	}
	return s.writeManifest(manifest)
}

func (s *Store) readManifest() (map[string]Meta, error) {
	manifest := make(map[string]Meta)
	data, err := os.ReadFile(filepath.Join(s.baseDir, manifestFile)) // #nosec G304 - path is controlled
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return manifest, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshalling manifest: %w", err)
	}
	return manifest, nil
}

func (s *Store) writeManifest(manifest map[string]Meta) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling manifest: %w", err)
	}
	return writeFile(filepath.Join(s.baseDir, manifestFile), data)
}

// writeFile replaces path through a temporary file in the same directory so
// readers never see a partial document.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
