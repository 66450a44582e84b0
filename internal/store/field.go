package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lacquerai/jsonedit/internal/editor"
)

var (
	_ editor.Source = (*FileField)(nil)
	_ editor.Reader = (*FileField)(nil)
)

// FileField is an editor.Source backed by a file. A missing file reads as
// empty text, which lets a bound schema seed it.
type FileField struct {
	id   string
	path string
	meta Meta
	mu   sync.RWMutex
}

// OpenFile wraps a standalone document outside any store. The id is the
// file name without its extension.
func OpenFile(path string, meta Meta) *FileField {
	base := filepath.Base(path)
	return &FileField{
		id:   strings.TrimSuffix(base, filepath.Ext(base)),
		path: path,
		meta: meta,
	}
}

func (f *FileField) ID() string { return f.id }

// Name is the file name.
func (f *FileField) Name() string { return filepath.Base(f.path) }

// Path is the location of the document.
func (f *FileField) Path() string { return f.path }

// Meta returns the field attributes.
func (f *FileField) Meta() Meta { return f.meta }

// Value returns the document text, or "" when it cannot be read.
func (f *FileField) Value() string {
	text, err := f.ReadValue()
	if err != nil {
		log.Warn().Err(err).Str("field", f.id).Msg("Failed to read field")
		return ""
	}
	return text
}

// ReadValue returns the document text. A missing file is empty text; any
// other read failure is an error.
func (f *FileField) ReadValue() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path) // #nosec G304 - path is chosen by the operator
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

func (f *FileField) SetValue(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("creating field directory: %w", err)
	}
	return writeFile(f.path, []byte(text))
}

func (f *FileField) Attr(key string) (string, bool) {
	switch key {
	case editor.AttrSchema:
		return f.meta.Schema, f.meta.Schema != ""
	case editor.AttrTitle:
		return f.meta.Title, f.meta.Title != ""
	}
	return "", false
}
