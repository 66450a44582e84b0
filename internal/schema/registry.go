package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrSchemaNotFound is returned by Registry.Get for unknown names.
var ErrSchemaNotFound = errors.New("schema not found")

// Registry holds named schemas. It is built once by the application and
// shared by every editor session.
type Registry struct {
	schemas map[string]*Node
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*Node),
	}
}

// Register adds a schema under name, replacing any previous one.
func (r *Registry) Register(name string, node *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[name] = node
}

// Lookup retrieves a schema by exact name.
func (r *Registry) Lookup(name string) (*Node, bool) {
	if r == nil || name == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, exists := r.schemas[name]
	return node, exists
}

// Get is Lookup returning ErrSchemaNotFound on a miss.
func (r *Registry) Get(name string) (*Node, error) {
	node, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	return node, nil
}

// List returns all schema names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered schemas
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// LoadFile parses a schema file by extension and registers it under the file
// stem. It returns the registered name.
func (r *Registry) LoadFile(file string) (string, error) {
	node, err := ParseFile(file)
	if err != nil {
		return "", err
	}
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	r.Register(name, node)

	log.Debug().
		Str("schema", name).
		Str("file", file).
		Msg("Schema loaded")

	return name, nil
}

// LoadDir registers every *.json, *.yaml and *.yml file under dir.
func (r *Registry) LoadDir(dir string) error {
	files, err := findSchemaFiles(dir)
	if err != nil {
		return fmt.Errorf("failed to scan schema directory: %w", err)
	}

	for _, file := range files {
		if _, err := r.LoadFile(file); err != nil {
			return err
		}
	}

	log.Info().
		Str("dir", dir).
		Int("schemas", len(files)).
		Msg("Schemas loaded")

	return nil
}

// ParseFile reads and parses a JSON or YAML schema file.
func ParseFile(file string) (*Node, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", file, err)
	}

	var node *Node
	if isYAML(file) {
		node, err = ParseYAML(data)
	} else {
		node, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", file, err)
	}
	return node, nil
}

func isYAML(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	return ext == ".yaml" || ext == ".yml"
}

func findSchemaFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		switch strings.ToLower(filepath.Ext(p)) {
		case ".json", ".yaml", ".yml":
			if !info.IsDir() {
				files = append(files, p)
			}
		}

		return nil
	})

	return files, err
}
