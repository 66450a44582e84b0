// Package i18n holds the label table used by the editor and the validator.
//
// Strings are grouped by category. Templates may carry %name placeholders
// that Get substitutes from its params.
package i18n

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Categories of the table.
const (
	UI         = "ui"
	Icon       = "icon"
	Error      = "error"
	Validation = "validation"
)

// Params are placeholder values for a template.
type Params map[string]string

var defaults = map[string]map[string]string{
	UI: {
		"popupTitle":             "Edit JSON",
		"popupOkButtonLabel":     "Done",
		"popupCancelButtonLabel": "Cancel",
		"moveUpTitle":            "Move up",
		"moveDownTitle":          "Move down",
		"removeTitle":            "Remove this item",
		"collapseItemTitle":      "Collapse item",
		"expandItemTitle":        "Expand item",
		"selectType":             "Select type",
		"add":                    "Add",
		"newKey":                 "New key",
		"confirmRemoval":         "Remove this item?",
		"unnamed":                "Unnamed",
		"viewSchema":             "View JSON schema for this field",
		"hasSchema":              "There is a JSON schema for this field",
		"viewSchemaTitle":        "Structure and validation rules for this field",
	},
	Icon: {
		"moveUpIcon":       "↑",
		"moveDownIcon":     "↓",
		"collapseItemIcon": "▾",
		"expandItemIcon":   "▸",
		"removeIcon":       "×",
		"lockIcon":         "🔒",
		"closeIcon":        "×",
	},
	Error: {
		"targetElementNotFound": "Target element not found.",
		"noKeyError":            "The key is required.",
		"invalidJson":           "Invalid JSON (%error)",
		"jsonNotSet":            "JSON is not set",
		"schemaNotFound":        "Schema %schema not found",
	},
	Validation: {
		"type":       "must be of type %type",
		"pattern":    "must match the pattern %pattern",
		"const":      "must be equal to %const",
		"format":     "must be a valid %format",
		"minLength":  "must have at least %minLength characters",
		"maxLength":  "must have at most %maxLength characters",
		"minimum":    "must be greater than or equal to %minimum",
		"maximum":    "must be less than or equal to %maximum",
		"minItems":   "must have at least %minItems items",
		"maxItems":   "must have at most %maxItems items",
		"enum":       "must be one of the values: %values",
		"unique":     "items must be unique",
		"required":   "required field missing",
		"notAllowed": "field not allowed",
	},
}

// Table is a category → key → template lookup. The zero value is not usable;
// build tables with New.
type Table struct {
	data map[string]map[string]string
	mu   sync.RWMutex
}

// New returns a table holding the built-in English strings.
func New() *Table {
	t := &Table{data: make(map[string]map[string]string, len(defaults))}
	for category, entries := range defaults {
		t.data[category] = make(map[string]string, len(entries))
		for k, v := range entries {
			t.data[category][k] = v
		}
	}
	return t
}

// Get resolves key in category and substitutes params. An unknown category
// falls back to UI; an unknown key resolves to the key itself.
func (t *Table) Get(category, key string, params Params) string {
	t.mu.RLock()
	entries, ok := t.data[category]
	if !ok {
		entries = t.data[UI]
	}
	text, ok := entries[key]
	t.mu.RUnlock()
	if !ok {
		text = key
	}
	return substitute(text, params)
}

// UI is Get for the ui category without params.
func (t *Table) UI(key string) string { return t.Get(UI, key, nil) }

// Icon is Get for the icon category.
func (t *Table) Icon(key string) string { return t.Get(Icon, key, nil) }

// Set merges entries into the table, replacing existing keys.
func (t *Table) Set(entries map[string]map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for category, values := range entries {
		if t.data[category] == nil {
			t.data[category] = make(map[string]string, len(values))
		}
		for k, v := range values {
			t.data[category][k] = v
		}
	}
}

// LoadFile merges overrides from a YAML file shaped like
//
//	ui:
//	  popupTitle: Editar JSON
//	validation:
//	  required: campo obrigatório ausente
func (t *Table) LoadFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read strings file: %w", err)
	}
	var entries map[string]map[string]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse strings file %s: %w", file, err)
	}
	t.Set(entries)
	return nil
}

// substitute replaces longer placeholder names first so %minLength is not
// clobbered by a %min param.
func substitute(text string, params Params) string {
	if len(params) == 0 {
		return text
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		text = strings.ReplaceAll(text, "%"+name, params[name])
	}
	return text
}
