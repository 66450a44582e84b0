package editor

import (
	"time"

	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/schema"
)

// DefaultDebounce is the quiet interval before live validation runs.
const DefaultDebounce = 500 * time.Millisecond

// Config holds the per-session editor settings. Schema flags override the
// structural permissions per container.
type Config struct {
	InsertItems   bool          `json:"insert_items" yaml:"insert-items" jsonschema:"description=Allow adding members and elements"`
	MoveItems     bool          `json:"move_items" yaml:"move-items" jsonschema:"description=Allow reordering members and elements"`
	RemoveItems   bool          `json:"remove_items" yaml:"remove-items" jsonschema:"description=Allow removing members and elements"`
	EditKeys      bool          `json:"edit_keys" yaml:"edit-keys" jsonschema:"description=Allow renaming undeclared object keys"`
	VisibleSchema bool          `json:"visible_schema" yaml:"visible-schema" jsonschema:"description=Let the user open the bound schema"`
	Debounce      time.Duration `json:"debounce" yaml:"debounce" jsonschema:"type=string,description=Quiet interval before live validation"`

	// BlockInvalidSave refuses Done while the document has violations.
	BlockInvalidSave bool `json:"block_invalid_save" yaml:"block-invalid-save" jsonschema:"description=Refuse to save invalid documents"`

	PathStyle        path.Style `json:"-" yaml:"-"`
	LegacyZeroBounds bool       `json:"legacy_zero_bounds" yaml:"legacy-zero-bounds" jsonschema:"description=Treat bounds of 0 as absent"`
}

// DefaultConfig returns the settings used when the host configures nothing.
func DefaultConfig() Config {
	return Config{
		InsertItems:   true,
		MoveItems:     true,
		RemoveItems:   true,
		EditKeys:      true,
		VisibleSchema: true,
		Debounce:      DefaultDebounce,
	}
}

// Permissions returns the configured structural defaults.
func (c Config) Permissions() schema.Permissions {
	return schema.Permissions{
		Insert:   c.InsertItems,
		Move:     c.MoveItems,
		Remove:   c.RemoveItems,
		EditKeys: c.EditKeys,
	}
}
