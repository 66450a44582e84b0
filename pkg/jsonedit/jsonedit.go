// Package jsonedit provides a public API for validating, formatting and
// editing JSON documents against a JSON Schema.
//
// It exposes the same behavior as the jsonedit CLI and editor host so that
// other applications can embed schema-aware JSON handling directly.
//
// Example usage:
//
//	schema := []byte(`{"type": "object", "required": ["name"]}`)
//
//	violations, err := jsonedit.Validate([]byte(`{}`), schema)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, v := range violations {
//		fmt.Printf("%s: %s\n", v.Path, v.Message)
//	}
//
//	// Open a file for structural editing
//	session, err := jsonedit.EditFile("settings.json", schema, jsonedit.WithBlockInvalidSave(true))
package jsonedit

import (
	"fmt"
	"time"

	"github.com/lacquerai/jsonedit/internal/editor"
	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/store"
	"github.com/lacquerai/jsonedit/internal/validate"
	"github.com/lacquerai/jsonedit/internal/value"
)

// Violation is one schema violation found in a document.
type Violation struct {
	// Path locates the offending value, e.g. "root.items.0.name".
	Path string `json:"path"`
	// Kind is the violated keyword, e.g. "required" or "minimum".
	Kind string `json:"kind"`
	// Message is the localized description of the violation.
	Message string `json:"message"`
}

// Option represents a functional option for configuring validation and
// editing behavior.
//
// Options follow the functional options pattern, allowing for flexible
// and extensible configuration of the editor.
type Option func(*settings)

type settings struct {
	config   editor.Config
	strings  *i18n.Table
	listener Listener
	confirm  editor.Confirmer
	err      error
}

func newSettings(options []Option) (*settings, error) {
	s := &settings{config: editor.DefaultConfig()}
	for _, option := range options {
		option(s)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.strings == nil {
		s.strings = i18n.New()
	}
	return s, nil
}

// WithPathStyle selects how violation paths are written: "dots"
// (root.a.0), "js" (root.a[0]) or "pointer" (#/a/0).
func WithPathStyle(name string) Option {
	return func(s *settings) { s.config.PathStyle = path.ParseStyle(name) }
}

// WithLegacyZeroBounds treats numeric and length bounds of 0 as absent.
func WithLegacyZeroBounds(enabled bool) Option {
	return func(s *settings) { s.config.LegacyZeroBounds = enabled }
}

// WithBlockInvalidSave makes Save refuse documents that have violations.
func WithBlockInvalidSave(enabled bool) Option {
	return func(s *settings) { s.config.BlockInvalidSave = enabled }
}

// WithDebounce sets how long edits must be quiet before live validation
// runs and listeners are notified.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) { s.config.Debounce = d }
}

// WithStringsFile overrides UI labels and messages with the entries of a
// YAML or JSON file.
//
// Parameters:
//   - file: Path to a file grouping overrides under "labels", "errors" and
//     "validation"
//
// Example:
//
//	violations, err := Validate(doc, schema, WithStringsFile("pt-BR.yaml"))
func WithStringsFile(file string) Option {
	return func(s *settings) {
		table := i18n.New()
		if err := table.LoadFile(file); err != nil {
			s.err = err
			return
		}
		s.strings = table
	}
}

// WithConfirm sets the callback that answers removal confirmations in an
// editing session. Without it every removal is declined.
func WithConfirm(confirm editor.ConfirmFunc) Option {
	return func(s *settings) { s.confirm = confirm }
}

// Validate checks document against the JSON Schema in schemaDoc.
//
// Parameters:
//   - document: The JSON text to check
//   - schemaDoc: The JSON Schema, as JSON text
//   - options: Variadic functional options
//
// Returns:
//   - []Violation: Every violation found, in document order. Empty when the
//     document is valid.
//   - error: Set when either input is not valid JSON, the schema uses a
//     keyword with the wrong type, or a strings file cannot be loaded
func Validate(document, schemaDoc []byte, options ...Option) ([]Violation, error) {
	s, err := newSettings(options)
	if err != nil {
		return nil, err
	}

	sch, err := schema.Parse(schemaDoc)
	if err != nil {
		return nil, err
	}
	doc, err := value.Parse(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", editor.ErrInvalidJSON, s.strings.Get(i18n.Error, "invalidJson", i18n.Params{"error": err.Error()}))
	}

	v := validate.New(validate.Options{
		LegacyZeroBounds: s.config.LegacyZeroBounds,
		PathStyle:        s.config.PathStyle,
		Strings:          s.strings,
	})
	return violations(v.Validate(doc, sch), s.config.PathStyle), nil
}

// Format rewrites document the way the editor saves it: four-space indent,
// members in document order.
func Format(document []byte) (string, error) {
	doc, err := value.Parse(document)
	if err != nil {
		return "", err
	}
	return value.Encode(doc, value.SaveIndent), nil
}

// Seed returns the document an empty field starts from when bound to the
// schema in schemaDoc.
func Seed(schemaDoc []byte) (string, error) {
	sch, err := schema.Parse(schemaDoc)
	if err != nil {
		return "", err
	}
	return value.Encode(schema.DefaultValue(sch), value.SaveIndent), nil
}

// EditFile binds the JSON document at file to a structural editing session.
//
// An empty or missing file is seeded from the schema. The returned session
// is already open: HTML returns the editor, Click and Input apply user
// events, and Save writes the document back to file. While open, every
// quiet period after an edit runs live validation and notifies the
// listener set with WithValidationListener. A nil schemaDoc edits without
// a schema.
//
// Example:
//
//	session, err := EditFile("prefs.json", schema, WithConfirm(askUser))
//	if err != nil {
//		return err
//	}
//	defer session.Close()
//
//	markup, _ := session.HTML()
//	// ... route clicks and input to session.Click / session.Input
//	result, err := session.Save()
func EditFile(file string, schemaDoc []byte, options ...Option) (*editor.Session, error) {
	s, err := newSettings(options)
	if err != nil {
		return nil, err
	}

	var sch *schema.Node
	if schemaDoc != nil {
		if sch, err = schema.Parse(schemaDoc); err != nil {
			return nil, err
		}
	}

	opts := []editor.SessionOption{editor.WithStrings(s.strings)}
	if s.confirm != nil {
		opts = append(opts, editor.WithConfirmer(s.confirm))
	}
	if s.listener != nil {
		opts = append(opts, editor.WithObserver(func(r editor.Report) {
			s.listener.Validated(ValidationEvent{
				SessionID:  r.SessionID,
				Violations: violations(r.Errors, s.config.PathStyle),
			})
		}))
	}

	session, err := editor.Bind(store.OpenFile(file, store.Meta{}), sch, s.config, opts...)
	if err != nil {
		return nil, err
	}
	if err := session.Open(nil); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

func violations(errs []validate.Error, style path.Style) []Violation {
	out := make([]Violation, 0, len(errs))
	for _, e := range errs {
		out = append(out, Violation{
			Path:    e.Path.Format(style),
			Kind:    string(e.Kind),
			Message: e.Message,
		})
	}
	return out
}
