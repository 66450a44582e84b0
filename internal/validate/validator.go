// Package validate checks a JSON document against a schema node.
//
// Violations come back in traversal order: the node's own constraints, then
// its required keys, then declared properties in schema order, then
// undeclared members in document order, then array elements by index.
// Validation never mutates the document or the schema.
package validate

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/value"
)

// Options tunes a Validator.
type Options struct {
	// LegacyZeroBounds treats a bound of exactly 0 as absent, so
	// "minimum": 0 or "minItems": 0 constrain nothing.
	LegacyZeroBounds bool

	// PathStyle is the notation used by Validator.Messages.
	PathStyle path.Style

	// Strings resolves message templates. Nil uses the built-in table.
	Strings *i18n.Table
}

// Validator checks documents. It is safe for concurrent use.
type Validator struct {
	opts Options
}

// New creates a validator
func New(opts Options) *Validator {
	if opts.Strings == nil {
		opts.Strings = i18n.New()
	}
	return &Validator{opts: opts}
}

// Validate checks doc against root with default options.
func Validate(doc *value.Value, root *schema.Node) []Error {
	return New(Options{}).Validate(doc, root)
}

// Validate returns the violations of doc against root, starting at the root
// path. A nil schema accepts everything.
func (v *Validator) Validate(doc *value.Value, root *schema.Node) []Error {
	return v.ValidateAt(doc, root, path.Path{})
}

// ValidateAt is Validate with errors reported below at.
func (v *Validator) ValidateAt(doc *value.Value, root *schema.Node, at path.Path) []Error {
	if root == nil {
		return nil
	}
	w := walker{v: v}
	w.node(doc, root, at)
	return w.errs
}

// Messages renders errs as "path: message" in the configured path style.
func (v *Validator) Messages(errs []Error) []string {
	return Messages(errs, v.opts.PathStyle)
}

type walker struct {
	v    *Validator
	errs []Error
}

func (w *walker) report(at path.Path, kind Kind, params i18n.Params) {
	w.errs = append(w.errs, Error{
		Path:    at,
		Kind:    kind,
		Params:  params,
		Message: w.v.opts.Strings.Get(i18n.Validation, string(kind), params),
	})
}

func (w *walker) node(doc *value.Value, n *schema.Node, at path.Path) {
	if len(n.Types) > 0 && !matchesAnyType(doc, n.Types) {
		w.report(at, KindType, i18n.Params{"type": strings.Join(n.Types, ", ")})
	}

	w.constraints(doc, n, at)

	if doc.Kind() == value.Object {
		for _, key := range n.Required {
			if !doc.Has(key) {
				w.report(at.Key(key), KindRequired, i18n.Params{"key": key})
			}
		}
		w.members(doc, n, at)
	}

	if doc.Kind() == value.Array && n.Items != nil {
		for i, item := range doc.Items() {
			w.node(item, n.Items, at.Index(i))
		}
	}
}

func (w *walker) constraints(doc *value.Value, n *schema.Node, at path.Path) {
	if n.Const != nil && !value.Equal(doc, n.Const) {
		w.report(at, KindConst, i18n.Params{"const": display(n.Const)})
	}

	if len(n.Enum) > 0 && !inEnum(doc, n.Enum) {
		shown := make([]string, len(n.Enum))
		for i, e := range n.Enum {
			shown[i] = display(e)
		}
		w.report(at, KindEnum, i18n.Params{"values": strings.Join(shown, ", ")})
	}

	switch doc.Kind() {
	case value.String:
		s := doc.Str()
		if !n.MatchPattern(s) {
			w.report(at, KindPattern, i18n.Params{"pattern": n.Pattern})
		}
		if n.Format != "" && !CheckFormat(n.Format, s) {
			w.report(at, KindFormat, i18n.Params{"format": n.Format})
		}
		length := len(utf16.Encode([]rune(s)))
		if w.activeCount(n.MinLength) && length < *n.MinLength {
			w.report(at, KindMinLength, i18n.Params{"minLength": strconv.Itoa(*n.MinLength)})
		}
		if w.activeCount(n.MaxLength) && length > *n.MaxLength {
			w.report(at, KindMaxLength, i18n.Params{"maxLength": strconv.Itoa(*n.MaxLength)})
		}

	case value.Number:
		x := doc.Number()
		if w.activeBound(n.Minimum) && x < *n.Minimum {
			w.report(at, KindMinimum, i18n.Params{"minimum": value.FormatNumber(*n.Minimum)})
		}
		if w.activeBound(n.Maximum) && x > *n.Maximum {
			w.report(at, KindMaximum, i18n.Params{"maximum": value.FormatNumber(*n.Maximum)})
		}

	case value.Array:
		size := doc.Len()
		if w.activeCount(n.MinItems) && size < *n.MinItems {
			w.report(at, KindMinItems, i18n.Params{"minItems": strconv.Itoa(*n.MinItems)})
		}
		if w.activeCount(n.MaxItems) && size > *n.MaxItems {
			w.report(at, KindMaxItems, i18n.Params{"maxItems": strconv.Itoa(*n.MaxItems)})
		}
		if n.UniqueItems && hasDuplicates(doc.Items()) {
			w.report(at, KindUnique, nil)
		}
	}
}

func (w *walker) members(doc *value.Value, n *schema.Node, at path.Path) {
	for _, key := range n.PropertyNames() {
		member, ok := doc.Get(key)
		if !ok {
			continue
		}
		prop, _ := n.Property(key)
		w.node(member, prop, at.Key(key))
	}

	for _, m := range doc.Members() {
		if _, declared := n.Property(m.Key); declared {
			continue
		}
		switch {
		case n.AdditionalProperties.Forbidden():
			w.report(at.Key(m.Key), KindNotAllowed, i18n.Params{"key": m.Key})
		case n.AdditionalProperties != nil && n.AdditionalProperties.Schema != nil:
			w.node(m.Value, n.AdditionalProperties.Schema, at.Key(m.Key))
		}
	}
}

func (w *walker) activeBound(bound *float64) bool {
	if bound == nil {
		return false
	}
	return !w.v.opts.LegacyZeroBounds || *bound != 0
}

func (w *walker) activeCount(bound *int) bool {
	if bound == nil {
		return false
	}
	return !w.v.opts.LegacyZeroBounds || *bound != 0
}

// MatchesType reports whether doc satisfies the named JSON Schema type.
func MatchesType(doc *value.Value, name string) bool {
	if name == "integer" {
		return doc.IsInteger()
	}
	kind, ok := value.ParseKind(name)
	return ok && doc.Kind() == kind
}

func matchesAnyType(doc *value.Value, types []string) bool {
	for _, t := range types {
		if MatchesType(doc, t) {
			return true
		}
	}
	return false
}

func inEnum(doc *value.Value, enum []*value.Value) bool {
	for _, e := range enum {
		if value.Equal(doc, e) {
			return true
		}
	}
	return false
}

func hasDuplicates(items []*value.Value) bool {
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			if value.Equal(items[i], items[j]) {
				return true
			}
		}
	}
	return false
}

// display shows strings bare and everything else as JSON.
func display(v *value.Value) string {
	if v.Kind() == value.String {
		return v.Str()
	}
	return v.String()
}
