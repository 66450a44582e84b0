// Package schema interprets the subset of JSON Schema the editor understands.
//
// A Node is built once from a JSON or YAML document and never mutated
// afterwards. Keyword presence is kept distinct from zero values: a node with
// "minimum": 0 has a non-nil Minimum.
package schema

import (
	"fmt"
	"regexp"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/value"
)

// Node is a constraint descriptor for one structural position of a document.
type Node struct {
	// Type constraints
	Types []string
	Enum  []*value.Value
	Const *value.Value

	// String validation
	MinLength *int
	MaxLength *int
	Pattern   string
	Format    string

	// Numeric validation
	Minimum *float64
	Maximum *float64

	// Object validation
	Properties           *orderedmap.OrderedMap[string, *Node]
	AdditionalProperties *Additional
	Required             []string

	// Array validation
	Items       *Node
	MinItems    *int
	MaxItems    *int
	UniqueItems bool

	// Metadata
	Title       string
	Description string

	// Editor flags; nil defers to the session configuration.
	CanInsertItems *bool
	CanMoveItems   *bool
	CanRemoveItems *bool
	CanEditKeys    *bool

	pattern *regexp.Regexp
	source  *value.Value
}

// Additional is the additionalProperties keyword: either a boolean or a
// schema for undeclared members.
type Additional struct {
	Allowed bool
	Schema  *Node
}

// Forbidden reports whether undeclared members are rejected outright.
func (a *Additional) Forbidden() bool { return a != nil && a.Schema == nil && !a.Allowed }

// HasType reports whether name is one of the node's declared types.
func (n *Node) HasType(name string) bool {
	if n == nil {
		return false
	}
	for _, t := range n.Types {
		if t == name {
			return true
		}
	}
	return false
}

// Type returns the first declared type, or "" when the node is untyped.
func (n *Node) Type() string {
	if n == nil || len(n.Types) == 0 {
		return ""
	}
	return n.Types[0]
}

// Property returns the declared schema of an object member.
func (n *Node) Property(key string) (*Node, bool) {
	if n == nil || n.Properties == nil {
		return nil, false
	}
	return n.Properties.Get(key)
}

// PropertyNames returns the declared property names in declaration order.
func (n *Node) PropertyNames() []string {
	if n == nil || n.Properties == nil {
		return nil
	}
	names := make([]string, 0, n.Properties.Len())
	for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// IsRequired reports whether key is listed in the node's required keys.
func (n *Node) IsRequired(key string) bool {
	if n == nil {
		return false
	}
	for _, r := range n.Required {
		if r == key {
			return true
		}
	}
	return false
}

// MatchPattern tests s against the node's pattern. Nodes without a pattern
// match everything.
func (n *Node) MatchPattern(s string) bool {
	if n == nil || n.pattern == nil {
		return true
	}
	return n.pattern.MatchString(s)
}

// Source returns the document the node was built from.
func (n *Node) Source() *value.Value {
	if n == nil {
		return value.NewNull()
	}
	return n.source
}

// MarshalJSON writes the node back as the document it was built from.
func (n *Node) MarshalJSON() ([]byte, error) {
	return n.Source().MarshalJSON()
}

// UnmarshalJSON builds the node from a JSON document.
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

// Parse builds a node from JSON text.
func Parse(data []byte) (*Node, error) {
	doc, err := value.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return FromValue(doc)
}

// MustParse is Parse that panics on error.
func MustParse(text string) *Node {
	n, err := Parse([]byte(text))
	if err != nil {
		panic(err)
	}
	return n
}

// FromValue builds a node from an already decoded document.
func FromValue(doc *value.Value) (*Node, error) {
	return build(doc, path.Path{})
}

func build(doc *value.Value, at path.Path) (*Node, error) {
	n := &Node{source: doc}
	switch doc.Kind() {
	case value.Object:
	case value.Bool:
		return n, nil
	default:
		return nil, fmt.Errorf("schema at %s must be an object, got %s", at.Format(path.Pointer), doc.Kind())
	}

	r := reader{doc: doc, at: at}

	n.Types = r.types("type")
	n.Enum = r.list("enum")
	if c, ok := doc.Get("const"); ok {
		n.Const = c
	}

	n.MinLength = r.count("minLength")
	n.MaxLength = r.count("maxLength")
	n.Pattern = r.str("pattern")
	n.Format = r.str("format")
	n.Minimum = r.number("minimum")
	n.Maximum = r.number("maximum")
	n.MinItems = r.count("minItems")
	n.MaxItems = r.count("maxItems")
	if unique := r.boolean("uniqueItems"); unique != nil {
		n.UniqueItems = *unique
	}
	n.Title = r.str("title")
	n.Description = r.str("description")
	n.Required = r.strings("required")

	n.CanInsertItems = r.flag("ejCanInsertItems", "canInsertItems")
	n.CanMoveItems = r.flag("ejCanMoveItems", "canMoveItems")
	n.CanRemoveItems = r.flag("ejCanRemoveItems", "canRemoveItems")
	n.CanEditKeys = r.flag("ejCanEditKeys", "canEditKeys")

	if r.err != nil {
		return nil, r.err
	}

	if n.Pattern != "" {
		re, err := regexp.Compile(n.Pattern)
		if err != nil {
			return nil, fmt.Errorf("schema at %s: invalid pattern: %w", at.Format(path.Pointer), err)
		}
		n.pattern = re
	}

	if props, ok := doc.Get("properties"); ok {
		if props.Kind() != value.Object {
			return nil, fmt.Errorf("schema at %s: properties must be an object", at.Format(path.Pointer))
		}
		n.Properties = orderedmap.New[string, *Node]()
		for _, m := range props.Members() {
			child, err := build(m.Value, at.Key("properties").Key(m.Key))
			if err != nil {
				return nil, err
			}
			n.Properties.Set(m.Key, child)
		}
	}

	if items, ok := doc.Get("items"); ok && items.Kind() == value.Object {
		child, err := build(items, at.Key("items"))
		if err != nil {
			return nil, err
		}
		n.Items = child
	}

	if add, ok := doc.Get("additionalProperties"); ok {
		switch add.Kind() {
		case value.Bool:
			n.AdditionalProperties = &Additional{Allowed: add.Bool()}
		case value.Object:
			child, err := build(add, at.Key("additionalProperties"))
			if err != nil {
				return nil, err
			}
			n.AdditionalProperties = &Additional{Allowed: true, Schema: child}
		default:
			return nil, fmt.Errorf("schema at %s: additionalProperties must be a boolean or an object", at.Format(path.Pointer))
		}
	}

	return n, nil
}

// reader pulls typed keywords out of a schema object, remembering the first
// type mismatch.
type reader struct {
	doc *value.Value
	at  path.Path
	err error
}

func (r *reader) fail(keyword, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("schema at %s: %s must be %s", r.at.Format(path.Pointer), keyword, want)
	}
}

func (r *reader) str(keyword string) string {
	v, ok := r.doc.Get(keyword)
	if !ok {
		return ""
	}
	if v.Kind() != value.String {
		r.fail(keyword, "a string")
		return ""
	}
	return v.Str()
}

func (r *reader) number(keyword string) *float64 {
	v, ok := r.doc.Get(keyword)
	if !ok {
		return nil
	}
	if v.Kind() != value.Number {
		r.fail(keyword, "a number")
		return nil
	}
	n := v.Number()
	return &n
}

func (r *reader) count(keyword string) *int {
	v, ok := r.doc.Get(keyword)
	if !ok {
		return nil
	}
	if !v.IsInteger() || v.Number() < 0 {
		r.fail(keyword, "a non-negative integer")
		return nil
	}
	c := int(v.Number())
	return &c
}

func (r *reader) boolean(keyword string) *bool {
	v, ok := r.doc.Get(keyword)
	if !ok {
		return nil
	}
	if v.Kind() != value.Bool {
		r.fail(keyword, "a boolean")
		return nil
	}
	b := v.Bool()
	return &b
}

// flag reads an editor flag under its first present spelling.
func (r *reader) flag(spellings ...string) *bool {
	for _, keyword := range spellings {
		if _, ok := r.doc.Get(keyword); ok {
			return r.boolean(keyword)
		}
	}
	return nil
}

func (r *reader) list(keyword string) []*value.Value {
	v, ok := r.doc.Get(keyword)
	if !ok {
		return nil
	}
	if v.Kind() != value.Array {
		r.fail(keyword, "an array")
		return nil
	}
	return append([]*value.Value(nil), v.Items()...)
}

func (r *reader) strings(keyword string) []string {
	items := r.list(keyword)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Kind() != value.String {
			r.fail(keyword, "an array of strings")
			return nil
		}
		out = append(out, item.Str())
	}
	return out
}

func (r *reader) types(keyword string) []string {
	v, ok := r.doc.Get(keyword)
	if !ok {
		return nil
	}
	if v.Kind() == value.String {
		return []string{v.Str()}
	}
	return r.strings(keyword)
}
