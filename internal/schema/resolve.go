package schema

import (
	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/value"
)

// Resolve walks p from root. Index segments descend into items; key segments
// descend into the declared property, falling back to a schema valued
// additionalProperties. A nil result means "no schema" and is not an error:
// open ended members are legal.
func Resolve(root *Node, p path.Path) *Node {
	current := root
	for _, seg := range p.Segments() {
		if current == nil {
			return nil
		}
		current = current.Child(seg)
	}
	return current
}

// Child resolves a single segment below n.
func (n *Node) Child(seg path.Segment) *Node {
	if n == nil {
		return nil
	}
	if seg.IsIndex() && n.Items != nil {
		return n.Items
	}
	// A digit-only object key parses as an index.
	if prop, ok := n.Property(seg.String()); ok {
		return prop
	}
	if n.AdditionalProperties != nil && n.AdditionalProperties.Schema != nil {
		return n.AdditionalProperties.Schema
	}
	return nil
}

// Permissions is the set of structural edits allowed on a container.
type Permissions struct {
	Insert   bool
	Move     bool
	Remove   bool
	EditKeys bool
}

// Permissions resolves the editor flags of n against configured defaults.
// A flag present on the schema wins; an absent flag defers to defaults.
func (n *Node) Permissions(defaults Permissions) Permissions {
	if n == nil {
		return defaults
	}
	out := defaults
	if n.CanInsertItems != nil {
		out.Insert = *n.CanInsertItems
	}
	if n.CanMoveItems != nil {
		out.Move = *n.CanMoveItems
	}
	if n.CanRemoveItems != nil {
		out.Remove = *n.CanRemoveItems
	}
	if n.CanEditKeys != nil {
		out.EditKeys = *n.CanEditKeys
	}
	return out
}

var anyInsertType = []string{"string", "number", "boolean", "array", "object"}

// InsertTypes lists the types offered when adding a member to an object
// governed by n.
func (n *Node) InsertTypes() []string {
	if n != nil && n.AdditionalProperties != nil && n.AdditionalProperties.Schema != nil {
		if types := n.AdditionalProperties.Schema.Types; len(types) > 0 {
			return append([]string(nil), types...)
		}
	}
	return append([]string(nil), anyInsertType...)
}

// ItemTypes lists the types offered when adding an element to an array
// governed by n.
func (n *Node) ItemTypes() []string {
	if n != nil && n.Items != nil && len(n.Items.Types) > 0 {
		return append([]string(nil), n.Items.Types...)
	}
	return append([]string(nil), anyInsertType...)
}

// AllowsInsert reports whether an object governed by n accepts new members.
func (n *Node) AllowsInsert() bool {
	return n == nil || !n.AdditionalProperties.Forbidden()
}

// Full reports whether an array of length size has reached maxItems.
func (n *Node) Full(size int) bool {
	return n != nil && n.MaxItems != nil && size >= *n.MaxItems
}

// EmptyValue is the seed used for a freshly inserted member of type name.
func EmptyValue(name string) *value.Value {
	switch name {
	case "string":
		return value.NewString("")
	case "number", "integer":
		return value.NewNumber(0)
	case "boolean":
		return value.NewBool(false)
	case "array":
		return value.NewArray()
	case "object":
		return value.NewObject()
	}
	return value.NewNull()
}
