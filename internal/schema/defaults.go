package schema

import "github.com/lacquerai/jsonedit/internal/value"

// Placeholder seeds strings that must not be empty.
const Placeholder = "placeholder"

// DefaultValue synthesizes a document that satisfies n closely enough to
// start editing from. Objects get every declared property, required or not.
// Arrays get one synthesized item unless that item comes out null.
func DefaultValue(n *Node) *value.Value {
	if n == nil {
		return value.NewNull()
	}
	switch n.Type() {
	case "object":
		obj := value.NewObject()
		for _, name := range n.PropertyNames() {
			prop, _ := n.Property(name)
			obj.Set(name, DefaultValue(prop))
		}
		return obj
	case "array":
		item := DefaultValue(n.Items)
		if item.IsNull() {
			return value.NewArray()
		}
		return value.NewArray(item)
	}

	if len(n.Enum) > 0 {
		return n.Enum[0].Clone()
	}
	switch n.Type() {
	case "string":
		if n.MinLength != nil && *n.MinLength > 0 {
			return value.NewString(Placeholder)
		}
		return value.NewString("")
	case "number", "integer":
		return value.NewNumber(0)
	case "boolean":
		return value.NewBool(true)
	}
	return value.NewNull()
}
