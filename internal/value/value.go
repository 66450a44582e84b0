// Package value is the in-memory model of a JSON document.
//
// A Value is a tagged variant over null, boolean, number, string, array and
// object. Objects keep their keys in insertion order, which matters to the
// editor: the order the user arranges is the order that gets saved.
package value

import (
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// String returns the JSON type name of the kind.
func (k Kind) String() string {
	switch k {
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "null"
	}
}

// ParseKind maps a JSON type name to a Kind. "integer" maps to Number.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "null":
		return Null, true
	case "boolean":
		return Bool, true
	case "number", "integer":
		return Number, true
	case "string":
		return String, true
	case "array":
		return Array, true
	case "object":
		return Object, true
	}
	return Null, false
}

// Value is one JSON value. The zero Value is null.
type Value struct {
	kind  Kind
	b     bool
	n     float64
	s     string
	items []*Value
	obj   *orderedmap.OrderedMap[string, *Value]
}

// NewNull returns a null value.
func NewNull() *Value { return &Value{kind: Null} }

// NewBool returns a boolean value.
func NewBool(b bool) *Value { return &Value{kind: Bool, b: b} }

// NewNumber returns a number value.
func NewNumber(n float64) *Value { return &Value{kind: Number, n: n} }

// NewString returns a string value.
func NewString(s string) *Value { return &Value{kind: String, s: s} }

// NewArray returns an array holding items.
func NewArray(items ...*Value) *Value {
	return &Value{kind: Array, items: append(make([]*Value, 0, len(items)), items...)}
}

// NewObject returns an empty object.
func NewObject() *Value {
	return &Value{kind: Object, obj: orderedmap.New[string, *Value]()}
}

// Member is a key/value pair used to build objects in order.
type Member struct {
	Key   string
	Value *Value
}

// NewObjectOf builds an object from members, keeping their order.
func NewObjectOf(members ...Member) *Value {
	v := NewObject()
	for _, m := range members {
		v.Set(m.Key, m.Value)
	}
	return v
}

// Kind returns the variant of v. A nil Value is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

// IsNull reports whether v is null.
func (v *Value) IsNull() bool { return v.Kind() == Null }

// Bool returns the boolean payload.
func (v *Value) Bool() bool { return v != nil && v.b }

// Number returns the numeric payload.
func (v *Value) Number() float64 {
	if v == nil {
		return 0
	}
	return v.n
}

// IsInteger reports whether v is a number without a fractional part.
func (v *Value) IsInteger() bool {
	return v.Kind() == Number && !math.IsInf(v.n, 0) && v.n == math.Trunc(v.n)
}

// Str returns the string payload.
func (v *Value) Str() string {
	if v == nil {
		return ""
	}
	return v.s
}

// Items returns the elements of an array.
func (v *Value) Items() []*Value {
	if v.Kind() != Array {
		return nil
	}
	return v.items
}

// Append adds elements to an array.
func (v *Value) Append(items ...*Value) {
	if v.Kind() != Array {
		return
	}
	v.items = append(v.items, items...)
}

// Len returns the number of array elements or object members.
func (v *Value) Len() int {
	switch v.Kind() {
	case Array:
		return len(v.items)
	case Object:
		return v.obj.Len()
	default:
		return 0
	}
}

// Get returns the member stored under key.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != Object {
		return nil, false
	}
	return v.obj.Get(key)
}

// Has reports whether an object has the key.
func (v *Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Set stores a member. An existing key keeps its position.
func (v *Value) Set(key string, member *Value) {
	if v.Kind() != Object {
		return
	}
	if member == nil {
		member = NewNull()
	}
	v.obj.Set(key, member)
}

// Delete removes a member.
func (v *Value) Delete(key string) {
	if v.Kind() != Object {
		return
	}
	v.obj.Delete(key)
}

// Keys returns object keys in order.
func (v *Value) Keys() []string {
	if v.Kind() != Object {
		return nil
	}
	keys := make([]string, 0, v.obj.Len())
	for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Members returns object members in order.
func (v *Value) Members() []Member {
	if v.Kind() != Object {
		return nil
	}
	members := make([]Member, 0, v.obj.Len())
	for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
		members = append(members, Member{Key: pair.Key, Value: pair.Value})
	}
	return members
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	switch v.Kind() {
	case Array:
		items := make([]*Value, len(v.items))
		for i, item := range v.items {
			items[i] = item.Clone()
		}
		return &Value{kind: Array, items: items}
	case Object:
		out := NewObject()
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			out.obj.Set(pair.Key, pair.Value.Clone())
		}
		return out
	case Null:
		return NewNull()
	default:
		c := *v
		return &c
	}
}
