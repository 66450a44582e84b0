package schema

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lacquerai/jsonedit/internal/value"
)

// ParseYAML builds a node from YAML text. Mapping order is kept, so declared
// properties render in the order the file lists them.
func ParseYAML(data []byte) (*Node, error) {
	doc, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return FromValue(doc)
}

// DecodeYAML decodes a YAML document into a JSON value.
func DecodeYAML(data []byte) (*value.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if root.Kind == 0 {
		return nil, fmt.Errorf("failed to parse YAML: empty document")
	}
	return fromYAML(&root)
}

func fromYAML(n *yaml.Node) (*value.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.NewNull(), nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.MappingNode:
		obj := value.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			member, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(key.Value, member)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := value.NewArray()
		for _, child := range n.Content {
			item, err := fromYAML(child)
			if err != nil {
				return nil, err
			}
			arr.Append(item)
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalarFromYAML(n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func scalarFromYAML(n *yaml.Node) (*value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.NewNull(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value.NewBool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value.NewNumber(f), nil
	}
	return value.NewString(n.Value), nil
}

// EncodeYAML converts a JSON value into a YAML node tree, keeping member
// order.
func EncodeYAML(v *value.Value) *yaml.Node {
	switch v.Kind() {
	case value.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				EncodeYAML(m.Value))
		}
		return n
	case value.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			n.Content = append(n.Content, EncodeYAML(item))
		}
		return n
	case value.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool())}
	case value.Number:
		tag := "!!float"
		if v.IsInteger() {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value.FormatNumber(v.Number())}
	case value.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str()}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
