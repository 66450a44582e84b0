package editor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lacquerai/jsonedit/internal/value"
)

// content returns the top-level value container of an editor root.
func content(root *html.Node) *html.Node {
	for _, c := range children(root) {
		if hasClass(c, classObjectWrapper) || hasClass(c, classArrayWrapper) || hasClass(c, classItem) {
			return c
		}
	}
	return nil
}

// extractTree reads the document back out of an editor root. The DOM is
// authoritative: whatever the user arranged is what comes out.
func extractTree(root *html.Node) *value.Value {
	top := content(root)
	if top == nil {
		return value.NewNull()
	}
	return extractValue(top)
}

func extractValue(n *html.Node) *value.Value {
	switch {
	case hasClass(n, classObjectWrapper):
		return extractObject(firstChildWithClass(n, classObject))
	case hasClass(n, classArrayWrapper):
		return extractArray(firstChildWithClass(n, classArray))
	case hasClass(n, classItem):
		inner := valueChild(n, nil)
		if inner == nil {
			return value.NewNull()
		}
		return extractValue(inner)
	}
	return extractLeaf(n)
}

func extractObject(obj *html.Node) *value.Value {
	out := value.NewObject()
	if obj == nil {
		return out
	}
	for _, line := range childrenWithClass(obj, classLine) {
		keySpan := firstChildWithClass(line, classKey)
		if keySpan == nil {
			continue
		}
		key := textContent(keySpan)
		if strings.TrimSpace(key) == "" {
			continue
		}
		inner := valueChild(line, keySpan)
		if inner == nil {
			continue
		}
		out.Set(key, extractValue(inner))
	}
	return out
}

func extractArray(arr *html.Node) *value.Value {
	out := value.NewArray()
	if arr == nil {
		return out
	}
	for _, item := range childrenWithClass(arr, classItem) {
		out.Append(extractValue(item))
	}
	return out
}

// valueChild returns the first element child of n that holds a value,
// skipping the key span, affordances and descriptions.
func valueChild(n, keySpan *html.Node) *html.Node {
	for _, c := range children(n) {
		if c == keySpan || hasAttr(c, attrSkip) || hasClass(c, classDescription) {
			continue
		}
		return c
	}
	return nil
}

func extractLeaf(n *html.Node) *value.Value {
	switch {
	case hasClass(n, classNull):
		return value.NewNull()

	case isTag(n, atom.Input) && hasClass(n, classNumber):
		v, _ := getAttr(n, "value")
		return parseNumber(v)

	case isTag(n, atom.Select):
		opt := selectedOption(n)
		if opt == nil {
			return value.NewNull()
		}
		raw, _ := getAttr(opt, "value")
		if v, err := value.ParseString(raw); err == nil {
			return v
		}
		return value.NewString(raw)

	case bidirectionalInput(n) != "":
		if bidirectionalInput(n) != inputColor {
			if in := find(n, tagged(atom.Input)); in != nil {
				v, _ := getAttr(in, "value")
				return value.NewString(v)
			}
		}
		if span := firstChildWithClass(n, classValue); span != nil {
			return value.NewString(strings.TrimSpace(textContent(span)))
		}

	case hasClass(n, classValue):
		return value.NewString(textContent(n))
	}
	return value.NewNull()
}
