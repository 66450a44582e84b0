package editor

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Marker classes and attributes shared by render, extract and dispatch.
const (
	classEditor        = "edit-json"
	classErrors        = "errors"
	classErrorLine     = "error-line"
	classObjectWrapper = "edit-object-wrapper"
	classObject        = "edit-object"
	classArrayWrapper  = "edit-array-wrapper"
	classArray         = "edit-array"
	classLine          = "edit-line"
	classKey           = "edit-key"
	classItem          = "input-wrapper"
	classValue         = "edit-value"
	classNull          = "edit-value-null"
	classNumber        = "edit-value-number-input"
	classDescription   = "description"
	classAdd           = "add-obj-item"
	classAddKey        = "key"
	classAddType       = "value"
	classActions       = "actions"
	classRemove        = "remove-item"
	classUp            = "up-item"
	classDown          = "down-item"
	classToggle        = "toggle"
	classCollapsed     = "collapsed"
	classInvalid       = "invalid"
	classRequired      = "required"
	classFull          = "full"
	classShowSchema    = "show-schema"
	classDisabled      = "disabled"
	classOverlay       = "schema-overlay"
	classCloseOverlay  = "close-schema-overlay"

	attrPath = "data-path"
	attrNode = "data-node"
	attrSkip = "data-skip"
)

// attr is an ordered attribute list for element construction.
type attr [2]string

func element(a atom.Atom, attrs []attr, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for _, kv := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[0], Val: kv[1]})
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func getAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := getAttr(n, key)
	return ok
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func classes(n *html.Node) []string {
	c, _ := getAttr(n, "class")
	return strings.Fields(c)
}

func hasClass(n *html.Node, class string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	setAttr(n, "class", strings.TrimSpace(strings.Join(append(classes(n), class), " ")))
}

func removeClass(n *html.Node, class string) {
	current := classes(n)
	kept := current[:0]
	for _, c := range current {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		removeAttr(n, "class")
		return
	}
	setAttr(n, "class", strings.Join(kept, " "))
}

func toggleClass(n *html.Node, class string, on bool) {
	if on {
		addClass(n, class)
	} else {
		removeClass(n, class)
	}
}

// children returns the element children of n.
func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// childrenWithClass returns the element children of n carrying class.
func childrenWithClass(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	for _, c := range children(n) {
		if hasClass(c, class) {
			out = append(out, c)
		}
	}
	return out
}

// firstChildWithClass is the direct child counterpart of find.
func firstChildWithClass(n *html.Node, class string) *html.Node {
	for _, c := range children(n) {
		if hasClass(c, class) {
			return c
		}
	}
	return nil
}

// find returns the first descendant of n (n excluded) matching pred, in
// document order.
func find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if pred(c) {
			return c
		}
		if found := find(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant of n matching pred, in document order.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if pred(c) {
			out = append(out, c)
		}
		out = append(out, findAll(c, pred)...)
	}
	return out
}

// closest walks from n up to and including stop, returning the first node
// matching pred.
func closest(n, stop *html.Node, pred func(*html.Node) bool) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && pred(cur) {
			return cur
		}
		if cur == stop {
			break
		}
	}
	return nil
}

func withClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return hasClass(n, class) }
}

func isTag(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}

func tagged(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return isTag(n, a) }
}

// contains reports whether n sits inside root.
func contains(root, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == root {
			return true
		}
	}
	return false
}

// textContent concatenates the text below n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// setText replaces the children of n with a single text node.
func setText(n *html.Node, s string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(text(s))
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// renderHTML serializes n and its subtree.
func renderHTML(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
