package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/schema"
)

// Action names what a click did.
type Action string

const (
	ActionNone          Action = ""
	ActionInsert        Action = "insert"
	ActionRemove        Action = "remove"
	ActionMoveUp        Action = "move-up"
	ActionMoveDown      Action = "move-down"
	ActionToggle        Action = "toggle"
	ActionShowSchema    Action = "show-schema"
	ActionCloseSchema   Action = "close-schema"
	ActionEdit          Action = "edit"
	ActionDeclined      Action = "declined"
	ActionRejectedInput Action = "rejected"
)

// node finds the element carrying the given data-node id.
func (s *Session) node(id string) (*html.Node, error) {
	if s.root == nil {
		return nil, ErrNotBound
	}
	if v, _ := getAttr(s.root, attrNode); v == id {
		return s.root, nil
	}
	n := find(s.root, func(n *html.Node) bool {
		v, _ := getAttr(n, attrNode)
		return v == id
	})
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, id)
	}
	return n, nil
}

// Click routes a click on the element with the given node id to the
// interaction it triggers, walking up from the target like event
// delegation. Clicks on nothing interactive are ignored.
func (s *Session) Click(ctx context.Context, target string) (Action, error) {
	s.mu.Lock()
	n, err := s.node(target)
	if err != nil {
		s.mu.Unlock()
		return ActionNone, err
	}

	if remove := closest(n, s.root, withClass(classRemove)); remove != nil {
		entry := entryOf(remove, s.root)
		s.mu.Unlock()
		if entry == nil {
			return ActionNone, nil
		}
		return s.remove(ctx, entry)
	}
	defer s.mu.Unlock()

	switch {
	case closest(n, s.root, tagged(atom.Button)) != nil:
		add := closest(n, s.root, withClass(classAdd))
		if add == nil {
			return ActionNone, nil
		}
		return s.insert(add)

	case closest(n, s.root, withClass(classUp)) != nil:
		return s.move(n, true)

	case closest(n, s.root, withClass(classDown)) != nil:
		return s.move(n, false)

	case closest(n, s.root, withClass(classToggle)) != nil:
		t := closest(n, s.root, withClass(classToggle))
		if t.Parent != nil {
			toggleClass(t.Parent, classCollapsed, !hasClass(t.Parent, classCollapsed))
		}
		return ActionToggle, nil

	case closest(n, s.root, withClass(classCloseOverlay)) != nil:
		for _, o := range childrenWithClass(s.root, classOverlay) {
			detach(o)
		}
		return ActionCloseSchema, nil

	case closest(n, s.root, withClass(classShowSchema)) != nil:
		link := closest(n, s.root, withClass(classShowSchema))
		if hasClass(link, classDisabled) || s.schema == nil {
			return ActionNone, nil
		}
		if firstChildWithClass(s.root, classOverlay) == nil {
			s.root.AppendChild(s.schemaOverlay())
		}
		return ActionShowSchema, nil
	}
	return ActionNone, nil
}

// entryOf returns the line or array entry an action belongs to: the nearest
// edit line directly inside an object or input wrapper directly inside an
// array.
func entryOf(n, root *html.Node) *html.Node {
	return closest(n, root, func(c *html.Node) bool {
		if c.Parent == nil {
			return false
		}
		return (hasClass(c, classLine) && hasClass(c.Parent, classObject)) ||
			(hasClass(c, classItem) && hasClass(c.Parent, classArray))
	})
}

// pathOf recovers the document path of n from the DOM structure, so it
// stays correct after moves and renames.
func pathOf(n, root *html.Node) path.Path {
	var segs []path.Segment
	for cur := n; cur != nil && cur != root; cur = cur.Parent {
		if cur.Parent == nil {
			break
		}
		switch {
		case hasClass(cur, classLine) && hasClass(cur.Parent, classObject):
			if k := firstChildWithClass(cur, classKey); k != nil {
				segs = append(segs, path.KeySegment(strings.TrimSpace(textContent(k))))
			}
		case hasClass(cur, classItem) && hasClass(cur.Parent, classArray):
			segs = append(segs, path.IndexSegment(indexIn(cur, classItem)))
		}
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return path.New(segs...)
}

func indexIn(n *html.Node, class string) int {
	i := 0
	for c := n.Parent.FirstChild; c != nil && c != n; c = c.NextSibling {
		if hasClass(c, class) {
			i++
		}
	}
	return i
}

// insert commits an add affordance: the new member or element is rendered
// through the regular render path and placed right before the affordance.
func (s *Session) insert(add *html.Node) (Action, error) {
	container := add.Parent
	if container == nil || !s.addReady(add) {
		return ActionNone, nil
	}
	at := pathOf(container, s.root)
	node := s.resolve(at)
	perms := node.Permissions(s.config.Permissions())

	typeName := s.addType(add)
	seed := schema.EmptyValue(typeName)

	switch {
	case hasClass(container, classObject):
		keyInput := find(add, withClass(classAddKey))
		key, _ := getAttr(keyInput, "value")
		key = strings.TrimSpace(key)
		if !ValidKey(key) {
			addClass(keyInput, classInvalid)
			return ActionRejectedInput, nil
		}
		line := s.renderLine(key, seed, at, node, perms)
		container.InsertBefore(line, add)
		refreshKeys(container)
		setAttr(keyInput, "value", "")
		removeClass(keyInput, classInvalid)

	case hasClass(container, classArray):
		size := len(childrenWithClass(container, classItem))
		if s.full(node, size) {
			return ActionNone, nil
		}
		item := s.renderItem(seed, at.Index(size), &perms)
		container.InsertBefore(item, add)
		setFull(add, s.full(node, size+1))

	default:
		return ActionNone, nil
	}

	if sel := find(add, withClass(classAddType)); sel != nil {
		resetSelect(sel)
	}
	s.updateAddButton(add)
	s.scheduleLocked()

	log.Debug().
		Str("session", s.id).
		Str("path", at.Format(s.config.PathStyle)).
		Str("type", typeName).
		Msg("Inserted")

	return ActionInsert, nil
}

func (s *Session) addType(add *html.Node) string {
	sel := find(add, withClass(classAddType))
	if sel == nil {
		return ""
	}
	opt := selectedOption(sel)
	if opt == nil || hasAttr(opt, "disabled") {
		return ""
	}
	v, _ := getAttr(opt, "value")
	return v
}

// addReady reports whether the affordance has everything it needs: a type
// and, for objects, a valid key.
func (s *Session) addReady(add *html.Node) bool {
	if s.addType(add) == "" {
		return false
	}
	if keyInput := find(add, withClass(classAddKey)); keyInput != nil {
		key, _ := getAttr(keyInput, "value")
		return ValidKey(strings.TrimSpace(key))
	}
	return !hasClass(add, classFull)
}

func (s *Session) updateAddButton(add *html.Node) {
	btn := find(add, tagged(atom.Button))
	if btn == nil {
		return
	}
	if s.addReady(add) {
		removeAttr(btn, "disabled")
	} else {
		setAttr(btn, "disabled", "")
	}
}

func resetSelect(sel *html.Node) {
	for _, o := range findAll(sel, tagged(atom.Option)) {
		removeAttr(o, "selected")
	}
	if first := find(sel, tagged(atom.Option)); first != nil {
		setAttr(first, "selected", "")
	}
}

// remove asks for confirmation without holding the session lock, then
// detaches entry if it is still part of the tree.
func (s *Session) remove(ctx context.Context, entry *html.Node) (Action, error) {
	s.mu.Lock()
	confirmer := s.confirmer
	s.mu.Unlock()

	ok := false
	if confirmer != nil {
		var err error
		ok, err = confirmer.Confirm(ctx, s.strings.UI("confirmRemoval"))
		if err != nil {
			return ActionNone, fmt.Errorf("confirmation failed: %w", err)
		}
	}
	if !ok {
		return ActionDeclined, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !contains(s.root, entry) {
		return ActionNone, nil
	}
	container := entry.Parent
	detach(entry)

	if hasClass(container, classArray) {
		if add := firstChildWithClass(container, classAdd); add != nil {
			node := s.resolve(pathOf(container, s.root))
			setFull(add, s.full(node, len(childrenWithClass(container, classItem))))
			s.updateAddButton(add)
		}
	}
	if hasClass(container, classObject) {
		refreshKeys(container)
	}
	s.scheduleLocked()

	log.Debug().Str("session", s.id).Msg("Removed")
	return ActionRemove, nil
}

// move swaps the entry holding n with its neighbour. Moving past either end
// of the container is a no-op.
func (s *Session) move(n *html.Node, up bool) (Action, error) {
	entry := entryOf(n, s.root)
	if entry == nil {
		return ActionNone, nil
	}
	class := classItem
	if hasClass(entry, classLine) {
		class = classLine
	}
	container := entry.Parent

	if up {
		prev := sibling(entry, class, true)
		if prev == nil {
			return ActionNone, nil
		}
		container.RemoveChild(entry)
		container.InsertBefore(entry, prev)
		s.scheduleLocked()
		return ActionMoveUp, nil
	}

	next := sibling(entry, class, false)
	if next == nil {
		return ActionNone, nil
	}
	container.RemoveChild(next)
	container.InsertBefore(next, entry)
	s.scheduleLocked()
	return ActionMoveDown, nil
}

func sibling(n *html.Node, class string, before bool) *html.Node {
	step := func(c *html.Node) *html.Node {
		if before {
			return c.PrevSibling
		}
		return c.NextSibling
	}
	for c := step(n); c != nil; c = step(c) {
		if hasClass(c, class) {
			return c
		}
	}
	return nil
}

// Input applies text typed into the element with the given node id.
func (s *Session) Input(target, text string) (Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(target)
	if err != nil {
		return ActionNone, err
	}

	if add := closest(n, s.root, withClass(classAdd)); add != nil {
		switch {
		case hasClass(n, classAddKey):
			setAttr(n, "value", text)
			toggleClass(n, classInvalid, strings.TrimSpace(text) != "" && !ValidKey(strings.TrimSpace(text)))
		case hasClass(n, classAddType):
			if text == "" {
				resetSelect(n)
			} else if !selectOption(n, text) {
				return ActionRejectedInput, nil
			}
		default:
			return ActionNone, nil
		}
		s.updateAddButton(add)
		return ActionEdit, nil
	}

	switch {
	case hasClass(n, classKey):
		if hasAttrValue(n, "contenteditable", "false") {
			return ActionRejectedInput, nil
		}
		setText(n, text)
		refreshKeys(n.Parent.Parent)

	case isTag(n, atom.Select) && hasClass(n, classValue):
		if hasAttr(n, "disabled") || !selectOption(n, text) {
			return ActionRejectedInput, nil
		}

	case isTag(n, atom.Input) && hasClass(n, classNumber):
		setAttr(n, "value", text)

	case hasClass(n, classValue):
		setText(n, text)
		if pair := n.Parent; bidirectionalInput(pair) != "" {
			if in := find(pair, tagged(atom.Input)); in != nil {
				setAttr(in, "value", text)
			}
		}

	case isTag(n, atom.Input) && bidirectionalInput(n.Parent) != "":
		setAttr(n, "value", text)
		if span := firstChildWithClass(n.Parent, classValue); span != nil {
			setText(span, text)
		}

	default:
		return ActionNone, nil
	}

	s.scheduleLocked()
	return ActionEdit, nil
}

func hasAttrValue(n *html.Node, key, want string) bool {
	v, ok := getAttr(n, key)
	return ok && v == want
}

// scheduleLocked arms live validation while the popup is open.
func (s *Session) scheduleLocked() {
	if s.state == Opened && s.schema != nil {
		s.debounce.Schedule()
	}
}

// Pending reports whether a live validation is scheduled.
func (s *Session) Pending() bool {
	return s.debounce.Pending()
}

