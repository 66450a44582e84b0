package editor

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/value"
)

// el builds an element and stamps it with a session-unique node id so remote
// events can name their target.
func (s *Session) el(a atom.Atom, attrs []attr, children ...*html.Node) *html.Node {
	s.nextNode++
	n := element(a, attrs, children...)
	setAttr(n, attrNode, "n"+strconv.Itoa(s.nextNode))
	return n
}

func (s *Session) resolve(at path.Path) *schema.Node {
	return schema.Resolve(s.schema, at)
}

func (s *Session) formatPath(at path.Path) string {
	return at.Format(s.config.PathStyle)
}

// buildRoot projects the bound document into a fresh editor subtree.
func (s *Session) buildRoot() *html.Node {
	cls := classEditor
	if s.schema != nil {
		cls += " has-schema"
	}
	if !s.config.InsertItems {
		cls += " no-insert"
	}
	if !s.config.MoveItems {
		cls += " no-move"
	}
	if !s.config.RemoveItems {
		cls += " no-remove"
	}

	root := s.el(atom.Div, []attr{{"id", "__ej_" + s.id}, {"class", cls}})
	root.AppendChild(s.el(atom.Div, []attr{{"class", classErrors}}))
	root.AppendChild(s.renderTop(s.doc))
	if s.schema != nil {
		root.AppendChild(s.schemaLink())
	}
	return root
}

func (s *Session) renderTop(v *value.Value) *html.Node {
	switch v.Kind() {
	case value.Object:
		return s.renderObject(v, path.Path{}, nil)
	case value.Array:
		return s.renderArray(v, path.Path{}, nil)
	default:
		return s.renderItem(v, path.Path{}, nil)
	}
}

// renderValue renders the value part of an object line or array entry.
// entry holds the permissions of the enclosing container, which govern the
// remove and move actions of this value; nil renders no actions.
func (s *Session) renderValue(v *value.Value, at path.Path, entry *schema.Permissions) *html.Node {
	switch v.Kind() {
	case value.Object:
		return s.renderObject(v, at, entry)
	case value.Array:
		return s.renderArray(v, at, entry)
	default:
		return s.renderItem(v, at, entry)
	}
}

func (s *Session) renderObject(v *value.Value, at path.Path, entry *schema.Permissions) *html.Node {
	node := s.resolve(at)
	perms := node.Permissions(s.config.Permissions())

	obj := s.el(atom.Span, []attr{{"class", containerClass(classObject, perms)}, {attrPath, s.formatPath(at)}})
	for _, m := range v.Members() {
		obj.AppendChild(s.renderLine(m.Key, m.Value, at, node, perms))
	}
	if perms.Insert && node.AllowsInsert() {
		obj.AppendChild(s.addMemberControl(node.InsertTypes()))
	}
	if entry != nil {
		obj.AppendChild(s.actions(*entry))
	}

	return s.wrap(classObjectWrapper, obj)
}

func (s *Session) renderArray(v *value.Value, at path.Path, entry *schema.Permissions) *html.Node {
	node := s.resolve(at)
	perms := node.Permissions(s.config.Permissions())

	arr := s.el(atom.Span, []attr{{"class", containerClass(classArray, perms)}, {attrPath, s.formatPath(at)}})
	for i, item := range v.Items() {
		arr.AppendChild(s.renderItem(item, at.Index(i), &perms))
	}
	if perms.Insert {
		add := s.addItemControl(node.ItemTypes())
		setFull(add, s.full(node, v.Len()))
		arr.AppendChild(add)
	}
	if entry != nil {
		arr.AppendChild(s.actions(*entry))
	}

	return s.wrap(classArrayWrapper, arr)
}

func containerClass(base string, perms schema.Permissions) string {
	cls := base
	if !perms.Move {
		cls += " no-move-items"
	}
	if !perms.Remove {
		cls += " no-remove-items"
	}
	return cls
}

func (s *Session) wrap(class string, container *html.Node) *html.Node {
	return s.el(atom.Span, []attr{{"class", class}},
		s.el(atom.A, []attr{{"class", classToggle + " up"}, {attrSkip, "true"}, {"title", s.strings.UI("collapseItemTitle")}, {"href", "#"}},
			text(s.strings.Icon("collapseItemIcon"))),
		s.el(atom.A, []attr{{"class", classToggle + " down"}, {attrSkip, "true"}, {"title", s.strings.UI("expandItemTitle")}, {"href", "#"}},
			text(s.strings.Icon("expandItemIcon"))),
		container,
	)
}

// renderLine renders one object member. parent is the schema of the object
// holding the member.
func (s *Session) renderLine(key string, v *value.Value, objAt path.Path, parent *schema.Node, perms schema.Permissions) *html.Node {
	at := objAt.Key(key)
	member := parent.Child(path.KeySegment(key))
	editable := member == nil && perms.EditKeys

	keySpan := s.el(atom.Span, []attr{
		{"contenteditable", strconv.FormatBool(editable)},
		{"spellcheck", "false"},
		{"class", classKey},
	}, text(key))
	if !ValidKey(key) {
		addClass(keySpan, classInvalid)
	}

	line := s.el(atom.Div, []attr{{"class", classLine}, {attrPath, s.formatPath(at)}},
		keySpan,
		text(": "),
		s.renderValue(v, at, &perms),
	)
	if parent.IsRequired(key) {
		addClass(line, classRequired)
	}
	if member != nil && member.Description != "" {
		line.AppendChild(s.el(atom.Span, []attr{{"class", classDescription}}, text(member.Description)))
	}
	return line
}

// renderItem renders an array element, or a scalar member value. Composite
// values carry their own actions inside their container.
func (s *Session) renderItem(v *value.Value, at path.Path, entry *schema.Permissions) *html.Node {
	item := s.el(atom.Span, []attr{{"class", classItem}, {attrPath, s.formatPath(at)}})
	switch v.Kind() {
	case value.Object:
		item.AppendChild(s.renderObject(v, at, entry))
	case value.Array:
		item.AppendChild(s.renderArray(v, at, entry))
	default:
		item.AppendChild(s.control(v, at))
		if entry != nil {
			item.AppendChild(s.actions(*entry))
		}
	}
	return item
}

func (s *Session) actions(perms schema.Permissions) *html.Node {
	div := s.el(atom.Div, []attr{{"class", classActions}, {attrSkip, "true"}})
	if perms.Remove {
		div.AppendChild(s.el(atom.A, []attr{{"href", "#"}, {"title", s.strings.UI("removeTitle")}, {attrSkip, "true"}, {"class", classRemove}},
			text(s.strings.Icon("removeIcon"))))
	}
	if perms.Move {
		div.AppendChild(s.el(atom.A, []attr{{"href", "#"}, {"class", classUp}, {attrSkip, "true"}, {"title", s.strings.UI("moveUpTitle")}},
			text(s.strings.Icon("moveUpIcon"))))
		div.AppendChild(s.el(atom.A, []attr{{"href", "#"}, {"class", classDown}, {attrSkip, "true"}, {"title", s.strings.UI("moveDownTitle")}},
			text(s.strings.Icon("moveDownIcon"))))
	}
	return div
}

func (s *Session) typeSelect(types []string) *html.Node {
	sel := s.el(atom.Select, []attr{{"class", classAddType}},
		s.el(atom.Option, []attr{{"value", ""}, {"selected", ""}, {"disabled", ""}}, text(s.strings.UI("selectType"))))
	for _, t := range types {
		sel.AppendChild(s.el(atom.Option, []attr{{"value", t}}, text(t)))
	}
	return sel
}

func (s *Session) addButton() *html.Node {
	return s.el(atom.Button, []attr{{"type", "button"}, {"disabled", ""}}, text(s.strings.UI("add")))
}

// addMemberControl is the "add property" affordance: key input, type
// selector and commit button.
func (s *Session) addMemberControl(types []string) *html.Node {
	key := s.el(atom.Input, []attr{{"type", "text"}, {"class", classAddKey}, {"placeholder", s.strings.UI("newKey")}, {"value", ""}})
	return s.el(atom.Div, []attr{{"class", classAdd}, {attrSkip, "true"}},
		s.el(atom.Span, nil, text(`"`), key, text(`": `)),
		s.typeSelect(types),
		s.addButton(),
	)
}

// addItemControl is the "add item" affordance of arrays.
func (s *Session) addItemControl(types []string) *html.Node {
	return s.el(atom.Div, []attr{{"class", classAdd}, {attrSkip, "true"}},
		s.typeSelect(types),
		s.addButton(),
	)
}

// setFull hides an array's add affordance once maxItems is reached.
func setFull(add *html.Node, full bool) {
	toggleClass(add, classFull, full)
	if full {
		setAttr(add, "hidden", "")
		if btn := find(add, tagged(atom.Button)); btn != nil {
			setAttr(btn, "disabled", "")
		}
		return
	}
	removeAttr(add, "hidden")
}

func (s *Session) schemaLink() *html.Node {
	link := s.el(atom.A, []attr{{"class", classShowSchema + " " + classDisabled}, {"title", s.strings.UI("hasSchema")}},
		text(s.strings.Icon("lockIcon")))
	if s.config.VisibleSchema {
		removeClass(link, classDisabled)
		setAttr(link, "title", s.strings.UI("viewSchema"))
	}
	return link
}

func (s *Session) schemaOverlay() *html.Node {
	return s.el(atom.Div, []attr{{"class", classOverlay}},
		s.el(atom.A, []attr{{"class", classCloseOverlay}}, text(s.strings.Icon("closeIcon"))),
		s.el(atom.Div, nil,
			s.el(atom.H3, nil, text(s.strings.UI("viewSchemaTitle"))),
			s.el(atom.Pre, []attr{{"class", "wrap-schema"}}, text(value.Encode(s.schema.Source(), value.SaveIndent))),
		),
	)
}

// renderErrors redraws the error panel.
func (s *Session) renderErrors(lines [][2]string) {
	panel := firstChildWithClass(s.root, classErrors)
	if panel == nil {
		return
	}
	for panel.FirstChild != nil {
		panel.RemoveChild(panel.FirstChild)
	}
	for _, l := range lines {
		panel.AppendChild(s.el(atom.Div, []attr{{"class", classErrorLine}},
			s.el(atom.Span, []attr{{"class", "path"}}, text(l[0])),
			text(" "),
			s.el(atom.Span, []attr{{"class", "msg"}}, text(l[1])),
		))
	}
}

// full reports whether an array governed by node has reached maxItems. A
// bound of 0 counts as absent in legacy mode.
func (s *Session) full(node *schema.Node, size int) bool {
	if s.config.LegacyZeroBounds && node != nil && node.MaxItems != nil && *node.MaxItems == 0 {
		return false
	}
	return node.Full(size)
}
