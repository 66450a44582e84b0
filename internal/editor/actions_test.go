package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lacquerai/jsonedit/internal/schema"
)

func always(answer bool) Confirmer {
	return ConfirmFunc(func(ctx context.Context, message string) (bool, error) {
		return answer, nil
	})
}

func entries(s *Session) []*html.Node {
	return childrenWithClass(find(s.root, withClass(classArray)), classItem)
}

func click(t *testing.T, s *Session, n *html.Node) Action {
	t.Helper()
	require.NotNil(t, n)
	action, err := s.Click(context.Background(), nodeID(n))
	require.NoError(t, err)
	return action
}

func input(t *testing.T, s *Session, n *html.Node, text string) Action {
	t.Helper()
	require.NotNil(t, n)
	action, err := s.Input(nodeID(n), text)
	require.NoError(t, err)
	return action
}

func TestMove_Boundaries(t *testing.T) {
	s, _ := bind(t, `[1,2,3]`, nil)
	items := entries(s)
	require.Len(t, items, 3)

	assert.Equal(t, ActionNone, click(t, s, find(items[0], withClass(classUp))))
	assert.Equal(t, `[1,2,3]`, extracted(t, s))

	assert.Equal(t, ActionNone, click(t, s, find(items[2], withClass(classDown))))
	assert.Equal(t, `[1,2,3]`, extracted(t, s))

	assert.Equal(t, ActionMoveUp, click(t, s, find(items[1], withClass(classUp))))
	assert.Equal(t, `[2,1,3]`, extracted(t, s))

	assert.Equal(t, ActionMoveDown, click(t, s, find(items[1], withClass(classDown))))
	assert.Equal(t, `[1,2,3]`, extracted(t, s))
}

func TestMove_ObjectLines(t *testing.T) {
	s, _ := bind(t, `{"a":1,"b":{"c":true}}`, nil)
	lines := childrenWithClass(find(s.root, withClass(classObject)), classLine)
	require.Len(t, lines, 2)

	// the composite member carries its actions inside its own container
	actions := firstChildWithClass(find(lines[1], withClass(classObject)), classActions)
	up := find(actions, withClass(classUp))
	assert.Equal(t, ActionMoveUp, click(t, s, up))
	assert.Equal(t, `{"b":{"c":true},"a":1}`, extracted(t, s))
}

func TestInsertThenRemove(t *testing.T) {
	s, _ := bind(t, `{"list":[1,"two"]}`, nil, WithConfirmer(always(true)))

	add := find(find(s.root, withClass(classArray)), withClass(classAdd))
	btn := find(add, tagged(atom.Button))
	assert.True(t, hasAttr(btn, "disabled"), "no type selected yet")
	assert.Equal(t, ActionNone, click(t, s, btn))

	assert.Equal(t, ActionEdit, input(t, s, find(add, withClass(classAddType)), "number"))
	assert.False(t, hasAttr(btn, "disabled"))

	assert.Equal(t, ActionInsert, click(t, s, btn))
	assert.Equal(t, `{"list":[1,"two",0]}`, extracted(t, s))
	assert.True(t, hasAttr(btn, "disabled"), "type selector resets after insert")

	items := entries(s)
	require.Len(t, items, 3)
	assert.Equal(t, ActionRemove, click(t, s, find(items[2], withClass(classRemove))))
	assert.Equal(t, `{"list":[1,"two"]}`, extracted(t, s))
}

func TestInsert_EachType(t *testing.T) {
	s, _ := bind(t, `[]`, nil)
	add := find(s.root, withClass(classAdd))
	sel := find(add, withClass(classAddType))
	btn := find(add, tagged(atom.Button))

	for _, typ := range []string{"string", "number", "boolean", "array", "object"} {
		input(t, s, sel, typ)
		require.Equal(t, ActionInsert, click(t, s, btn), typ)
	}
	assert.Equal(t, `["",0,false,[],{}]`, extracted(t, s))

	// inserted composites are wired like rendered ones
	inner := find(entries(s)[4], withClass(classAdd))
	require.NotNil(t, inner)
	input(t, s, find(inner, withClass(classAddKey)), "k")
	input(t, s, find(inner, withClass(classAddType)), "boolean")
	assert.Equal(t, ActionInsert, click(t, s, find(inner, tagged(atom.Button))))
	assert.Equal(t, `["",0,false,[],{"k":false}]`, extracted(t, s))
}

func TestInsert_ResolvesSchemaOfContainer(t *testing.T) {
	sch := schema.MustParse(`{
		"type": "object",
		"properties": {
			"ports": {"type": "array", "maxItems": 2, "items": {"type": "number"}}
		}
	}`)
	s, _ := bind(t, `{"ports":[80]}`, sch, WithConfirmer(always(true)))

	add := find(find(s.root, withClass(classArray)), withClass(classAdd))
	assert.False(t, hasClass(add, classFull))

	input(t, s, find(add, withClass(classAddType)), "number")
	assert.Equal(t, ActionInsert, click(t, s, find(add, tagged(atom.Button))))
	assert.Equal(t, `{"ports":[80,0]}`, extracted(t, s))
	assert.True(t, hasClass(add, classFull))
	assert.True(t, hasAttr(add, "hidden"))

	input(t, s, find(add, withClass(classAddType)), "number")
	assert.Equal(t, ActionNone, click(t, s, find(add, tagged(atom.Button))), "maxItems reached")

	click(t, s, find(entries(s)[1], withClass(classRemove)))
	assert.False(t, hasClass(add, classFull))
	assert.False(t, hasAttr(add, "hidden"))
}

func TestInsert_KeyValidation(t *testing.T) {
	s, _ := bind(t, `{"a":1}`, nil)
	obj := find(s.root, withClass(classObject))
	add := firstChildWithClass(obj, classAdd)
	key := find(add, withClass(classAddKey))
	sel := find(add, withClass(classAddType))
	btn := find(add, tagged(atom.Button))

	input(t, s, sel, "string")
	for _, bad := range []string{"   ", "__proto__", "constructor", `say "hi"`, `back\slash`, "tab\there"} {
		input(t, s, key, bad)
		assert.True(t, hasAttr(btn, "disabled"), "key %q", bad)
		assert.Equal(t, ActionNone, click(t, s, btn), "key %q", bad)
	}
	assert.True(t, hasClass(key, classInvalid))

	input(t, s, key, "b")
	assert.False(t, hasClass(key, classInvalid))
	assert.Equal(t, ActionInsert, click(t, s, btn))
	assert.Equal(t, `{"a":1,"b":""}`, extracted(t, s))

	v, _ := getAttr(key, "value")
	assert.Empty(t, v, "key input clears after insert")
}

func TestInsert_DuplicateKeyMarksBoth(t *testing.T) {
	s, _ := bind(t, `{"a":1}`, nil)
	obj := find(s.root, withClass(classObject))
	add := firstChildWithClass(obj, classAdd)

	input(t, s, find(add, withClass(classAddKey)), "a")
	input(t, s, find(add, withClass(classAddType)), "number")
	assert.Equal(t, ActionInsert, click(t, s, find(add, tagged(atom.Button))))

	keys := childrenWithClass(obj, classLine)
	require.Len(t, keys, 2)
	for _, line := range keys {
		k := firstChildWithClass(line, classKey)
		assert.Equal(t, "a", textContent(k), "never auto-renamed")
		assert.True(t, hasClass(k, classInvalid))
	}
}

func TestInput_KeyRename(t *testing.T) {
	s, _ := bind(t, `{"a":1,"b":2}`, nil)
	keys := findAll(s.root, withClass(classKey))
	require.Len(t, keys, 2)

	input(t, s, keys[1], "a")
	assert.True(t, hasClass(keys[0], classInvalid))
	assert.True(t, hasClass(keys[1], classInvalid))

	input(t, s, keys[1], "c")
	assert.False(t, hasClass(keys[0], classInvalid))
	assert.False(t, hasClass(keys[1], classInvalid))
	assert.Equal(t, `{"a":1,"c":2}`, extracted(t, s))
}

func TestInput_DeclaredKeyIsLocked(t *testing.T) {
	sch := schema.MustParse(`{"properties": {"a": {"type": "number"}}}`)
	s, _ := bind(t, `{"a":1}`, sch)

	assert.Equal(t, ActionRejectedInput, input(t, s, find(s.root, withClass(classKey)), "b"))
	assert.Equal(t, `{"a":1}`, extracted(t, s))
}

func TestInput_Leaves(t *testing.T) {
	s, _ := bind(t, `{"n":1,"b":true,"d":"2024-01-05","c":"#abcdef","s":"x"}`, nil)

	num := find(s.root, withClass(classNumber))
	input(t, s, num, "2.5")
	assert.Contains(t, extracted(t, s), `"n":2.5`)
	input(t, s, num, "")
	assert.Contains(t, extracted(t, s), `"n":0`)
	input(t, s, num, "abc")
	assert.Contains(t, extracted(t, s), `"n":null`)

	sel := find(s.root, tagged(atom.Select))
	input(t, s, sel, "false")
	assert.Contains(t, extracted(t, s), `"b":false`)
	assert.Equal(t, ActionRejectedInput, input(t, s, sel, "maybe"))

	date := find(s.root, func(n *html.Node) bool { return isTag(n, atom.Input) && hasAttrValue(n, "type", "date") })
	input(t, s, date, "2024-02-01")
	span := firstChildWithClass(date.Parent, classValue)
	assert.Equal(t, "2024-02-01", textContent(span), "native input mirrors into the text span")
	assert.Contains(t, extracted(t, s), `"d":"2024-02-01"`)

	color := find(s.root, withClass("edit-value-color"))
	input(t, s, firstChildWithClass(color, classValue), "#000fff")
	in := find(color, tagged(atom.Input))
	v, _ := getAttr(in, "value")
	assert.Equal(t, "#000fff", v, "text span mirrors into the native input")

	var plain *html.Node
	for _, n := range findAll(s.root, withClass(classValue)) {
		if textContent(n) == "x" {
			plain = n
		}
	}
	input(t, s, plain, "y")

	assert.Equal(t, `{"n":null,"b":false,"d":"2024-02-01","c":"#000fff","s":"y"}`, extracted(t, s))
}

func TestInput_DisabledEnumSelect(t *testing.T) {
	sch := schema.MustParse(`{"properties": {"m": {"enum": ["a", "b"], "canEditKeys": false}}}`)
	s, _ := bind(t, `{"m":"a"}`, sch)

	sel := find(s.root, tagged(atom.Select))
	assert.True(t, hasAttr(sel, "disabled"))
	assert.Equal(t, ActionRejectedInput, input(t, s, sel, `"b"`))
	assert.Equal(t, `{"m":"a"}`, extracted(t, s))
}

func TestRemove_Declined(t *testing.T) {
	asked := 0
	confirmer := ConfirmFunc(func(ctx context.Context, message string) (bool, error) {
		asked++
		assert.Equal(t, "Remove this item?", message)
		return false, nil
	})
	s, _ := bind(t, `{"a":1,"b":2}`, nil, WithConfirmer(confirmer))

	assert.Equal(t, ActionDeclined, click(t, s, find(s.root, withClass(classRemove))))
	assert.Equal(t, 1, asked)
	assert.Equal(t, `{"a":1,"b":2}`, extracted(t, s))
}

func TestRemove_NoConfirmerDeclines(t *testing.T) {
	s, _ := bind(t, `[1]`, nil)
	assert.Equal(t, ActionDeclined, click(t, s, find(s.root, withClass(classRemove))))
	assert.Equal(t, `[1]`, extracted(t, s))
}

func TestRemove_ConfirmRunsWithoutLock(t *testing.T) {
	var s *Session
	confirmer := ConfirmFunc(func(ctx context.Context, message string) (bool, error) {
		// the session must stay usable while the prompt is open
		_, err := s.HTML()
		return err == nil, err
	})
	s, _ = bind(t, `{"a":{"b":1},"c":2}`, nil, WithConfirmer(confirmer))

	line := childrenWithClass(find(s.root, withClass(classObject)), classLine)[0]
	remove := firstChildWithClass(find(line, withClass(classObject)), classActions)
	assert.Equal(t, ActionRemove, click(t, s, find(remove, withClass(classRemove))))
	assert.Equal(t, `{"c":2}`, extracted(t, s))
}

func TestRemove_ConfirmError(t *testing.T) {
	boom := errors.New("connection lost")
	s, _ := bind(t, `[1]`, nil, WithConfirmer(ConfirmFunc(func(ctx context.Context, message string) (bool, error) {
		return false, boom
	})))

	_, err := s.Click(context.Background(), nodeID(find(s.root, withClass(classRemove))))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, `[1]`, extracted(t, s))
}

func TestToggle(t *testing.T) {
	s, _ := bind(t, `{"a":[1]}`, nil)
	toggle := find(s.root, withClass(classToggle))
	wrapper := toggle.Parent

	assert.Equal(t, ActionToggle, click(t, s, toggle))
	assert.True(t, hasClass(wrapper, classCollapsed))
	assert.Equal(t, ActionToggle, click(t, s, toggle))
	assert.False(t, hasClass(wrapper, classCollapsed))
	assert.Equal(t, `{"a":[1]}`, extracted(t, s))
}

func TestSchemaOverlay(t *testing.T) {
	sch := schema.MustParse(`{"type": "object", "title": "Settings"}`)
	s, _ := bind(t, `{}`, sch)

	assert.Equal(t, ActionShowSchema, click(t, s, find(s.root, withClass(classShowSchema))))
	overlay := firstChildWithClass(s.root, classOverlay)
	require.NotNil(t, overlay)
	assert.Contains(t, textContent(find(overlay, tagged(atom.Pre))), `"title": "Settings"`)

	assert.Equal(t, ActionCloseSchema, click(t, s, find(overlay, withClass(classCloseOverlay))))
	assert.Nil(t, firstChildWithClass(s.root, classOverlay))

	cfg := DefaultConfig()
	cfg.VisibleSchema = false
	locked, _ := bindWith(t, `{}`, sch, cfg)
	assert.Equal(t, ActionNone, click(t, locked, find(locked.root, withClass(classShowSchema))))
	assert.Nil(t, firstChildWithClass(locked.root, classOverlay))
}

func TestClick_UnknownTarget(t *testing.T) {
	s, _ := bind(t, `{}`, nil)
	_, err := s.Click(context.Background(), "n9999")
	assert.ErrorIs(t, err, ErrTargetNotFound)

	_, err = s.Input("nope", "x")
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestClick_InertTarget(t *testing.T) {
	s, _ := bind(t, `{"a":"x"}`, nil)
	assert.Equal(t, ActionNone, click(t, s, find(s.root, withClass(classValue))))
}

func TestPathOf_FollowsMoves(t *testing.T) {
	s, _ := bind(t, `{"a":[{"x":1},{"y":2}]}`, nil)
	items := entries(s)
	require.Len(t, items, 2)

	assert.Equal(t, "root.a.1", pathOf(items[1], s.root).String())
	click(t, s, find(items[1], withClass(classUp)))
	assert.Equal(t, "root.a.0", pathOf(items[1], s.root).String())
}
