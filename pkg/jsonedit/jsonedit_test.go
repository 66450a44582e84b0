package jsonedit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/lacquerai/jsonedit/internal/editor"
	_ "github.com/lacquerai/jsonedit/internal/testhelper"
)

var personSchema = []byte(`{
	"type": "object",
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"age": {"type": "integer", "minimum": 0}
	},
	"required": ["name"]
}`)

func TestValidate(t *testing.T) {
	violations, err := Validate([]byte(`{"name": "Alice", "age": 30}`), personSchema)
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = Validate([]byte(`{"age": -1}`), personSchema)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Violation{
		{Path: "root.name", Kind: "required", Message: "required field missing"},
		{Path: "root.age", Kind: "minimum", Message: "must be greater than or equal to 0"},
	}, violations)
}

func TestValidate_PathStyle(t *testing.T) {
	violations, err := Validate([]byte(`{"name": "A", "age": -1}`), personSchema, WithPathStyle("pointer"))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "#/age", violations[0].Path)

	tags := []byte(`{"properties": {"tags": {"type": "array", "items": {"type": "string"}}}}`)
	violations, err = Validate([]byte(`{"tags": [1]}`), tags, WithPathStyle("js"))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "root.tags[0]", violations[0].Path)
}

func TestValidate_LegacyZeroBounds(t *testing.T) {
	violations, err := Validate([]byte(`{"name": "A", "age": -1}`), personSchema, WithLegacyZeroBounds(true))
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestValidate_Errors(t *testing.T) {
	_, err := Validate([]byte(`{"name": `), personSchema)
	assert.ErrorIs(t, err, editor.ErrInvalidJSON)

	_, err = Validate([]byte(`{}`), []byte(`{"type": `))
	assert.Error(t, err)

	_, err = Validate([]byte(`{}`), personSchema, WithStringsFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	out, err := Format([]byte(`{"b":[1,2],"a":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"b\": [\n        1,\n        2\n    ],\n    \"a\": \"x\"\n}", out)

	_, err = Format([]byte(`[1,`))
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	out, err := Seed(personSchema)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"name\": \"placeholder\",\n    \"age\": 0\n}", out)
}

func TestEditFile_SeedsAndSaves(t *testing.T) {
	file := filepath.Join(t.TempDir(), "person.json")

	session, err := EditFile(file, personSchema)
	require.NoError(t, err)
	defer session.Close()

	markup, err := session.HTML()
	require.NoError(t, err)
	assert.Contains(t, markup, "placeholder")

	result, err := session.Save()
	require.NoError(t, err)
	assert.True(t, result.Saved)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"name\": \"placeholder\",\n    \"age\": 0\n}", string(data))
}

func TestEditFile_BlockInvalidSave(t *testing.T) {
	file := filepath.Join(t.TempDir(), "person.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"age": -1}`), 0644))

	session, err := EditFile(file, personSchema, WithBlockInvalidSave(true))
	require.NoError(t, err)
	defer session.Close()

	result, err := session.Save()
	require.NoError(t, err)
	assert.False(t, result.Saved)
	assert.Len(t, result.Errors, 2)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, `{"age": -1}`, string(data))
}

func TestEditFile_InvalidJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"a": `), 0644))

	_, err := EditFile(file, nil)
	assert.ErrorIs(t, err, editor.ErrInvalidJSON)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, `{"a": `, string(data))
}

func TestListenerFunc(t *testing.T) {
	var got ValidationEvent
	var l Listener = ListenerFunc(func(ev ValidationEvent) { got = ev })
	l.Validated(ValidationEvent{SessionID: "s", Violations: []Violation{{Path: "root"}}})
	assert.Equal(t, "s", got.SessionID)
	assert.Len(t, got.Violations, 1)
}

func waitEvent(t *testing.T, events <-chan ValidationEvent) ValidationEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("listener was not called")
		return ValidationEvent{}
	}
}

// valueNode returns the data-node id of the first editable value in markup.
func valueNode(t *testing.T, markup string) string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)

	var found string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode {
			var classes, id string
			for _, a := range n.Attr {
				switch a.Key {
				case "class":
					classes = a.Val
				case "data-node":
					id = a.Val
				}
			}
			for _, c := range strings.Fields(classes) {
				if c == "edit-value" && id != "" {
					found = id
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotEmpty(t, found, "no editable value")
	return found
}

func TestEditFile_ValidationListener(t *testing.T) {
	file := filepath.Join(t.TempDir(), "person.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"name": "Alice", "age": 30}`), 0644))

	events := make(chan ValidationEvent, 8)
	session, err := EditFile(file, personSchema,
		WithDebounce(20*time.Millisecond),
		WithValidationListener(ListenerFunc(func(ev ValidationEvent) { events <- ev })),
	)
	require.NoError(t, err)
	defer session.Close()
	assert.Equal(t, editor.Opened, session.State())

	opened := waitEvent(t, events)
	assert.Equal(t, "person", opened.SessionID)
	assert.Empty(t, opened.Violations)

	markup, err := session.HTML()
	require.NoError(t, err)
	action, err := session.Input(valueNode(t, markup), "")
	require.NoError(t, err)
	assert.Equal(t, editor.ActionEdit, action)

	edited := waitEvent(t, events)
	require.Len(t, edited.Violations, 1)
	assert.Equal(t, "root.name", edited.Violations[0].Path)
	assert.Equal(t, "minLength", edited.Violations[0].Kind)

	// Saving closes the session and stops live validation
	result, err := session.Save()
	require.NoError(t, err)
	assert.True(t, result.Saved)
	_, err = session.Input(valueNode(t, markup), "Bob")
	require.NoError(t, err)
	assert.False(t, session.Pending())
}
