package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacquerai/jsonedit/internal/editor"
	"github.com/lacquerai/jsonedit/internal/schema"
	_ "github.com/lacquerai/jsonedit/internal/testhelper"
)

func TestStore_CreateAndList(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Create("beta", Meta{}, `[]`)
	require.NoError(t, err)
	_, err = s.Create("alpha", Meta{Schema: "person", Title: "Alpha"}, `{}`)
	require.NoError(t, err)

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids, "manifest is not a field")

	f, err := s.Field("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", f.ID())
	assert.Equal(t, "alpha.json", f.Name())
	assert.Equal(t, `{}`, f.Value())

	schemaName, ok := f.Attr(editor.AttrSchema)
	assert.True(t, ok)
	assert.Equal(t, "person", schemaName)
	title, ok := f.Attr(editor.AttrTitle)
	assert.True(t, ok)
	assert.Equal(t, "Alpha", title)

	beta, err := s.Field("beta")
	require.NoError(t, err)
	_, ok = beta.Attr(editor.AttrSchema)
	assert.False(t, ok)
}

func TestStore_FieldErrors(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Field("missing")
	assert.ErrorIs(t, err, ErrFieldNotFound)

	for _, id := range []string{"", "..", "a/b", `a\b`, "manifest"} {
		_, err = s.Field(id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
}

func TestStore_Remove(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = s.Create("gone", Meta{Schema: "x"}, `1`)
	require.NoError(t, err)

	require.NoError(t, s.Remove("gone"))
	_, err = s.Field("gone")
	assert.ErrorIs(t, err, ErrFieldNotFound)

	meta, err := s.Meta("gone")
	require.NoError(t, err)
	assert.Equal(t, Meta{}, meta)

	assert.ErrorIs(t, s.Remove("gone"), ErrFieldNotFound)
}

func TestFileField_MissingFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	f := OpenFile(path, Meta{Schema: "person"})

	assert.Equal(t, "doc", f.ID())
	assert.Equal(t, "", f.Value())

	require.NoError(t, f.SetValue(`{"a":1}`))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestFileField_BindSeedsAndSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	f := OpenFile(path, Meta{})
	sch := schema.MustParse(`{"type": "object", "properties": {"debug": {"type": "boolean"}}}`)

	s, err := editor.Bind(f, sch, editor.DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "{\n    \"debug\": true\n}", f.Value())

	require.NoError(t, s.Render())
	result, err := s.Save()
	require.NoError(t, err)
	assert.True(t, result.Saved)
	assert.False(t, result.Diff.Changed())
}

func TestFileField_UnreadableIsNotSeeded(t *testing.T) {
	// A directory in place of the document fails to read even as root.
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.Mkdir(path, 0750))
	f := OpenFile(path, Meta{})

	_, err := f.ReadValue()
	require.Error(t, err)
	assert.Equal(t, "", f.Value())

	sch := schema.MustParse(`{"type": "object", "properties": {"debug": {"type": "boolean"}}}`)
	_, err = editor.Bind(f, sch, editor.DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read doc")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
