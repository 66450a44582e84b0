package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Get(t *testing.T) {
	table := New()

	assert.Equal(t, "Edit JSON", table.UI("popupTitle"))
	assert.Equal(t, "Invalid JSON (unexpected EOF)", table.Get(Error, "invalidJson", Params{"error": "unexpected EOF"}))
	assert.Equal(t, "must have at least 3 characters", table.Get(Validation, "minLength", Params{"minLength": "3"}))
}

func TestTable_Fallbacks(t *testing.T) {
	table := New()

	assert.Equal(t, "Add", table.Get("no-such-category", "add", nil))
	assert.Equal(t, "missingKey", table.Get(UI, "missingKey", nil))
}

func TestTable_PlaceholderPrefixes(t *testing.T) {
	table := New()
	table.Set(map[string]map[string]string{UI: {"range": "%min..%minimum"}})

	assert.Equal(t, "1..2", table.Get(UI, "range", Params{"min": "1", "minimum": "2"}))
}

func TestTable_ValidationKindsPresent(t *testing.T) {
	table := New()
	kinds := []string{"type", "pattern", "const", "format", "minLength", "maxLength",
		"minimum", "maximum", "minItems", "maxItems", "enum", "unique", "required", "notAllowed"}

	for _, kind := range kinds {
		assert.NotEqual(t, kind, table.Get(Validation, kind, nil), "missing template for %s", kind)
	}
}

func TestTable_LoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "strings.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
ui:
  popupTitle: Editar JSON
validation:
  required: campo obrigatório ausente
custom:
  hello: olá %name
`), 0644))

	table := New()
	require.NoError(t, table.LoadFile(file))

	assert.Equal(t, "Editar JSON", table.UI("popupTitle"))
	assert.Equal(t, "Done", table.UI("popupOkButtonLabel"))
	assert.Equal(t, "campo obrigatório ausente", table.Get(Validation, "required", nil))
	assert.Equal(t, "olá Ana", table.Get("custom", "hello", Params{"name": "Ana"}))

	assert.Error(t, table.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestNew_Independent(t *testing.T) {
	a := New()
	b := New()
	a.Set(map[string]map[string]string{UI: {"add": "Adicionar"}})

	assert.Equal(t, "Adicionar", a.UI("add"))
	assert.Equal(t, "Add", b.UI("add"))
}
