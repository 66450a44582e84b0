package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/value"
)

const personSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"age": {"type": "number", "minimum": 0}
	}
}`

func kinds(errs []Error) []Kind {
	out := make([]Kind, len(errs))
	for i, e := range errs {
		out[i] = e.Kind
	}
	return out
}

func check(t *testing.T, doc, sch string) []Error {
	t.Helper()
	return Validate(value.MustParse(doc), schema.MustParse(sch))
}

func TestValidate_Person(t *testing.T) {
	t.Run("missing name", func(t *testing.T) {
		errs := check(t, `{}`, personSchema)
		require.Len(t, errs, 1)
		assert.Equal(t, KindRequired, errs[0].Kind)
		assert.Equal(t, "root.name: required field missing", errs[0].String())
	})

	t.Run("empty name and negative age", func(t *testing.T) {
		errs := check(t, `{"name": "", "age": -1}`, personSchema)
		assert.Equal(t, []Kind{KindMinLength, KindMinimum}, kinds(errs))
		assert.Equal(t, "root.name", errs[0].Path.String())
		assert.Equal(t, "root.age", errs[1].Path.String())
	})

	t.Run("valid", func(t *testing.T) {
		assert.Empty(t, check(t, `{"name": "Ada", "age": 5}`, personSchema))
	})
}

func TestValidate_UniqueItems(t *testing.T) {
	const sch = `{"type": "array", "items": {"type": "number"}, "uniqueItems": true}`

	errs := check(t, `[1, 2, 2]`, sch)
	require.Len(t, errs, 1)
	assert.Equal(t, KindUnique, errs[0].Kind)
	assert.Equal(t, "root: items must be unique", errs[0].String())

	errs = check(t, `[{"a": 1}, {"a": 1}]`, `{"type": "array", "uniqueItems": true}`)
	assert.Equal(t, []Kind{KindUnique}, kinds(errs))

	errs = check(t, `[{"a": 1, "b": 2}, {"b": 2, "a": 1}, 2, 2]`, `{"type": "array", "uniqueItems": true}`)
	assert.Len(t, errs, 1, "one error per array")

	assert.Empty(t, check(t, `[1, "1", [1], {"1": 1}]`, `{"uniqueItems": true}`))
}

func TestValidate_AdditionalPropertiesFalse(t *testing.T) {
	errs := check(t, `{"x": 1}`, `{"type": "object", "properties": {}, "additionalProperties": false}`)

	require.Len(t, errs, 1)
	assert.Equal(t, KindNotAllowed, errs[0].Kind)
	assert.Equal(t, "root.x: field not allowed", errs[0].String())
}

func TestValidate_AdditionalPropertiesSchema(t *testing.T) {
	const sch = `{"type": "object", "properties": {"id": {"type": "string"}}, "additionalProperties": {"type": "number", "maximum": 10}}`

	errs := check(t, `{"a": 3, "id": "x", "b": "nope", "c": 11}`, sch)
	assert.Equal(t, []Kind{KindType, KindMaximum}, kinds(errs))
	assert.Equal(t, "root.b", errs[0].Path.String())
	assert.Equal(t, "root.c", errs[1].Path.String())
}

func TestValidate_Order(t *testing.T) {
	const sch = `{
		"type": "object",
		"required": ["z", "a"],
		"properties": {
			"b": {"type": "string"},
			"a": {"type": "array", "items": {"type": "integer"}, "minItems": 3}
		},
		"additionalProperties": false
	}`

	errs := check(t, `{"extra": true, "a": [1, 1.5], "b": 3}`, sch)

	got := Messages(errs, path.Bracketed)
	assert.Equal(t, []string{
		"root.z: required field missing",
		"root.b: must be of type string",
		"root.a: must have at least 3 items",
		"root.a[1]: must be of type integer",
		"root.extra: field not allowed",
	}, got)
}

func TestValidate_TypeSets(t *testing.T) {
	const sch = `{"type": ["string", "null"]}`

	assert.Empty(t, check(t, `null`, sch))
	assert.Empty(t, check(t, `"s"`, sch))

	errs := check(t, `5`, sch)
	require.Len(t, errs, 1)
	assert.Equal(t, "root: must be of type string, null", errs[0].String())

	assert.Empty(t, check(t, `5`, `{"type": "integer"}`))
	assert.Len(t, check(t, `5.5`, `{"type": "integer"}`), 1)
	assert.Empty(t, check(t, `5.5`, `{"type": "number"}`))
	assert.Len(t, check(t, `[]`, `{"type": "object"}`), 1)
	assert.Len(t, check(t, `{}`, `{"type": "date"}`), 1)
}

func TestValidate_StringConstraints(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		schema string
		want   []Kind
	}{
		{"pattern ok", `"12345"`, `{"pattern": "^[0-9]{5}$"}`, nil},
		{"pattern fails", `"1234"`, `{"pattern": "^[0-9]{5}$"}`, []Kind{KindPattern}},
		{"pattern unanchored", `"abc123"`, `{"pattern": "[0-9]+"}`, nil},
		{"max length", `"abcd"`, `{"maxLength": 3}`, []Kind{KindMaxLength}},
		{"utf16 length", `"😀"`, `{"maxLength": 1}`, []Kind{KindMaxLength}},
		{"utf16 length ok", `"😀"`, `{"minLength": 2, "maxLength": 2}`, nil},
		{"const", `"b"`, `{"const": "a"}`, []Kind{KindConst}},
		{"const object", `{"y": 2, "x": 1}`, `{"const": {"x": 1, "y": 2}}`, nil},
		{"enum", `"c"`, `{"enum": ["a", "b"]}`, []Kind{KindEnum}},
		{"enum mixed", `2`, `{"enum": ["a", 2, null]}`, nil},
		{"length ignores numbers", `12345`, `{"maxLength": 1}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(check(t, tt.doc, tt.schema))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_Formats(t *testing.T) {
	tests := []struct {
		format string
		good   string
		bad    string
	}{
		{"date", "2024-02-29", "29/02/2024"},
		{"time", "13:45", "1:45pm"},
		{"time", "13:45:10", "13:45:10:00"},
		{"date-time", "2024-02-29T13:45", "2024-02-29 13:45"},
		{"date-time", "2024-02-29T13:45:00Z", "2024-02-29T13"},
		{"datetime-local", "2024-02-29T13:45", "2024-02-29T13:45:00"},
		{"color", "#A0b", "#abcd"},
		{"color", "#00ff00", "green"},
		{"email", "ana@example.com", "ana@example"},
	}

	for _, tt := range tests {
		t.Run(tt.format+" "+tt.good, func(t *testing.T) {
			assert.True(t, CheckFormat(tt.format, tt.good))
			assert.False(t, CheckFormat(tt.format, tt.bad))
		})
	}

	assert.True(t, CheckFormat("uri", "anything"))
	assert.True(t, KnownFormat("email"))
	assert.False(t, KnownFormat("uri"))

	errs := check(t, `{"when": "tomorrow"}`, `{"properties": {"when": {"type": "string", "format": "date"}}}`)
	require.Len(t, errs, 1)
	assert.Equal(t, "root.when: must be a valid date", errs[0].String())
}

func TestValidate_ZeroBounds(t *testing.T) {
	doc := value.MustParse(`{"n": -1, "list": []}`)
	sch := schema.MustParse(`{"properties": {"n": {"minimum": 0}, "list": {"minItems": 0, "maxItems": 0}}}`)

	errs := New(Options{}).Validate(doc, sch)
	assert.Equal(t, []Kind{KindMinimum}, kinds(errs))

	legacy := New(Options{LegacyZeroBounds: true}).Validate(doc, sch)
	assert.Empty(t, legacy)

	full := value.MustParse(`{"list": [1]}`)
	assert.Equal(t, []Kind{KindMaxItems}, kinds(New(Options{}).Validate(full, sch)))
	assert.Empty(t, New(Options{LegacyZeroBounds: true}).Validate(full, sch))
}

func TestValidate_NilSchema(t *testing.T) {
	assert.Empty(t, Validate(value.MustParse(`{"anything": [1, 2]}`), nil))
}

func TestValidate_Pure(t *testing.T) {
	doc := value.MustParse(`{"b": [3, 3], "a": {"x": null}}`)
	before := doc.String()
	sch := schema.MustParse(`{"type": "object", "properties": {"b": {"uniqueItems": true}}, "additionalProperties": false}`)

	first := Validate(doc, sch)
	second := Validate(doc, sch)

	assert.Equal(t, before, doc.String())
	assert.Equal(t, Messages(first, path.Dotted), Messages(second, path.Dotted))
}

func TestValidator_Messages(t *testing.T) {
	table := i18n.New()
	table.Set(map[string]map[string]string{i18n.Validation: {"required": "campo obrigatório ausente"}})

	v := New(Options{PathStyle: path.Pointer, Strings: table})
	errs := v.Validate(value.MustParse(`{"inner": {}}`), schema.MustParse(`{"properties": {"inner": {"required": ["k"]}}}`))

	assert.Equal(t, []string{"#/inner/k: campo obrigatório ausente"}, v.Messages(errs))
	assert.Equal(t, "k", errs[0].Params["key"])
}

func TestValidate_ArrayItemsNested(t *testing.T) {
	const sch = `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id"],
			"properties": {"tags": {"type": "array", "items": {"type": "string", "maxLength": 2}}}
		}
	}`

	errs := check(t, `[{"id": 1, "tags": ["ok", "long"]}, {"tags": []}]`, sch)

	assert.Equal(t, []string{
		"root[0].tags[1]: must have at most 2 characters",
		"root[1].id: required field missing",
	}, Messages(errs, path.Bracketed))
}

func TestKinds_HaveTemplates(t *testing.T) {
	table := i18n.New()
	for _, k := range Kinds {
		assert.NotEqual(t, string(k), table.Get(i18n.Validation, string(k), nil), "kind %s", k)
	}
}
