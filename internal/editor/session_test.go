package editor

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/testhelper"
	"github.com/lacquerai/jsonedit/internal/value"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
}

func bindWith(t *testing.T, text string, sch *schema.Node, cfg Config, opts ...SessionOption) (*Session, *Field) {
	t.Helper()
	f := NewField("config", "config", text)
	s, err := Bind(f, sch, cfg, append([]SessionOption{WithClock(fixedNow)}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, s.Render())
	t.Cleanup(s.Close)
	return s, f
}

func bind(t *testing.T, text string, sch *schema.Node, opts ...SessionOption) (*Session, *Field) {
	t.Helper()
	return bindWith(t, text, sch, DefaultConfig(), opts...)
}

func nodeID(n *html.Node) string {
	v, _ := getAttr(n, attrNode)
	return v
}

func extracted(t *testing.T, s *Session) string {
	t.Helper()
	v, err := s.Extract()
	require.NoError(t, err)
	return v.String()
}

type recordingPresenter struct {
	mu        sync.Mutex
	presented []Popup
	dismissed []string
}

func (p *recordingPresenter) Present(popup Popup) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.presented = append(p.presented, popup)
	return nil
}

func (p *recordingPresenter) Dismiss(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dismissed = append(p.dismissed, id)
}

func TestRoundTrip(t *testing.T) {
	docs := []string{
		`{}`,
		`[]`,
		`null`,
		`true`,
		`42`,
		`"text"`,
		`{"a":1,"b":[true,false,null],"c":{"d":"x","e":[]}}`,
		`[[1,2],[{"k":"v"}],{}]`,
		`{"z":1,"a":2,"m":3}`,
		`{"when":"2024-01-05","at":"10:30","stamp":"2024-01-05T10:30","color":"#FF00aa"}`,
		`{"small":-1.5e-7,"big":1e+21,"frac":0.1}`,
		`{"s":"  spaced  ","html":"<b>&amp;</b>","empty":""}`,
		`{"nested":{"deeper":{"deepest":[null,"x",{"y":false}]}}}`,
	}

	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			s, _ := bind(t, doc, nil)
			got, err := s.Extract()
			require.NoError(t, err)
			assert.True(t, value.IdenticalOrder(value.MustParse(doc), got), "got %s", got)
		})
	}
}

func TestRoundTrip_WithSchema(t *testing.T) {
	sch := schema.MustParse(`{
		"type": "object",
		"properties": {
			"size": {"type": "string", "enum": ["s", "m", "l"]},
			"legacy": {"type": "string", "enum": ["a", "b"]},
			"day": {"type": "string", "format": "date"},
			"tint": {"type": "string", "format": "color"}
		}
	}`)

	doc := `{"size":"m","legacy":"zz","day":"2023-12-31","tint":"#123456"}`
	s, _ := bind(t, doc, sch)

	assert.Equal(t, doc, extracted(t, s))

	selects := findAll(s.root, func(n *html.Node) bool { return isTag(n, atom.Select) && hasClass(n, classValue) })
	require.Len(t, selects, 2)
	assert.Len(t, findAll(selects[1], tagged(atom.Option)), 3, "out-of-enum value kept as an extra option")
}

func TestRender_PrefillsEmptyFormattedStrings(t *testing.T) {
	sch := schema.MustParse(`{
		"properties": {
			"d": {"type": "string", "format": "date"},
			"t": {"type": "string", "format": "time"},
			"dt": {"type": "string", "format": "date-time"},
			"c": {"type": "string", "format": "color"}
		}
	}`)
	s, _ := bind(t, `{"d":"","t":"","dt":"","c":""}`, sch)

	assert.Equal(t, `{"d":"2024-03-09","t":"14:30","dt":"2024-03-09T14:30","c":"#000000"}`, extracted(t, s))
}

func TestRender_Structure(t *testing.T) {
	sch := schema.MustParse(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "description": "Full name"},
			"age": {"type": "number"}
		},
		"additionalProperties": false
	}`)
	s, _ := bind(t, `{"name":"Ada","age":36}`, sch)

	lines := findAll(s.root, withClass(classLine))
	require.Len(t, lines, 2)
	assert.True(t, hasClass(lines[0], classRequired))
	assert.False(t, hasClass(lines[1], classRequired))

	desc := find(lines[0], withClass(classDescription))
	require.NotNil(t, desc)
	assert.Equal(t, "Full name", textContent(desc))

	key := firstChildWithClass(lines[0], classKey)
	assert.True(t, hasAttrValue(key, "contenteditable", "false"), "declared keys are not renamable")

	assert.Nil(t, find(s.root, withClass(classAdd)), "additionalProperties false hides the add affordance")

	obj := find(s.root, withClass(classObject))
	p, _ := getAttr(obj, attrPath)
	assert.Equal(t, "root", p)

	assert.Nil(t, firstChildWithClass(obj, classActions), "root has no entry actions")
	assert.Len(t, findAll(s.root, withClass(classRemove)), 2)
}

func TestRender_NestedActionsAndPaths(t *testing.T) {
	s, _ := bind(t, `{"list":[{"a":1},2]}`, nil)

	arr := find(s.root, withClass(classArray))
	p, _ := getAttr(arr, attrPath)
	assert.Equal(t, "root.list", p)

	// list line (1) + two array entries + member a
	assert.Len(t, findAll(s.root, withClass(classRemove)), 4)

	inner := find(arr, withClass(classObject))
	require.NotNil(t, inner)
	assert.NotNil(t, firstChildWithClass(inner, classActions), "composite entries carry actions in their container")
}

func TestRender_MaxItemsHidesAdd(t *testing.T) {
	sch := schema.MustParse(`{"type": "array", "maxItems": 2}`)
	s, _ := bind(t, `[1,2]`, sch)

	add := find(s.root, withClass(classAdd))
	require.NotNil(t, add)
	assert.True(t, hasClass(add, classFull))
	assert.True(t, hasAttr(add, "hidden"))
}

func TestRender_LegacyZeroMaxItems(t *testing.T) {
	sch := schema.MustParse(`{"type": "array", "maxItems": 0}`)

	s, _ := bind(t, `[1]`, sch)
	assert.True(t, hasClass(find(s.root, withClass(classAdd)), classFull))

	cfg := DefaultConfig()
	cfg.LegacyZeroBounds = true
	legacy, _ := bindWith(t, `[1]`, sch, cfg)
	assert.False(t, hasClass(find(legacy.root, withClass(classAdd)), classFull))
}

func TestRender_ConfigClasses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertItems = false
	cfg.RemoveItems = false
	s, _ := bindWith(t, `{"a":[1]}`, nil, cfg)

	assert.Equal(t, []string{classEditor, "no-insert", "no-remove"}, classes(s.root))
	assert.Nil(t, find(s.root, withClass(classAdd)))
	assert.Nil(t, find(s.root, withClass(classRemove)))
	assert.NotNil(t, find(s.root, withClass(classUp)))
}

func TestRender_SchemaFlagsOverrideConfig(t *testing.T) {
	sch := schema.MustParse(`{
		"type": "array",
		"canRemoveItems": false,
		"canMoveItems": false,
		"items": {"type": "number"}
	}`)
	s, _ := bind(t, `[1,2]`, sch)

	arr := find(s.root, withClass(classArray))
	assert.True(t, hasClass(arr, "no-remove-items"))
	assert.True(t, hasClass(arr, "no-move-items"))
	assert.Nil(t, find(s.root, withClass(classRemove)))
	assert.Nil(t, find(s.root, withClass(classUp)))

	add := find(s.root, withClass(classAdd))
	require.NotNil(t, add)
	opts := findAll(find(add, withClass(classAddType)), tagged(atom.Option))
	require.Len(t, opts, 2)
	assert.Equal(t, "number", textContent(opts[1]))
}

func TestRender_SchemaLink(t *testing.T) {
	sch := schema.MustParse(`{"type": "object"}`)

	s, _ := bind(t, `{}`, sch)
	link := find(s.root, withClass(classShowSchema))
	require.NotNil(t, link)
	assert.False(t, hasClass(link, classDisabled))

	cfg := DefaultConfig()
	cfg.VisibleSchema = false
	locked, _ := bindWith(t, `{}`, sch, cfg)
	assert.True(t, hasClass(find(locked.root, withClass(classShowSchema)), classDisabled))

	plain, _ := bind(t, `{}`, nil)
	assert.Nil(t, find(plain.root, withClass(classShowSchema)))
}

func TestRender_NodeIDsAreUnique(t *testing.T) {
	s, _ := bind(t, `{"a":[1,{"b":null}],"c":"x"}`, nil)

	seen := map[string]bool{}
	for _, n := range findAll(s.root, func(n *html.Node) bool { return true }) {
		id := nodeID(n)
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate node id %s", id)
		seen[id] = true
	}
}

func TestBind_SeedsFromSchema(t *testing.T) {
	sch := schema.MustParse(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"tags": {"type": "array", "items": {"type": "string"}},
			"mode": {"enum": ["fast", "slow"]}
		}
	}`)
	f := NewField("seeded", "", "   ")

	s, err := Bind(f, sch, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	want := "{\n    \"name\": \"placeholder\",\n    \"tags\": [\n        \"\"\n    ],\n    \"mode\": \"fast\"\n}"
	assert.Equal(t, want, f.Value())
	assert.Equal(t, Bound, s.State())
}

func TestBind_EmptyWithoutSchema(t *testing.T) {
	f := NewField("plain", "", "")
	_, err := Bind(f, nil, DefaultConfig())
	require.ErrorIs(t, err, ErrInvalidJSON)
	assert.Equal(t, "", f.Value())
}

// unreadableField fails every read and records writes.
type unreadableField struct {
	*Field
	writes int
}

func (f *unreadableField) ReadValue() (string, error) {
	return "", errors.New("permission denied")
}

func (f *unreadableField) SetValue(v string) error {
	f.writes++
	return f.Field.SetValue(v)
}

func TestBind_UnreadableSourceIsNotSeeded(t *testing.T) {
	f := &unreadableField{Field: NewField("locked", "", "")}
	sch := schema.MustParse(`{"type": "object", "properties": {"a": {"type": "string"}}}`)

	s, err := Bind(f, sch, DefaultConfig())
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "failed to read locked")
	assert.NotErrorIs(t, err, ErrInvalidJSON)
	assert.Zero(t, f.writes, "source untouched")
}

func TestBind_InvalidJSONLogs(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })
	testhelper.EnableLogging(t, zerolog.DebugLevel)

	f := NewField("broken", "", `{"a":`)
	s, err := Bind(f, schema.MustParse(`{"type":"object"}`), DefaultConfig())

	require.ErrorIs(t, err, ErrInvalidJSON)
	assert.Nil(t, s)
	assert.Equal(t, `{"a":`, f.Value(), "source untouched")
	assert.Contains(t, buf.String(), "Invalid JSON")
	assert.Contains(t, buf.String(), `"session":"broken"`)
}

func TestSession_IDAndTitle(t *testing.T) {
	byID, err := Bind(NewField("userProfile", "profile", "{}"), nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "userProfile", byID.ID())
	assert.Equal(t, "Edit JSON: user profile", byID.Title())

	byName, err := Bind(NewField("", "settings", "{}"), nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "settings", byName.ID())

	unnamed, err := Bind(NewField("", "", "{}"), nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "Unnamed", unnamed.ID())

	titled, err := Bind(NewField("x", "", "{}").WithAttr(AttrTitle, "Payload"), nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "Payload", titled.Title())
}

func TestSession_RenderRequiresBind(t *testing.T) {
	s := &Session{}
	assert.ErrorIs(t, s.Render(), ErrNotBound)
	_, err := s.HTML()
	assert.ErrorIs(t, err, ErrNotBound)
}

func TestSession_OpenPresentsPopup(t *testing.T) {
	s, _ := bind(t, `{"a":1}`, nil)
	p := &recordingPresenter{}

	require.NoError(t, s.Open(p))

	require.Len(t, p.presented, 1)
	popup := p.presented[0]
	assert.Equal(t, "config", popup.SessionID)
	assert.Equal(t, "Done", popup.OKLabel)
	assert.Equal(t, "Cancel", popup.CancelLabel)
	assert.Same(t, s.root, popup.Body)
	assert.Equal(t, Opened, s.State())
}

func TestSession_SaveWritesIndentedText(t *testing.T) {
	sch := schema.MustParse(`{"properties": {"name": {"type": "string", "minLength": 5}}}`)
	s, f := bind(t, `{"name":"Ada"}`, sch)
	p := &recordingPresenter{}
	require.NoError(t, s.Open(p))

	result, err := s.Save()
	require.NoError(t, err)

	assert.True(t, result.Saved)
	assert.Equal(t, "{\n    \"name\": \"Ada\"\n}", f.Value())
	assert.Equal(t, []string{"root.name: must have at least 5 characters"}, result.Messages)
	assert.True(t, result.Diff.Changed())
	assert.Equal(t, []string{"config"}, p.dismissed)
	assert.Equal(t, Closed, s.State())

	lines := findAll(s.root, withClass(classErrorLine))
	require.Len(t, lines, 1)
	assert.Equal(t, "root.name must have at least 5 characters", textContent(lines[0]))
}

func TestSession_BlockInvalidSave(t *testing.T) {
	sch := schema.MustParse(`{"required": ["id"]}`)
	cfg := DefaultConfig()
	cfg.BlockInvalidSave = true
	s, f := bindWith(t, `{}`, sch, cfg)
	p := &recordingPresenter{}
	require.NoError(t, s.Open(p))

	result, err := s.Save()
	require.NoError(t, err)

	assert.False(t, result.Saved)
	assert.Equal(t, `{}`, f.Value())
	assert.Equal(t, []string{"root.id: required field missing"}, result.Messages)
	assert.Equal(t, Opened, s.State())
	assert.Empty(t, p.dismissed)
}

func TestSession_CancelKeepsTextAndEdits(t *testing.T) {
	s, f := bind(t, `{"name":"Ada"}`, nil)
	require.NoError(t, s.Open(nil))

	span := find(s.root, withClass(classValue))
	_, err := s.Input(nodeID(span), "Grace")
	require.NoError(t, err)
	require.NoError(t, s.Cancel())

	assert.Equal(t, `{"name":"Ada"}`, f.Value())
	assert.Equal(t, Closed, s.State())

	// reopening reuses the subtree, edits included
	root := s.root
	require.NoError(t, s.Open(nil))
	assert.Same(t, root, s.root)
	assert.Equal(t, `{"name":"Grace"}`, extracted(t, s))
}

func TestSession_DebouncedValidationCoalesces(t *testing.T) {
	sch := schema.MustParse(`{"properties": {"name": {"type": "string", "minLength": 3}}}`)
	cfg := DefaultConfig()
	cfg.Debounce = 30 * time.Millisecond

	var calls atomic.Int32
	reports := make(chan Report, 8)
	s, _ := bindWith(t, `{"name":"abcd"}`, sch, cfg, WithObserver(func(r Report) {
		calls.Add(1)
		reports <- r
	}))
	require.NoError(t, s.Open(nil))

	span := find(s.root, withClass(classValue))
	for _, text := range []string{"a", "ab", "abc", "x"} {
		_, err := s.Input(nodeID(span), text)
		require.NoError(t, err)
	}
	assert.True(t, s.Pending())

	select {
	case r := <-reports:
		assert.Equal(t, []string{"root.name: must have at least 3 characters"}, r.Messages)
	case <-time.After(2 * time.Second):
		t.Fatal("validation never ran")
	}

	time.Sleep(4 * cfg.Debounce)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, s.Pending())

	out, err := s.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, "must have at least 3 characters")
}

func TestSession_NoLiveValidationWhenClosed(t *testing.T) {
	sch := schema.MustParse(`{"type": "object"}`)
	s, _ := bind(t, `{"a":"x"}`, sch)

	span := find(s.root, withClass(classValue))
	_, err := s.Input(nodeID(span), "y")
	require.NoError(t, err)
	assert.False(t, s.Pending(), "rendered but never opened")

	require.NoError(t, s.Open(nil))
	require.NoError(t, s.Cancel())
	assert.False(t, s.Pending(), "cancel stops the timer")
}

func TestSession_ValidateWithoutSchema(t *testing.T) {
	s, _ := bind(t, `{"a":1}`, nil)
	report, err := s.Validate()
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
}

func TestSession_HTML(t *testing.T) {
	s, _ := bind(t, `{"k":"<v>"}`, nil)
	out, err := s.HTML()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<div id="__ej_config" class="edit-json"`))
	assert.Contains(t, out, "&lt;v&gt;")
}
