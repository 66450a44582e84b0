package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_Format(t *testing.T) {
	p := New(KeySegment("a"), IndexSegment(0), KeySegment("b"))

	assert.Equal(t, "root.a.0.b", p.Format(Dotted))
	assert.Equal(t, "root.a[0].b", p.Format(Bracketed))
	assert.Equal(t, "#/a/0/b", p.Format(Pointer))
	assert.Equal(t, "root.a.0.b", p.String())
}

func TestPath_FormatRoot(t *testing.T) {
	var p Path

	assert.True(t, p.IsRoot())
	assert.Equal(t, "root", p.Format(Dotted))
	assert.Equal(t, "root", p.Format(Bracketed))
	assert.Equal(t, "#", p.Format(Pointer))
}

func TestParse_Notations(t *testing.T) {
	want := New(KeySegment("a"), IndexSegment(0), KeySegment("b"))

	tests := []struct {
		name string
		text string
	}{
		{"dotted", "root.a.0.b"},
		{"bracketed", "root.a[0].b"},
		{"pointer", "#/a/0/b"},
		{"dotted without root", "a.0.b"},
		{"bracketed without root", "a[0].b"},
		{"surrounding space", "  root.a[0].b "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, want.Equal(Parse(tt.text)), "parsed %q as %s", tt.text, Parse(tt.text))
		})
	}
}

func TestParse_RootForms(t *testing.T) {
	for _, text := range []string{"", "root", "#", "#/"} {
		assert.True(t, Parse(text).IsRoot(), "expected %q to be the root", text)
	}
}

func TestParse_ConsecutiveIndexes(t *testing.T) {
	p := Parse("root.matrix[1][2]")

	require.Equal(t, 3, p.Len())
	assert.Equal(t, "matrix", p.At(0).Key())
	assert.True(t, p.At(1).IsIndex())
	assert.Equal(t, 1, p.At(1).Index())
	assert.Equal(t, 2, p.At(2).Index())
	assert.Equal(t, "root.matrix[1][2]", p.Format(Bracketed))
}

func TestRoundTrip_AllStyles(t *testing.T) {
	cases := []Path{
		{},
		New(KeySegment("name")),
		New(IndexSegment(0)),
		New(IndexSegment(3), IndexSegment(14)),
		New(KeySegment("users"), IndexSegment(12), KeySegment("address"), KeySegment("zip-code")),
		New(KeySegment("a b"), KeySegment("ção"), IndexSegment(7)),
		New(KeySegment("x"), IndexSegment(0), IndexSegment(1), KeySegment("y"), IndexSegment(2)),
	}

	for _, p := range cases {
		for _, style := range []Style{Dotted, Bracketed, Pointer} {
			text := p.Format(style)
			assert.True(t, p.Equal(Parse(text)), "style %s: %q parsed back as %s", style, text, Parse(text))
		}
	}
}

func TestPath_Immutable(t *testing.T) {
	base := New(KeySegment("a"))
	left := base.Key("left")
	right := base.Key("right")

	assert.Equal(t, "root.a", base.String())
	assert.Equal(t, "root.a.left", left.String())
	assert.Equal(t, "root.a.right", right.String())

	parent := left.Parent()
	extended := parent.Index(4)
	assert.Equal(t, "root.a.left", left.String())
	assert.Equal(t, "root.a.4", extended.String())
}

func TestPath_Last(t *testing.T) {
	_, ok := Path{}.Last()
	assert.False(t, ok)

	last, ok := New(KeySegment("a"), IndexSegment(9)).Last()
	require.True(t, ok)
	assert.True(t, last.IsIndex())
	assert.Equal(t, 9, last.Index())
}

func TestParseStyle(t *testing.T) {
	assert.Equal(t, Dotted, ParseStyle("dots"))
	assert.Equal(t, Bracketed, ParseStyle("js"))
	assert.Equal(t, Pointer, ParseStyle("pointer"))
	assert.Equal(t, Dotted, ParseStyle("unknown"))
	assert.Equal(t, "pointer", Pointer.String())
}
