package editor

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/value"
)

// Native input types backing the bidirectional controls.
const (
	inputColor         = "color"
	inputDate          = "date"
	inputTime          = "time"
	inputDateTimeLocal = "datetime-local"
)

var (
	sniffDate     = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)
	sniffDateTime = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])T([01][0-9]|2[0-3]):[0-5][0-9]$`)
	sniffTime     = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)
	sniffColor    = regexp.MustCompile(`(?i)^#([0-9a-f]{6}|[0-9a-f]{3})$`)
)

// SniffInput returns the native input type a string value looks like, or ""
// when it is plain text.
func SniffInput(s string) string {
	switch {
	case sniffDate.MatchString(s):
		return inputDate
	case sniffDateTime.MatchString(s):
		return inputDateTimeLocal
	case sniffTime.MatchString(s):
		return inputTime
	case sniffColor.MatchString(s):
		return inputColor
	}
	return ""
}

// formatInput maps a schema format to a native input type.
func formatInput(n *schema.Node) string {
	if n == nil {
		return ""
	}
	switch n.Format {
	case "color":
		return inputColor
	case "date":
		return inputDate
	case "time":
		return inputTime
	case "date-time", "datetime-local":
		return inputDateTimeLocal
	}
	return ""
}

// control picks the leaf control for a scalar value.
func (s *Session) control(v *value.Value, at path.Path) *html.Node {
	switch v.Kind() {
	case value.Bool:
		return s.boolSelect(v.Bool())
	case value.Number:
		return s.el(atom.Input, []attr{{"type", "number"}, {"value", value.FormatNumber(v.Number())}, {"class", classNumber}})
	case value.String:
		return s.stringControl(v, at)
	}
	return s.el(atom.Span, []attr{{"class", classNull}}, text("null"))
}

func (s *Session) stringControl(v *value.Value, at path.Path) *html.Node {
	str := v.Str()
	node := s.resolve(at)

	if input := formatInput(node); input != "" {
		return s.bidirectional(input, str)
	}
	if input := SniffInput(str); input != "" {
		return s.bidirectional(input, str)
	}
	if node != nil && len(node.Enum) > 0 {
		return s.enumSelect(node, v)
	}
	return s.el(atom.Span, []attr{{"contenteditable", "true"}, {"class", classValue}}, text(str))
}

func (s *Session) boolSelect(b bool) *html.Node {
	yes := []attr{{"value", "true"}}
	no := []attr{{"value", "false"}}
	if b {
		yes = append(yes, attr{"selected", ""})
	} else {
		no = append(no, attr{"selected", ""})
	}
	return s.el(atom.Select, []attr{{"class", classValue}},
		s.el(atom.Option, yes, text("true")),
		s.el(atom.Option, no, text("false")),
	)
}

// enumSelect offers the enum values of n. Option values are JSON encoded so
// extraction recovers the exact value. A current value outside the enum is
// kept as an extra leading option rather than silently replaced.
func (s *Session) enumSelect(n *schema.Node, current *value.Value) *html.Node {
	sel := s.el(atom.Select, []attr{{"class", classValue}})
	if n.CanEditKeys != nil && !*n.CanEditKeys {
		setAttr(sel, "disabled", "")
	}

	found := false
	for _, e := range n.Enum {
		if value.Equal(e, current) {
			found = true
			break
		}
	}
	if !found {
		sel.AppendChild(s.option(current, true))
	}
	for _, e := range n.Enum {
		sel.AppendChild(s.option(e, found && value.Equal(e, current)))
	}
	return sel
}

func (s *Session) option(v *value.Value, selected bool) *html.Node {
	attrs := []attr{{"value", v.String()}}
	if selected {
		attrs = append(attrs, attr{"selected", ""})
	}
	return s.el(atom.Option, attrs, text(v.String()))
}

// bidirectional builds the text span plus native input pair. An empty value
// is prefilled so the native control has something to show.
func (s *Session) bidirectional(input, val string) *html.Node {
	if val == "" {
		val = s.prefill(input)
	}
	return s.el(atom.Span, []attr{{"class", "edit-value-" + input}},
		s.el(atom.Span, []attr{{"contenteditable", "true"}, {"class", classValue}}, text(val)),
		s.el(atom.Input, []attr{{"type", input}, {"value", val}, {"class", "edit-value-" + input + "-input"}, {"novalidate", ""}}),
	)
}

func (s *Session) prefill(input string) string {
	now := s.now()
	switch input {
	case inputColor:
		return "#000000"
	case inputDate:
		return now.Format("2006-01-02")
	case inputDateTimeLocal:
		return now.Format("2006-01-02T15:04")
	case inputTime:
		return now.Format("15:04")
	}
	return ""
}

// bidirectionalInput returns the native input type of a bidirectional
// container, or "" when n is not one.
func bidirectionalInput(n *html.Node) string {
	if !isTag(n, atom.Span) {
		return ""
	}
	for _, c := range classes(n) {
		if input, ok := strings.CutPrefix(c, "edit-value-"); ok {
			switch input {
			case inputColor, inputDate, inputTime, inputDateTimeLocal:
				return input
			}
		}
	}
	return ""
}

// selectedOption returns the option a select currently shows: the one
// marked selected, else the first enabled one.
func selectedOption(sel *html.Node) *html.Node {
	options := findAll(sel, tagged(atom.Option))
	for _, o := range options {
		if hasAttr(o, "selected") {
			return o
		}
	}
	for _, o := range options {
		if !hasAttr(o, "disabled") {
			return o
		}
	}
	return nil
}

// selectOption marks the option whose value is val as selected. It reports
// false when no option carries val.
func selectOption(sel *html.Node, val string) bool {
	var target *html.Node
	options := findAll(sel, tagged(atom.Option))
	for _, o := range options {
		if v, _ := getAttr(o, "value"); v == val {
			target = o
			break
		}
	}
	if target == nil {
		return false
	}
	for _, o := range options {
		removeAttr(o, "selected")
	}
	setAttr(target, "selected", "")
	return true
}

// parseNumber reads a numeric input the way a browser converts it: blank
// is zero and anything unparseable becomes null.
func parseNumber(s string) *value.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return value.NewNumber(0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.NewNull()
	}
	return value.NewNumber(f)
}
