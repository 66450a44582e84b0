package validate

import (
	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/path"
)

// Kind identifies a violated constraint. Each kind is also the id of its
// message template in the i18n validation category.
type Kind string

const (
	KindType       Kind = "type"
	KindPattern    Kind = "pattern"
	KindConst      Kind = "const"
	KindFormat     Kind = "format"
	KindMinLength  Kind = "minLength"
	KindMaxLength  Kind = "maxLength"
	KindMinimum    Kind = "minimum"
	KindMaximum    Kind = "maximum"
	KindMinItems   Kind = "minItems"
	KindMaxItems   Kind = "maxItems"
	KindEnum       Kind = "enum"
	KindUnique     Kind = "unique"
	KindRequired   Kind = "required"
	KindNotAllowed Kind = "notAllowed"
)

// Kinds lists every kind the validator can report.
var Kinds = []Kind{
	KindType, KindPattern, KindConst, KindFormat, KindMinLength, KindMaxLength,
	KindMinimum, KindMaximum, KindMinItems, KindMaxItems, KindEnum, KindUnique,
	KindRequired, KindNotAllowed,
}

// Error is one violation found in a document.
type Error struct {
	Path    path.Path
	Kind    Kind
	Params  i18n.Params
	Message string
}

// Text renders the error as "path: message" in the given path style.
func (e Error) Text(style path.Style) string {
	return e.Path.Format(style) + ": " + e.Message
}

// String renders the error with a dotted path.
func (e Error) String() string { return e.Text(path.Dotted) }

// Error implements the error interface so a violation can travel as one.
func (e Error) Error() string { return e.String() }

// Messages renders errs in order.
func Messages(errs []Error, style path.Style) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Text(style)
	}
	return out
}
