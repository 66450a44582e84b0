// Package path addresses positions inside a JSON document.
//
// A Path is an ordered sequence of segments (object keys or array indexes)
// implicitly rooted at the "root" sentinel. Paths are immutable: Key and
// Index return extended copies, so recursive renderers and validators can
// thread them down each call without any push/pop bookkeeping.
//
// Three notations are supported and are interchangeable:
//
//	Dotted     root.a.0.b
//	Bracketed  root.a[0].b
//	Pointer    #/a/0/b
package path

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Root is the sentinel that starts every dotted and bracketed path.
const Root = "root"

// Style selects the string notation of a path.
type Style int

const (
	Dotted Style = iota
	Bracketed
	Pointer
)

// String returns the configuration name of the style.
func (s Style) String() string {
	switch s {
	case Bracketed:
		return "js"
	case Pointer:
		return "pointer"
	default:
		return "dots"
	}
}

// ParseStyle maps a configuration name to a Style. Unknown names fall back to
// Dotted.
func ParseStyle(name string) Style {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "js", "bracketed", "brackets":
		return Bracketed
	case "pointer", "json-pointer":
		return Pointer
	default:
		return Dotted
	}
}

// Segment is one step of a path: an object key or an array index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// KeySegment builds an object-key segment.
func KeySegment(key string) Segment { return Segment{key: key} }

// IndexSegment builds an array-index segment.
func IndexSegment(i int) Segment { return Segment{index: i, isIndex: true} }

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool { return s.isIndex }

// Key returns the object key of a key segment.
func (s Segment) Key() string { return s.key }

// Index returns the array index of an index segment.
func (s Segment) Index() int { return s.index }

func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Path is an immutable sequence of segments below the root.
type Path struct {
	segments []Segment
}

// New builds a path from segments.
func New(segments ...Segment) Path {
	return Path{segments: append([]Segment(nil), segments...)}
}

// Len returns the number of segments below the root.
func (p Path) Len() int { return len(p.segments) }

// IsRoot reports whether the path addresses the document root.
func (p Path) IsRoot() bool { return len(p.segments) == 0 }

// Segments returns a copy of the segments.
func (p Path) Segments() []Segment { return append([]Segment(nil), p.segments...) }

// At returns the i-th segment.
func (p Path) At(i int) Segment { return p.segments[i] }

// Last returns the final segment; ok is false at the root.
func (p Path) Last() (Segment, bool) {
	if len(p.segments) == 0 {
		return Segment{}, false
	}
	return p.segments[len(p.segments)-1], true
}

// Parent returns the path without its final segment. The root is its own
// parent.
func (p Path) Parent() Path {
	if len(p.segments) == 0 {
		return p
	}
	return Path{segments: p.segments[:len(p.segments)-1:len(p.segments)-1]}
}

// Key returns a copy of p extended with an object key.
func (p Path) Key(key string) Path { return p.append(KeySegment(key)) }

// Index returns a copy of p extended with an array index.
func (p Path) Index(i int) Path { return p.append(IndexSegment(i)) }

func (p Path) append(s Segment) Path {
	next := make([]Segment, len(p.segments), len(p.segments)+1)
	copy(next, p.segments)
	return Path{segments: append(next, s)}
}

// Equal reports whether two paths have the same segments.
func (p Path) Equal(o Path) bool {
	if len(p.segments) != len(o.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != o.segments[i] {
			return false
		}
	}
	return true
}

// Format renders the path in the given style.
func (p Path) Format(style Style) string {
	var b strings.Builder
	switch style {
	case Pointer:
		b.WriteString("#")
		for _, s := range p.segments {
			b.WriteByte('/')
			b.WriteString(s.String())
		}
	case Bracketed:
		b.WriteString(Root)
		for _, s := range p.segments {
			if s.isIndex {
				fmt.Fprintf(&b, "[%d]", s.index)
				continue
			}
			b.WriteByte('.')
			b.WriteString(s.key)
		}
	default:
		b.WriteString(Root)
		for _, s := range p.segments {
			b.WriteByte('.')
			b.WriteString(s.String())
		}
	}
	return b.String()
}

// String renders the path in dotted notation.
func (p Path) String() string { return p.Format(Dotted) }

var (
	delimiters = regexp.MustCompile(`\.|\[|\]\.?`)
	digits     = regexp.MustCompile(`^\d+$`)
)

// Parse recovers a path from any of the three notations. A leading "#"
// selects pointer notation; otherwise the text is split on ".", "[" and "]".
// Tokens made only of digits become index segments. The root sentinel is
// optional.
func Parse(text string) Path {
	text = strings.TrimSpace(text)
	if text == "" {
		return Path{}
	}

	var tokens []string
	if strings.HasPrefix(text, "#") {
		tokens = strings.Split(strings.TrimPrefix(text, "#"), "/")
	} else {
		tokens = delimiters.Split(text, -1)
		if len(tokens) > 0 && tokens[0] == Root {
			tokens = tokens[1:]
		}
	}

	segments := make([]Segment, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if digits.MatchString(tok) {
			if i, err := strconv.Atoi(tok); err == nil {
				segments = append(segments, IndexSegment(i))
				continue
			}
		}
		segments = append(segments, KeySegment(tok))
	}
	return Path{segments: segments}
}
