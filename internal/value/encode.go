package value

import (
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// SaveIndent is the indentation used when writing a document back into its
// text field.
const SaveIndent = "    "

// Encode serializes v. With an empty indent the output is compact; otherwise
// nested members go on their own lines, indented once per level. Empty
// containers are written as {} and [] in both modes.
func Encode(v *Value, indent string) string {
	var b strings.Builder
	encode(&b, v, indent, 0)
	return b.String()
}

// String returns the compact encoding of v.
func (v *Value) String() string { return Encode(v, "") }

// MarshalJSON implements json.Marshaler.
func (v *Value) MarshalJSON() ([]byte, error) {
	return []byte(Encode(v, "")), nil
}

func encode(b *strings.Builder, v *Value, indent string, depth int) {
	switch v.Kind() {
	case Null:
		b.WriteString("null")
	case Bool:
		if v.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Number:
		b.WriteString(FormatNumber(v.n))
	case String:
		b.WriteString(quote(v.s))
	case Array:
		if len(v.items) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, depth+1)
			encode(b, item, indent, depth+1)
		}
		newline(b, indent, depth)
		b.WriteByte(']')
	case Object:
		if v.obj.Len() == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteByte('{')
		first := true
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				b.WriteByte(',')
			}
			first = false
			newline(b, indent, depth+1)
			b.WriteString(quote(pair.Key))
			b.WriteByte(':')
			if indent != "" {
				b.WriteByte(' ')
			}
			encode(b, pair.Value, indent, depth+1)
		}
		newline(b, indent, depth)
		b.WriteByte('}')
	}
}

func newline(b *strings.Builder, indent string, depth int) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	for i := 0; i < depth; i++ {
		b.WriteString(indent)
	}
}

func quote(s string) string {
	out, err := json.MarshalNoEscape(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(out)
}

// FormatNumber renders n the way a browser's JSON serializer does: NaN and
// infinities become null, negative zero becomes 0, plain decimal notation is
// used between 1e-6 and 1e21 and exponent notation outside that range.
func FormatNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "null"
	}
	if n == 0 {
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	s := strconv.FormatFloat(n, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	return mant + "e" + string(sign) + exp
}
