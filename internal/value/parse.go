package value

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
)

// ErrSyntax is returned when input text is not a single valid JSON document.
var ErrSyntax = errors.New("invalid JSON")

// Parse decodes JSON text into a Value, keeping object key order. Duplicate
// keys keep the position of their first occurrence and the value of the last.
func Parse(data []byte) (*Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrSyntax)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed document", ErrSyntax)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeNext(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrSyntax)
	}
	return v, nil
}

// ParseString is Parse for string input.
func ParseString(text string) (*Value, error) { return Parse([]byte(text)) }

// MustParse is Parse that panics; intended for tests and static fixtures.
func MustParse(text string) *Value {
	v, err := ParseString(text)
	if err != nil {
		panic(err)
	}
	return v
}

func decodeNext(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
	case string:
		return NewString(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", t, err)
		}
		return NewNumber(f), nil
	case float64:
		return NewNumber(t), nil
	case bool:
		return NewBool(t), nil
	case nil:
		return NewNull(), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (*Value, error) {
	obj := NewObject()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		member, err := decodeNext(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, member)
	}
}

func decodeArray(dec *json.Decoder) (*Value, error) {
	arr := NewArray()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return arr, nil
		}
		item, err := decodeToken(dec, tok)
		if err != nil {
			return nil, err
		}
		arr.Append(item)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}
