package editor

import (
	"context"
	"sync"

	"golang.org/x/net/html"
)

// Attributes read from a Source.
const (
	AttrSchema = "data-schema"
	AttrTitle  = "data-title"
)

// Source is the host text field a session edits.
type Source interface {
	ID() string
	Name() string
	Value() string
	SetValue(string) error
	Attr(key string) (string, bool)
}

// Reader is implemented by sources whose text can fail to load. Bind reads
// through it when available and refuses to bind, or seed, a field it could
// not read.
type Reader interface {
	ReadValue() (string, error)
}

func readSource(source Source) (string, error) {
	if r, ok := source.(Reader); ok {
		return r.ReadValue()
	}
	return source.Value(), nil
}

// Field is an in-memory Source.
type Field struct {
	id    string
	name  string
	value string
	attrs map[string]string
	mu    sync.RWMutex
}

// NewField creates an in-memory text field.
func NewField(id, name, value string) *Field {
	return &Field{id: id, name: name, value: value, attrs: make(map[string]string)}
}

// WithAttr sets an attribute and returns the field for chaining.
func (f *Field) WithAttr(key, val string) *Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs[key] = val
	return f
}

func (f *Field) ID() string   { return f.id }
func (f *Field) Name() string { return f.name }

func (f *Field) Value() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

func (f *Field) SetValue(v string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	return nil
}

func (f *Field) Attr(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.attrs[key]
	return v, ok
}

// Popup is what a session hands to its Presenter on Open.
type Popup struct {
	SessionID   string
	Title       string
	Body        *html.Node
	OKLabel     string
	CancelLabel string
}

// Presenter shows and hides the editing surface. The session calls Present
// on Open and Dismiss once the popup closes through Save or Cancel.
type Presenter interface {
	Present(p Popup) error
	Dismiss(sessionID string)
}

// Confirmer asks the user a yes/no question and waits for the answer.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}
