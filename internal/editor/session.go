package editor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stoewer/go-strcase"
	"golang.org/x/net/html"

	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/textdiff"
	"github.com/lacquerai/jsonedit/internal/validate"
	"github.com/lacquerai/jsonedit/internal/value"
)

var (
	// ErrInvalidJSON is returned by Bind when the source text does not parse.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNotBound is returned when a session has no document to work on.
	ErrNotBound = errors.New("json is not set")
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTargetNotFound is returned when an event names no element.
	ErrTargetNotFound = errors.New("target element not found")
)

// State is the lifecycle position of a session.
type State int

const (
	Unbound State = iota
	Bound
	Rendered
	Opened
	Closed
)

func (s State) String() string {
	switch s {
	case Bound:
		return "bound"
	case Rendered:
		return "rendered"
	case Opened:
		return "opened"
	case Closed:
		return "closed"
	default:
		return "unbound"
	}
}

// Report is the outcome of a validation pass.
type Report struct {
	SessionID string
	Errors    []validate.Error
	Messages  []string
}

// SaveResult describes what Save did.
type SaveResult struct {
	Saved    bool
	Text     string
	Errors   []validate.Error
	Messages []string
	Diff     textdiff.Diff
}

// Session binds one Source to an optional schema and owns the rendered
// editor subtree. All mutations of the subtree go through the session lock.
type Session struct {
	id     string
	title  string
	source Source
	schema *schema.Node
	config Config

	strings   *i18n.Table
	validator *validate.Validator
	now       func() time.Time
	observer  func(Report)
	confirmer Confirmer

	mu        sync.Mutex
	state     State
	doc       *value.Value
	root      *html.Node
	nextNode  int
	presenter Presenter
	debounce  *debouncer
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithStrings sets the label table.
func WithStrings(t *i18n.Table) SessionOption {
	return func(s *Session) { s.strings = t }
}

// WithClock sets the time source used to prefill empty date and time
// controls.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithObserver registers a callback run after every debounced validation.
func WithObserver(fn func(Report)) SessionOption {
	return func(s *Session) { s.observer = fn }
}

// WithConfirmer sets who answers removal confirmations. Without one every
// removal is declined.
func WithConfirmer(c Confirmer) SessionOption {
	return func(s *Session) { s.confirmer = c }
}

// Bind parses the source text and prepares a session. When the text is
// empty and a schema is given, the source is first seeded with the schema's
// default document. A parse failure leaves the source untouched and returns
// an error wrapping ErrInvalidJSON. A source that cannot be read is left
// untouched too.
func Bind(source Source, sch *schema.Node, cfg Config, opts ...SessionOption) (*Session, error) {
	s := &Session{
		id:     sessionID(source),
		source: source,
		schema: sch,
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.strings == nil {
		s.strings = i18n.New()
	}
	if s.id == "" {
		s.id = s.strings.UI("unnamed")
	}
	if s.config.Debounce <= 0 {
		s.config.Debounce = DefaultDebounce
	}
	s.validator = validate.New(validate.Options{
		LegacyZeroBounds: cfg.LegacyZeroBounds,
		PathStyle:        cfg.PathStyle,
		Strings:          s.strings,
	})
	s.title = popupTitle(source, s.strings)
	s.debounce = newDebouncer(s.config.Debounce, s.revalidate)

	raw, err := readSource(source)
	if err != nil {
		log.Error().Err(err).Str("session", s.id).Msg("Failed to read field")
		return nil, fmt.Errorf("failed to read %s: %w", s.id, err)
	}

	text := strings.TrimSpace(raw)
	if text == "" && sch != nil {
		text = value.Encode(schema.DefaultValue(sch), value.SaveIndent)
		if err := source.SetValue(text); err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", s.id, err)
		}
		log.Debug().Str("session", s.id).Msg("Seeded empty field from schema")
	}

	doc, err := value.ParseString(text)
	if err != nil {
		log.Error().
			Err(err).
			Str("session", s.id).
			Msg(s.strings.Get(i18n.Error, "invalidJson", i18n.Params{"error": err.Error()}))
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidJSON, s.id, err)
	}

	s.doc = doc
	s.state = Bound

	log.Debug().
		Str("session", s.id).
		Bool("schema", sch != nil).
		Msg("Field bound")

	return s, nil
}

func sessionID(source Source) string {
	if id := source.ID(); id != "" {
		return id
	}
	return source.Name()
}

// popupTitle uses the data-title attribute, else a title derived from the
// field id, else the generic label.
func popupTitle(source Source, table *i18n.Table) string {
	if t, ok := source.Attr(AttrTitle); ok && strings.TrimSpace(t) != "" {
		return t
	}
	if id := sessionID(source); id != "" {
		words := strings.ReplaceAll(strcase.SnakeCase(id), "_", " ")
		if words != "" {
			return table.UI("popupTitle") + ": " + words
		}
	}
	return table.UI("popupTitle")
}

// ID returns the session id: the source id, else its name, else the
// unnamed label.
func (s *Session) ID() string { return s.id }

// Title is the popup title.
func (s *Session) Title() string { return s.title }

// Schema returns the bound schema, possibly nil.
func (s *Session) Schema() *schema.Node { return s.schema }

// Config returns the session settings.
func (s *Session) Config() Config { return s.config }

// Source returns the bound text field.
func (s *Session) Source() Source { return s.source }

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Render builds the editor subtree. Rendering an already rendered session
// keeps the existing subtree, edits included.
func (s *Session) Render() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked()
}

func (s *Session) renderLocked() error {
	switch s.state {
	case Unbound:
		return ErrNotBound
	case Bound:
		s.root = s.buildRoot()
		s.state = Rendered
	}
	return nil
}

// HTML serializes the current editor subtree.
func (s *Session) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == nil {
		return "", ErrNotBound
	}
	return renderHTML(s.root), nil
}

// Open renders if needed and hands the subtree to p along with the Done and
// Cancel labels. Live validation is scheduled right away when a schema is
// bound.
func (s *Session) Open(p Presenter) error {
	s.mu.Lock()
	if err := s.renderLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.presenter = p
	s.state = Opened
	popup := Popup{
		SessionID:   s.id,
		Title:       s.title,
		Body:        s.root,
		OKLabel:     s.strings.UI("popupOkButtonLabel"),
		CancelLabel: s.strings.UI("popupCancelButtonLabel"),
	}
	s.mu.Unlock()

	if p != nil {
		if err := p.Present(popup); err != nil {
			return fmt.Errorf("failed to present %s: %w", s.id, err)
		}
	}
	if s.schema != nil {
		s.debounce.Schedule()
	}

	log.Debug().Str("session", s.id).Msg("Editor opened")
	return nil
}

// Extract reads the current document out of the rendered subtree.
func (s *Session) Extract() (*value.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == nil {
		return nil, ErrNotBound
	}
	return extractTree(s.root), nil
}

// Validate extracts the document and checks it against the bound schema,
// redrawing the error panel.
func (s *Session) Validate() (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == nil {
		return Report{}, ErrNotBound
	}
	return s.validateLocked(), nil
}

func (s *Session) validateLocked() Report {
	report := Report{SessionID: s.id}
	if s.schema != nil {
		doc := extractTree(s.root)
		report.Errors = s.validator.Validate(doc, s.schema)
		report.Messages = s.validator.Messages(report.Errors)
	}
	s.drawErrors(report.Errors)
	return report
}

func (s *Session) drawErrors(errs []validate.Error) {
	lines := make([][2]string, len(errs))
	for i, e := range errs {
		lines[i] = [2]string{e.Path.Format(s.config.PathStyle), e.Message}
	}
	s.renderErrors(lines)
}

// revalidate is the debounced live check. It only runs while open.
func (s *Session) revalidate() {
	s.mu.Lock()
	if s.state != Opened || s.root == nil {
		s.mu.Unlock()
		return
	}
	report := s.validateLocked()
	observer := s.observer
	s.mu.Unlock()

	log.Debug().
		Str("session", s.id).
		Int("errors", len(report.Errors)).
		Msg("Live validation")

	if observer != nil {
		observer(report)
	}
}

// Save extracts the document, validates it when a schema is bound, writes
// it into the source with four-space indentation and closes the popup.
// Violations are shown but do not stop the save unless the configuration
// blocks invalid saves.
func (s *Session) Save() (SaveResult, error) {
	s.mu.Lock()
	if s.state != Opened && s.state != Rendered && s.state != Closed {
		s.mu.Unlock()
		return SaveResult{}, ErrNotBound
	}
	if s.root == nil {
		s.mu.Unlock()
		return SaveResult{}, ErrNotBound
	}

	doc := extractTree(s.root)
	report := s.validateLocked()
	result := SaveResult{Errors: report.Errors, Messages: report.Messages}

	if s.config.BlockInvalidSave && len(report.Errors) > 0 {
		s.mu.Unlock()
		log.Info().
			Str("session", s.id).
			Int("errors", len(report.Errors)).
			Msg("Save blocked by validation errors")
		return result, nil
	}

	before := s.source.Value()
	result.Text = value.Encode(doc, value.SaveIndent)
	if err := s.source.SetValue(result.Text); err != nil {
		s.mu.Unlock()
		return result, fmt.Errorf("failed to write %s: %w", s.id, err)
	}
	result.Saved = true
	result.Diff = textdiff.Compute(before, result.Text)
	s.doc = doc
	presenter := s.closeLocked()
	s.mu.Unlock()

	if presenter != nil {
		presenter.Dismiss(s.id)
	}

	log.Info().
		Str("session", s.id).
		Int("errors", len(result.Errors)).
		Int("insertions", result.Diff.Insertions).
		Int("deletions", result.Diff.Deletions).
		Msg("Field saved")

	return result, nil
}

// Cancel closes the popup without touching the source text.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.state == Unbound {
		s.mu.Unlock()
		return ErrNotBound
	}
	presenter := s.closeLocked()
	s.mu.Unlock()

	if presenter != nil {
		presenter.Dismiss(s.id)
	}
	log.Debug().Str("session", s.id).Msg("Editor cancelled")
	return nil
}

func (s *Session) closeLocked() Presenter {
	s.debounce.Stop()
	p := s.presenter
	s.presenter = nil
	if s.state == Opened {
		s.state = Closed
	}
	return p
}

// Close stops pending work. The session can still be reopened.
func (s *Session) Close() {
	s.debounce.Stop()
}

// SetConfirmer replaces the confirmer, e.g. when a new client connects.
func (s *Session) SetConfirmer(c Confirmer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmer = c
}

// SetObserver replaces the validation observer.
func (s *Session) SetObserver(fn func(Report)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}
