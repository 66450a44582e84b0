package jsonedit

// ValidationEvent is emitted after every live validation pass of an editing
// session, once edits have been quiet for the configured debounce interval.
type ValidationEvent struct {
	// SessionID identifies the session that was validated.
	SessionID string `json:"session_id"`
	// Violations is the full list of violations; empty when the document is
	// valid.
	Violations []Violation `json:"violations"`
}

// Listener receives validation events from editing sessions.
//
// Implementations must be safe for use from the session's debounce
// goroutine and should return quickly.
type Listener interface {
	Validated(event ValidationEvent)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(event ValidationEvent)

// Validated calls f(event).
func (f ListenerFunc) Validated(event ValidationEvent) { f(event) }

// WithValidationListener registers a listener for the live validation of
// sessions opened by EditFile. The listener runs once after the session
// opens and again each time edits go quiet, until Save or Cancel closes
// the session.
//
// Example:
//
//	listener := ListenerFunc(func(ev ValidationEvent) {
//		fmt.Printf("%d violation(s)\n", len(ev.Violations))
//	})
//	session, err := EditFile("prefs.json", schema, WithValidationListener(listener))
func WithValidationListener(listener Listener) Option {
	return func(s *settings) { s.listener = listener }
}
