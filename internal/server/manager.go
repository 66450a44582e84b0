package server

import (
	"bytes"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/lacquerai/jsonedit/internal/editor"
	"github.com/lacquerai/jsonedit/internal/path"
	"github.com/lacquerai/jsonedit/internal/validate"
)

// SessionStatus tracks one bound field and the stream clients watching it.
type SessionStatus struct {
	ID       string    `json:"id"`
	Schema   string    `json:"schema,omitempty"`
	Open     bool      `json:"open"`
	OpenedAt time.Time `json:"opened_at"`
	Saves    int       `json:"saves"`

	session *editor.Session
	style   path.Style

	clients   map[*client]bool
	clientsMu sync.RWMutex
}

// Session returns the editor session.
func (st *SessionStatus) Session() *editor.Session { return st.session }

func (st *SessionStatus) addClient(c *client) {
	st.clientsMu.Lock()
	st.clients[c] = true
	c.status.Store(st)
	st.clientsMu.Unlock()
	st.session.SetConfirmer(c)
}

// removeClient drops c and hands confirmation to another client, if any.
func (st *SessionStatus) removeClient(c *client) {
	st.clientsMu.Lock()
	delete(st.clients, c)
	var next editor.Confirmer
	for other := range st.clients {
		next = other
		break
	}
	st.clientsMu.Unlock()
	st.session.SetConfirmer(next)
}

func (st *SessionStatus) clientCount() int {
	st.clientsMu.RLock()
	defer st.clientsMu.RUnlock()
	return len(st.clients)
}

// broadcast sends msg to every stream client of the session.
func (st *SessionStatus) broadcast(msg map[string]any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("session", st.ID).Msg("Failed to encode stream message")
		return
	}

	st.clientsMu.RLock()
	defer st.clientsMu.RUnlock()
	for c := range st.clients {
		if err := c.write(data); err != nil {
			log.Debug().Err(err).Str("session", st.ID).Msg("Stream write failed")
		}
	}
}

// Present implements editor.Presenter over the session's streams.
func (st *SessionStatus) Present(p editor.Popup) error {
	st.broadcast(map[string]any{
		"type":         "open",
		"session":      p.SessionID,
		"title":        p.Title,
		"ok_label":     p.OKLabel,
		"cancel_label": p.CancelLabel,
		"html":         renderNode(p.Body),
	})
	return nil
}

// Dismiss implements editor.Presenter.
func (st *SessionStatus) Dismiss(sessionID string) {
	st.broadcast(map[string]any{"type": "close", "session": sessionID})
}

func renderNode(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// SessionManager tracks bound sessions and reports their activity.
type SessionManager struct {
	sessions map[string]*SessionStatus
	mu       sync.RWMutex

	// Metrics
	sessionsOpened   prometheus.Counter
	activeSessions   prometheus.Gauge
	saves            *prometheus.CounterVec
	validationRuns   prometheus.Counter
	validationErrors prometheus.Histogram
}

// NewSessionManager creates a manager registered with the default
// prometheus registry.
func NewSessionManager() *SessionManager {
	return NewSessionManagerWithRegistry(prometheus.DefaultRegisterer)
}

// NewSessionManagerWithRegistry creates a manager whose metrics go to
// registerer. A nil registerer keeps the metrics unregistered.
func NewSessionManagerWithRegistry(registerer prometheus.Registerer) *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*SessionStatus),

		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jsonedit_sessions_opened_total",
			Help: "Total number of editor popups opened",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jsonedit_sessions_active",
			Help: "Number of editor popups currently open",
		}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonedit_saves_total",
			Help: "Save attempts by outcome",
		}, []string{"status"}),
		validationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jsonedit_validation_runs_total",
			Help: "Total number of live validation passes",
		}),
		validationErrors: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jsonedit_validation_errors",
			Help:    "Violations found per validation pass",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
	}

	if registerer != nil {
		registerer.MustRegister(m.sessionsOpened)
		registerer.MustRegister(m.activeSessions)
		registerer.MustRegister(m.saves)
		registerer.MustRegister(m.validationRuns)
		registerer.MustRegister(m.validationErrors)
	}

	return m
}

// Track starts tracking a session, wiring its live validation to the
// session's streams. Tracking an id twice replaces the old entry.
func (m *SessionManager) Track(s *editor.Session, schemaName string) *SessionStatus {
	st := &SessionStatus{
		ID:      s.ID(),
		Schema:  schemaName,
		session: s,
		style:   s.Config().PathStyle,
		clients: make(map[*client]bool),
	}
	s.SetObserver(func(r editor.Report) {
		m.recordValidation(r)
		st.broadcast(errorsMessage(r.SessionID, r.Errors, st.style))
	})

	m.mu.Lock()
	old, ok := m.sessions[st.ID]
	if ok && old.Open {
		m.activeSessions.Dec()
	}
	m.sessions[st.ID] = st
	m.mu.Unlock()

	// Streams follow the field across rebinds.
	if ok {
		old.clientsMu.Lock()
		for c := range old.clients {
			st.clients[c] = true
			c.status.Store(st)
		}
		old.clients = make(map[*client]bool)
		old.clientsMu.Unlock()
		for c := range st.clients {
			s.SetConfirmer(c)
			break
		}
	}

	return st
}

// Get returns the status of a tracked session.
func (m *SessionManager) Get(id string) (*SessionStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[id]
	return st, ok
}

// List returns every tracked session.
func (m *SessionManager) List() []*SessionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*SessionStatus, 0, len(m.sessions))
	for _, st := range m.sessions {
		out = append(out, st)
	}
	return out
}

// Opened records that a session's popup is showing.
func (m *SessionManager) Opened(st *SessionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !st.Open {
		st.Open = true
		m.activeSessions.Inc()
	}
	st.OpenedAt = time.Now()
	m.sessionsOpened.Inc()
}

// Closed records that a session's popup went away.
func (m *SessionManager) Closed(st *SessionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.Open {
		st.Open = false
		m.activeSessions.Dec()
	}
}

// Saved records a save attempt.
func (m *SessionManager) Saved(st *SessionStatus, result editor.SaveResult) {
	status := "saved"
	if !result.Saved {
		status = "blocked"
	}
	m.saves.WithLabelValues(status).Inc()
	m.validationErrors.Observe(float64(len(result.Errors)))

	if result.Saved {
		m.mu.Lock()
		st.Saves++
		m.mu.Unlock()
		m.Closed(st)
	}
}

// Failed records a save that could not write the field.
func (m *SessionManager) Failed() {
	m.saves.WithLabelValues("failed").Inc()
}

func (m *SessionManager) recordValidation(r editor.Report) {
	m.validationRuns.Inc()
	m.validationErrors.Observe(float64(len(r.Errors)))
}

// ActiveSessions returns the number of open popups.
func (m *SessionManager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, st := range m.sessions {
		if st.Open {
			n++
		}
	}
	return n
}

// Close stops pending work and disconnects every stream.
func (m *SessionManager) Close() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, st := range m.sessions {
		st.session.Close()
		st.clientsMu.RLock()
		for c := range st.clients {
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
		}
		st.clientsMu.RUnlock()
	}
}

// errorDetail is the wire form of one violation.
type errorDetail struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func errorDetails(errs []validate.Error, style path.Style) []errorDetail {
	out := make([]errorDetail, len(errs))
	for i, e := range errs {
		out[i] = errorDetail{Path: e.Path.Format(style), Kind: string(e.Kind), Message: e.Message}
	}
	return out
}

func errorsMessage(sessionID string, errs []validate.Error, style path.Style) map[string]any {
	return map[string]any{
		"type":     "errors",
		"session":  sessionID,
		"valid":    len(errs) == 0,
		"errors":   errorDetails(errs, style),
		"messages": validate.Messages(errs, style),
	}
}
