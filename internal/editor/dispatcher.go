package editor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// EventType is the kind of a host event.
type EventType string

const (
	EventClick EventType = "click"
	EventInput EventType = "input"
)

// Event is a user interaction reported by the host. Target is the data-node
// id of the element the interaction happened on.
type Event struct {
	Session string    `json:"session"`
	Target  string    `json:"target"`
	Type    EventType `json:"type"`
	Value   string    `json:"value,omitempty"`
}

// Dispatcher owns the sessions of one application and routes events to
// them. Sessions are keyed by id; binding a source with an id already
// registered replaces the old session.
type Dispatcher struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{sessions: make(map[string]*Session)}
}

// Register adds a session.
func (d *Dispatcher) Register(s *Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.sessions[s.ID()]; ok && old != s {
		old.Close()
	}
	d.sessions[s.ID()] = s
}

// Unregister removes a session and stops its pending work.
func (d *Dispatcher) Unregister(id string) {
	d.mu.Lock()
	s, ok := d.sessions[id]
	delete(d.sessions, id)
	d.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Session returns the session with the given id.
func (d *Dispatcher) Session(id string) (*Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns the registered session ids in sorted order.
func (d *Dispatcher) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.sessions))
	for id := range d.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of registered sessions.
func (d *Dispatcher) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// Dispatch routes ev to its session.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Action, error) {
	s, err := d.Session(ev.Session)
	if err != nil {
		return ActionNone, err
	}

	var action Action
	switch ev.Type {
	case EventClick:
		action, err = s.Click(ctx, ev.Target)
	case EventInput:
		action, err = s.Input(ev.Target, ev.Value)
	default:
		return ActionNone, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if err != nil {
		return action, err
	}

	if action != ActionNone && action != ActionEdit {
		log.Debug().
			Str("session", ev.Session).
			Str("target", ev.Target).
			Str("action", string(action)).
			Msg("Event dispatched")
	}
	return action, nil
}

// Close stops every session's pending work.
func (d *Dispatcher) Close() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.sessions {
		s.Close()
	}
}
