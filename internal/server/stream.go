package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lacquerai/jsonedit/internal/editor"
)

var errClientGone = errors.New("stream client disconnected")

// streamMessage is what a stream client sends. Click and input messages
// carry an event; confirm messages answer a prompt by id.
type streamMessage struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
	ID     string `json:"id,omitempty"`
	OK     bool   `json:"ok,omitempty"`
}

// client is one WebSocket connection watching a session. It doubles as the
// session's Confirmer: prompts go out as confirm messages and the read loop
// resolves them.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	status  atomic.Pointer[SessionStatus]

	pendingMu sync.Mutex
	pending   map[string]chan bool
	seq       int

	done chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:    conn,
		pending: make(map[string]chan bool),
		done:    make(chan struct{}),
	}
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) send(msg map[string]any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode stream message: %w", err)
	}
	return c.write(data)
}

// Confirm implements editor.Confirmer.
func (c *client) Confirm(ctx context.Context, message string) (bool, error) {
	c.pendingMu.Lock()
	c.seq++
	id := strconv.Itoa(c.seq)
	answer := make(chan bool, 1)
	c.pending[id] = answer
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.send(map[string]any{"type": "confirm", "id": id, "message": message}); err != nil {
		return false, err
	}

	select {
	case ok := <-answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-c.done:
		return false, errClientGone
	}
}

func (c *client) resolve(id string, ok bool) {
	c.pendingMu.Lock()
	answer, exists := c.pending[id]
	c.pendingMu.Unlock()
	if !exists {
		log.Debug().Str("confirm", id).Msg("Answer for unknown prompt")
		return
	}
	select {
	case answer <- ok:
	default:
	}
}

// streamField serves the live edit stream of an open field.
func (s *Server) streamField(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	status, exists := s.manager.Get(id)
	if !exists {
		http.Error(w, fmt.Sprintf("Session '%s' not found", id), http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	c := newClient(conn)
	status.addClient(c)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan streamMessage, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.handleEvents(ctx, c, id, events)
	}()

	defer func() {
		close(c.done)
		cancel()
		close(events)
		wg.Wait()
		if current := c.status.Load(); current != nil {
			current.removeClient(c)
		}
		log.Debug().Str("session", id).Msg("Stream client disconnected")
	}()

	// Current state first
	if out, err := status.Session().HTML(); err == nil {
		c.send(map[string]any{"type": "html", "session": id, "html": out})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(map[string]any{"type": "error", "message": fmt.Sprintf("Invalid JSON: %v", err)})
			continue
		}

		switch msg.Type {
		case "confirm":
			c.resolve(msg.ID, msg.OK)
		case string(editor.EventClick), string(editor.EventInput):
			select {
			case events <- msg:
			default:
				c.send(map[string]any{"type": "error", "message": "too many pending events"})
			}
		default:
			c.send(map[string]any{"type": "error", "message": fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

// handleEvents applies events in arrival order. It runs apart from the read
// loop so a remove can wait for its confirm answer.
func (s *Server) handleEvents(ctx context.Context, c *client, id string, events <-chan streamMessage) {
	for msg := range events {
		ev := editor.Event{
			Session: id,
			Target:  msg.Target,
			Type:    editor.EventType(msg.Type),
			Value:   msg.Value,
		}

		actionCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		action, err := s.dispatcher.Dispatch(actionCtx, ev)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("session", id).Str("target", msg.Target).Msg("Event failed")
			c.send(map[string]any{"type": "error", "target": msg.Target, "message": err.Error()})
			continue
		}

		c.send(map[string]any{"type": "action", "target": msg.Target, "action": string(action)})
		if action == editor.ActionNone || action == editor.ActionEdit {
			continue
		}

		sess, err := s.dispatcher.Session(id)
		if err != nil {
			continue
		}
		if out, err := sess.HTML(); err == nil {
			c.send(map[string]any{"type": "html", "session": id, "html": out})
		}
	}
}
