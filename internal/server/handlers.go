package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/lacquerai/jsonedit/internal/editor"
	"github.com/lacquerai/jsonedit/internal/i18n"
	"github.com/lacquerai/jsonedit/internal/schema"
	"github.com/lacquerai/jsonedit/internal/store"
	"github.com/lacquerai/jsonedit/internal/validate"
	"github.com/lacquerai/jsonedit/internal/value"
)

// HTTP Handlers

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

// listSchemas returns the registered schemas
func (s *Server) listSchemas(w http.ResponseWriter, r *http.Request) {
	schemas := make(map[string]any)

	for _, name := range s.schemas.List() {
		node, _ := s.schemas.Lookup(name)
		schemas[name] = map[string]any{
			"title":       node.Title,
			"description": node.Description,
			"type":        node.Type(),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"schemas": schemas,
	})
}

// getSchema returns the source document of one schema
func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	node, err := s.schemas.Get(name)
	if err != nil {
		http.Error(w, fmt.Sprintf("Schema '%s' not found", name), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, value.Encode(node.Source(), "  "))
}

// listFields returns the stored fields and their session state
func (s *Server) listFields(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	fields := make(map[string]any, len(ids))
	for _, id := range ids {
		meta, err := s.store.Meta(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		entry := map[string]any{
			"schema": meta.Schema,
			"title":  meta.Title,
			"open":   false,
		}
		if st, ok := s.manager.Get(id); ok {
			entry["open"] = st.Session().State() == editor.Opened
			entry["state"] = st.Session().State().String()
		}
		fields[id] = entry
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fields": fields,
	})
}

// fieldError maps store errors to HTTP statuses.
func fieldError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrFieldNotFound):
		http.Error(w, fmt.Sprintf("Field '%s' not found", id), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// openField binds a stored field and opens its editor. An editor that is
// already open is returned as is. A tracked editor that was closed is
// reopened with its subtree, so edits made before a cancel survive. Only
// untracked fields are bound from the store.
func (s *Server) openField(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	field, err := s.store.Field(id)
	if err != nil {
		fieldError(w, id, err)
		return
	}

	if st, ok := s.manager.Get(id); ok {
		s.reopenField(w, st)
		return
	}

	sch, schemaName := s.resolveSchema(field)
	sess, err := editor.Bind(field, sch, s.config.Editor, editor.WithStrings(s.strings))
	if err != nil {
		if errors.Is(err, editor.ErrInvalidJSON) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": s.strings.Get(i18n.Error, "invalidJson", i18n.Params{"error": err.Error()}),
				"field": id,
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	st := s.manager.Track(sess, schemaName)
	s.dispatcher.Register(sess)

	if err := sess.Open(st); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.manager.Opened(st)

	log.Info().
		Str("field", id).
		Str("schema", schemaName).
		Msg("Editor opened")

	s.writeSession(w, http.StatusOK, st)
}

func (s *Server) reopenField(w http.ResponseWriter, st *SessionStatus) {
	sess := st.Session()
	if sess.State() != editor.Opened {
		if err := sess.Open(st); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.manager.Opened(st)
		log.Info().Str("field", st.ID).Msg("Editor reopened")
	}
	s.writeSession(w, http.StatusOK, st)
}

// resolveSchema looks up the schema named by the field's data-schema
// attribute. A miss binds without a schema.
func (s *Server) resolveSchema(field editor.Source) (*schema.Node, string) {
	name, ok := field.Attr(editor.AttrSchema)
	if !ok {
		return nil, ""
	}
	node, found := s.schemas.Lookup(name)
	if !found {
		log.Warn().Str("field", field.ID()).Str("schema", name).Msg("Schema not registered, editing without one")
		return nil, name
	}
	return node, name
}

func (s *Server) writeSession(w http.ResponseWriter, code int, st *SessionStatus) {
	sess := st.Session()
	out, err := sess.HTML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, code, map[string]any{
		"id":     sess.ID(),
		"title":  sess.Title(),
		"schema": st.Schema,
		"state":  sess.State().String(),
		"html":   out,
	})
}

func (s *Server) trackedSession(w http.ResponseWriter, id string) (*SessionStatus, bool) {
	st, ok := s.manager.Get(id)
	if !ok {
		http.Error(w, fmt.Sprintf("Session '%s' not found", id), http.StatusNotFound)
		return nil, false
	}
	return st, true
}

// saveField writes the edited document back into the field
func (s *Server) saveField(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, ok := s.trackedSession(w, id)
	if !ok {
		return
	}

	result, err := st.Session().Save()
	if err != nil {
		if errors.Is(err, editor.ErrNotBound) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.manager.Failed()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.manager.Saved(st, result)

	code := http.StatusOK
	if !result.Saved {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, map[string]any{
		"saved":    result.Saved,
		"text":     result.Text,
		"messages": result.Messages,
		"errors":   errorDetails(result.Errors, st.style),
		"diff": map[string]any{
			"changed":    result.Diff.Changed(),
			"insertions": result.Diff.Insertions,
			"deletions":  result.Diff.Deletions,
			"unified":    result.Diff.Unified(3),
		},
	})
}

// cancelField closes the editor without writing
func (s *Server) cancelField(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, ok := s.trackedSession(w, id)
	if !ok {
		return
	}

	if err := st.Session().Cancel(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.manager.Closed(st)

	writeJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"state": st.Session().State().String(),
	})
}

// fieldValue returns the stored text of a field
func (s *Server) fieldValue(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	field, err := s.store.Field(id)
	if err != nil {
		fieldError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"schema": field.Meta().Schema,
		"value":  field.Value(),
	})
}

// validateDocument checks a document against a registered schema without
// binding a field
func (s *Server) validateDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Schema   string          `json:"schema"`
		Document json.RawMessage `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Document) == 0 {
		http.Error(w, "document is required", http.StatusBadRequest)
		return
	}

	node, err := s.schemas.Get(req.Schema)
	if err != nil {
		http.Error(w, fmt.Sprintf("Schema '%s' not found", req.Schema), http.StatusNotFound)
		return
	}

	doc, err := value.Parse(req.Document)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	cfg := s.config.Editor
	v := validate.New(validate.Options{
		LegacyZeroBounds: cfg.LegacyZeroBounds,
		PathStyle:        cfg.PathStyle,
		Strings:          s.strings,
	})
	errs := v.Validate(doc, node)

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":    len(errs) == 0,
		"errors":   errorDetails(errs, cfg.PathStyle),
		"messages": v.Messages(errs),
	})
}

// healthCheck returns server health status
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"schemas_loaded":  s.schemas.Count(),
		"sessions":        s.dispatcher.Count(),
		"active_sessions": s.manager.ActiveSessions(),
		"timestamp":       time.Now(),
	})
}
