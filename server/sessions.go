package server

import (
	"net/http"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
	"github.com/teranos/sqb/search/editor"
	"github.com/teranos/sqb/search/lsp"
	"github.com/teranos/sqb/search/syntax"
)

// sessionView is the JSON form of an edit session
type sessionView struct {
	ID             string        `json:"id"`
	Query          string        `json:"query"`
	CommittedQuery string        `json:"committed_query"`
	Dirty          bool          `json:"dirty"`
	Focus          focusView     `json:"focus"`
	Tokens         []string      `json:"tokens"` // canonical text of each top-level token
	Valid          bool          `json:"valid"`
	Filters        []filterState `json:"filters"`
}

type focusView struct {
	Mode     string `json:"mode"`
	Index    int    `json:"index"`
	Position int    `json:"position"`
	Cursor   int    `json:"cursor"`
}

type filterState struct {
	Key    string             `json:"key"`
	Value  string             `json:"value"`
	State  string             `json:"state"`
	Reason syntax.InvalidCode `json:"reason,omitempty"`
}

func viewSession(id string, st editor.State) sessionView {
	tokens := st.Tokens()
	view := sessionView{
		ID:             id,
		Query:          st.Query,
		CommittedQuery: st.CommittedQuery,
		Dirty:          st.Dirty(),
		Focus: focusView{
			Mode:     st.Focus.Mode.String(),
			Index:    st.Focus.Index,
			Position: st.Focus.Position,
			Cursor:   st.Focus.Cursor,
		},
		Tokens:  make([]string, len(tokens)),
		Valid:   st.Parsed.Valid(),
		Filters: []filterState{},
	}
	for i, tok := range tokens {
		view.Tokens[i] = syntax.Canonical(tok)
	}
	for _, f := range st.Parsed.Filters() {
		view.Filters = append(view.Filters, filterState{
			Key:    f.Key,
			Value:  f.Value,
			State:  string(f.State),
			Reason: f.Reason,
		})
	}
	return view
}

// HandleSessions creates an edit session (POST /api/sessions)
func (s *Server) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req sessionRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	s.sessionsMu.Lock()
	if len(s.sessions) >= MaxSessions {
		s.sessionsMu.Unlock()
		s.logger.Warnw("Session limit reached, rejecting new session",
			"current_count", MaxSessions,
		)
		writeError(w, http.StatusServiceUnavailable, "too many open sessions")
		return
	}
	var session *editor.Session
	session = editor.NewSession(req.Query, s.env, func(query string) {
		s.logger.Infow("Search committed",
			logger.FieldSession, shortID(session.ID),
			logger.FieldQuery, query,
		)
	})
	s.sessions[session.ID] = session
	s.sessionsMu.Unlock()

	s.logger.Debugw("Session created", logger.FieldSession, shortID(session.ID))
	writeJSON(w, http.StatusCreated, viewSession(session.ID, session.State()))
}

// HandleSession serves one session:
//
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	POST   /api/sessions/{id}/actions
func (s *Server) HandleSession(w http.ResponseWriter, r *http.Request) {
	parts := extractPathParts(r.URL.Path, "/api/sessions/")
	id := parts[0]
	if id == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] != "actions") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	r = r.WithContext(logger.WithSessionID(r.Context(), id))

	s.sessionsMu.RLock()
	session, ok := s.sessions[id]
	s.sessionsMu.RUnlock()
	if !ok {
		writeErrorFromErr(w, errors.Wrapf(errors.ErrNotFound, "session %s", id))
		return
	}

	if len(parts) == 2 {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		s.handleSessionAction(w, r, session)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, viewSession(id, session.State()))
	case http.MethodDelete:
		s.sessionsMu.Lock()
		delete(s.sessions, id)
		s.sessionsMu.Unlock()
		logger.LoggerFromContext(r.Context()).Debugw("Session deleted")
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request, session *editor.Session) {
	var req editor.ActionRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	action, err := req.Action()
	if err != nil {
		writeErrorFromErr(w, err)
		return
	}

	st, err := session.Dispatch(action)
	if err != nil {
		if !errors.IsEditRejected(err) {
			logger.LoggerFromContext(r.Context()).Debugw("Session action failed",
				logger.FieldAction, action.String(),
				logger.FieldError, err,
			)
		}
		writeErrorFromErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(session.ID, st))
}

// lspCompletionRequest adapts an HTTP parse request to the language service
func lspCompletionRequest(req parseRequest) lsp.CompletionRequest {
	return lsp.CompletionRequest{
		Query:   req.Query,
		Cursor:  req.cursor(),
		Trigger: "manual",
	}
}
