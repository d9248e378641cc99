package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
	"github.com/teranos/sqb/search/storage"
	"github.com/teranos/sqb/version"
)

// HandleHealth returns a simple health check response with version info
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()
	s.sessionsMu.RLock()
	sessionCount := len(s.sessions)
	s.sessionsMu.RUnlock()

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		State:     stateString(s.getState()),
		Version:   versionInfo.Version,
		Commit:    versionInfo.CommitHash,
		BuildTime: versionInfo.BuildTime,
		Keys:      s.Registry().Len(),
		Sessions:  sessionCount,
	})
}

// HandleParse returns semantic tokens, diagnostics and the cursor state of a query
func (s *Server) HandleParse(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req parseRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	resp, err := s.langService.Parse(r.Context(), req.Query, req.cursor())
	if err != nil {
		writeErrorFromErr(w, err)
		return
	}

	logger.LoggerFromContext(r.Context()).Debugw("Query parsed",
		logger.FieldQuery, req.Query,
		logger.FieldTokenCount, len(resp.Tokens),
		"diagnostics", len(resp.Diagnostics),
	)
	writeJSON(w, http.StatusOK, resp)
}

// HandleCompletions returns completions for the cursor position
func (s *Server) HandleCompletions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req parseRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	items, err := s.langService.GetCompletions(r.Context(), lspCompletionRequest(req))
	if err != nil {
		writeErrorFromErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleHover describes the token under the cursor; 204 between tokens
func (s *Server) HandleHover(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req parseRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	hover, err := s.langService.Hover(r.Context(), req.Query, req.cursor())
	if err != nil {
		writeErrorFromErr(w, err)
		return
	}
	if hover == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, hover)
}

// HandleKeys returns the key registry grouped into sections
func (s *Server) HandleKeys(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	reg := s.Registry()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sections": reg.Sections(),
		"keys":     reg.Keys(),
	})
}

// HandleValues returns ranked value suggestions for ?key= filtered by ?query=
func (s *Server) HandleValues(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if _, ok := s.keys.Lookup(key); !ok {
		writeErrorFromErr(w, errors.Wrapf(errors.ErrNotFound, "unknown filter key %q", key))
		return
	}

	values := s.values.Lookup(r.Context(), key, r.URL.Query().Get("query"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":    key,
		"values": values,
	})
}

// HandleTagValues records observed tag values and rebuilds the key registry
func (s *Server) HandleTagValues(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req tagValuesRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if len(req.Observations) == 0 {
		writeError(w, http.StatusBadRequest, "observations are required")
		return
	}

	now := time.Now()
	obs := make([]storage.Observation, len(req.Observations))
	for i, o := range req.Observations {
		seenAt := o.SeenAt
		if seenAt.IsZero() {
			seenAt = now
		}
		obs[i] = storage.Observation{Key: o.Key, Value: o.Value, SeenAt: seenAt}
	}

	if err := s.store.RecordBatch(r.Context(), req.Dataset, obs); err != nil {
		writeErrorFromErr(w, err)
		return
	}
	reg, err := s.RebuildKeys(r.Context())
	if err != nil {
		writeErrorFromErr(w, err)
		return
	}

	logger.LoggerFromContext(r.Context()).Infow("Tag values recorded",
		logger.FieldDataset, req.Dataset,
		logger.FieldCount, len(obs),
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recorded": len(obs),
		"keys":     reg.Len(),
	})
}
