package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/sqb/logger"
)

const requestIDHeader = "X-Request-ID"

// setupHTTPRoutes configures all HTTP handlers
func (s *Server) setupHTTPRoutes() {
	mux := http.NewServeMux()
	mux.HandleFunc("/lsp", s.corsMiddleware(s.HandleGLSPWebSocket)) // LSP over WebSocket (completions, hover, semantic tokens, diagnostics)
	mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	mux.HandleFunc("/api/parse", s.corsMiddleware(s.HandleParse))             // Tokens, diagnostics and cursor state (POST)
	mux.HandleFunc("/api/completions", s.corsMiddleware(s.HandleCompletions)) // Key, value and keyword completions (POST)
	mux.HandleFunc("/api/hover", s.corsMiddleware(s.HandleHover))             // Hover text for the token under the cursor (POST)
	mux.HandleFunc("/api/keys", s.corsMiddleware(s.HandleKeys))               // Sectioned key registry (GET)
	mux.HandleFunc("/api/values", s.corsMiddleware(s.HandleValues))           // Value suggestions for a key (GET)
	mux.HandleFunc("/api/tag_values", s.corsMiddleware(s.HandleTagValues))    // Record observed tag values (POST)
	mux.HandleFunc("/api/sessions/", s.corsMiddleware(s.HandleSession))       // Session state and actions (GET/DELETE, POST /actions)
	mux.HandleFunc("/api/sessions", s.corsMiddleware(s.HandleSessions))       // Create an edit session (POST)
	s.mux = mux
}

// corsMiddleware adds CORS headers for allowed origins, answers preflight
// requests and tags the request context with a request ID for logging
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := logger.WithComponent(logger.WithRequestID(r.Context(), requestID), "server")
		r = r.WithContext(ctx)

		origin := r.Header.Get("Origin")
		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		start := time.Now()
		next(w, r)
		logger.LoggerFromContext(ctx).Debugw("Request served",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
		)
	}
}
