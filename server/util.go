package server

import (
	"net/http"
	"strings"
)

// checkOrigin validates a request origin against the configured allowed origins
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Direct clients (CLI tools, tests) send no origin
	if origin == "" {
		return true
	}

	// Prefix matching allows any port number
	for _, allowed := range s.cfg.GetServerAllowedOrigins() {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}
