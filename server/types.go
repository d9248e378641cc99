package server

import "time"

const (
	// ShutdownTimeout is how long to wait for graceful shutdown
	ShutdownTimeout = 10 * time.Second

	// MaxSessions caps open edit sessions
	MaxSessions = 1000

	// readHeaderTimeout bounds slow clients sending headers
	readHeaderTimeout = 10 * time.Second
)

// ServerState represents the server lifecycle state
type ServerState int

const (
	ServerStateRunning  ServerState = iota // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

// parseRequest is the body of POST /api/parse, /api/completions and /api/hover
type parseRequest struct {
	Query  string `json:"query"`
	Cursor *int   `json:"cursor,omitempty"` // byte offset; defaults to the end of the query
}

// cursor returns the requested cursor, or the end of the query
func (r parseRequest) cursor() int {
	if r.Cursor == nil {
		return len(r.Query)
	}
	return *r.Cursor
}

// tagValuesRequest is the body of POST /api/tag_values
type tagValuesRequest struct {
	Dataset      string             `json:"dataset"`
	Observations []observationInput `json:"observations"`
}

type observationInput struct {
	Key    string    `json:"key"`
	Value  string    `json:"value"`
	SeenAt time.Time `json:"seen_at,omitempty"`
}

// sessionRequest is the body of POST /api/sessions
type sessionRequest struct {
	Query string `json:"query"`
}

// healthResponse is the body of GET /health
type healthResponse struct {
	Status    string `json:"status"`
	State     string `json:"server_state"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Keys      int    `json:"keys"`
	Sessions  int    `json:"sessions"`
}
