package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teranos/sqb/errors"
)

// getState returns the current server state
func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

// setState atomically updates the server state
func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

// stateString returns human-readable state name
func stateString(state ServerState) string {
	switch state {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Start listens on port and serves until Stop is called.
// Port 0 picks a free port; ready, when non-nil, receives the bound address.
func (s *Server) Start(port int, ready func(addr string)) error {
	if err := s.watchKeysFile(); err != nil {
		// The registry still works from stored tags; only live reload is lost
		s.logger.Warnw("Keys file reload disabled", "error", err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errors.Wrapf(err, "failed to listen on port %d", port)
	}

	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	addr := listener.Addr().String()
	s.setState(ServerStateRunning)
	s.logger.Infow("Server ready",
		"addr", addr,
		"keys", s.Registry().Len(),
	)
	if ready != nil {
		ready(addr)
	}

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "HTTP server failed")
	}
	return nil
}

// Stop gracefully shuts down the server and cleans up resources
func (s *Server) Stop() error {
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	if s.keysWatcher != nil {
		if err := s.keysWatcher.Stop(); err != nil {
			s.logger.Warnw("Failed to stop keys file watcher", "error", err)
		}
	}

	var shutdownErr error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = errors.Wrap(err, "HTTP server shutdown failed")
		}
	}

	// Cancel context to stop LSP connections and in-flight lookups
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infow("All goroutines stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Shutdown timeout exceeded, some goroutines may still be running",
			"timeout_seconds", ShutdownTimeout.Seconds())
	}

	s.sessionsMu.Lock()
	clear(s.sessions)
	s.sessionsMu.Unlock()

	s.setState(ServerStateStopped)
	return shutdownErr
}
