// Package server exposes the search query builder over HTTP and the Language
// Server Protocol (over WebSocket).
package server

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/teranos/sqb/am"
	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
	"github.com/teranos/sqb/search/editor"
	"github.com/teranos/sqb/search/keys"
	"github.com/teranos/sqb/search/lsp"
	"github.com/teranos/sqb/search/storage"
	"github.com/teranos/sqb/search/suggest"
	"github.com/teranos/sqb/search/syntax"
)

// Server serves query parsing, completions and edit sessions
type Server struct {
	db          *sql.DB
	cfg         *am.Config
	store       *storage.TagStore
	keys        *keys.Holder
	values      *suggest.Orchestrator
	langService *lsp.Service
	env         editor.Env

	sessions   map[string]*editor.Session
	sessionsMu sync.RWMutex

	// Keys file watcher, started by Start
	keysWatcher *am.FileWatcher
	rebuildMu   sync.Mutex

	mux        *http.ServeMux
	httpServer *http.Server
	logger     *zap.SugaredLogger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	state  atomic.Int32
}

// New creates a server over a migrated tag value database.
// The key registry is built from the stored tags before New returns.
func New(db *sql.DB, cfg *am.Config) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	suggestCfg := cfg.GetSuggestConfig()

	s := &Server{
		db:       db,
		cfg:      cfg,
		store:    storage.NewTagStore(db),
		keys:     keys.NewHolder(nil),
		sessions: make(map[string]*editor.Session),
		logger:   logger.ComponentLogger("server"),
		ctx:      ctx,
		cancel:   cancel,
	}

	opts := syntax.Options{DisallowFreeText: cfg.Search.DisallowFreeText}
	s.env = editor.Env{Keys: s.keys, Options: opts}
	s.values = suggest.New(s.keys,
		s.store.Sources(suggestCfg.Datasets, suggestCfg.ResultLimit),
		suggest.OptionsFromConfig(suggestCfg))
	s.langService = lsp.NewService(s.keys, s.values, opts)

	if _, err := s.RebuildKeys(ctx); err != nil {
		cancel()
		return nil, err
	}

	s.setupHTTPRoutes()
	return s, nil
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Registry returns the active key registry
func (s *Server) Registry() *keys.Registry {
	return s.keys.Load()
}
