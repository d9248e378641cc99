package server

import (
	"context"
	"path/filepath"

	"github.com/teranos/sqb/am"
	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
	"github.com/teranos/sqb/search/keys"
)

// RebuildKeys rebuilds the key registry from the stored tags, the built-in
// event fields and the configured keys file, then publishes it to the
// language service and every open edit session.
func (s *Server) RebuildKeys(ctx context.Context) (*keys.Registry, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	tags, err := s.store.TagKeys(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tag keys")
	}

	fields, err := keys.EventFields(s.cfg.Search.KeysFile)
	if err != nil {
		return nil, err
	}

	reg := keys.Build(tags, fields, s.cfg.GetExcludedTags())
	s.keys.Store(reg)

	s.sessionsMu.RLock()
	for _, session := range s.sessions {
		session.SetKeys(s.keys)
	}
	openSessions := len(s.sessions)
	s.sessionsMu.RUnlock()

	s.logger.Infow("Key registry rebuilt",
		logger.FieldCount, reg.Len(),
		"tags", len(tags),
		"sessions", openSessions,
	)
	return reg, nil
}

// watchKeysFile rebuilds the registry whenever the keys file changes
func (s *Server) watchKeysFile() error {
	path := s.cfg.Search.KeysFile
	if path == "" {
		return nil
	}

	watcher, err := am.NewFileWatcher(path)
	if err != nil {
		return errors.Wrap(err, "failed to watch keys file")
	}

	abs, _ := filepath.Abs(path)
	watcher.OnChange(func(changed string) error {
		if changed != abs {
			return nil
		}
		_, err := s.RebuildKeys(s.ctx)
		return err
	})
	watcher.Start()
	s.keysWatcher = watcher

	s.logger.Infow("Watching keys file", "file", abs)
	return nil
}
