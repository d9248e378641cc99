package commands

import (
	"context"
	"database/sql"

	"github.com/teranos/sqb/am"
	"github.com/teranos/sqb/db"
	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
	"github.com/teranos/sqb/search/keys"
	"github.com/teranos/sqb/search/storage"
	"github.com/teranos/sqb/search/suggest"
	"github.com/teranos/sqb/search/syntax"
)

// workspace bundles the components commands share: config, the tag value
// store, the key registry built from it and the value orchestrator
type workspace struct {
	cfg    *am.Config
	db     *sql.DB
	store  *storage.TagStore
	keys   *keys.Holder
	values *suggest.Orchestrator
	opts   syntax.Options
}

// openWorkspace loads config, opens and migrates the database and builds the registry
func (o *rootOptions) openWorkspace(ctx context.Context) (*workspace, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	database, err := openDatabase(o.dbPath, cfg)
	if err != nil {
		return nil, err
	}

	ws := &workspace{
		cfg:   cfg,
		db:    database,
		store: storage.NewTagStore(database),
		keys:  keys.NewHolder(nil),
		opts:  syntax.Options{DisallowFreeText: cfg.Search.DisallowFreeText},
	}

	if err := ws.rebuildKeys(ctx); err != nil {
		database.Close()
		return nil, err
	}

	suggestCfg := cfg.GetSuggestConfig()
	ws.values = suggest.New(ws.keys,
		ws.store.Sources(suggestCfg.Datasets, suggestCfg.ResultLimit),
		suggest.OptionsFromConfig(suggestCfg))
	return ws, nil
}

// rebuildKeys publishes a registry built from the stored tags and event fields
func (w *workspace) rebuildKeys(ctx context.Context) error {
	tags, err := w.store.TagKeys(ctx, "")
	if err != nil {
		return errors.Wrap(err, "failed to load tag keys")
	}
	fields, err := keys.EventFields(w.cfg.Search.KeysFile)
	if err != nil {
		return err
	}
	w.keys.Store(keys.Build(tags, fields, w.cfg.GetExcludedTags()))
	return nil
}

// Close releases the database
func (w *workspace) Close() error {
	return w.db.Close()
}

// openDatabase opens and migrates the database at dbPath, or at the configured path
func openDatabase(dbPath string, cfg *am.Config) (*sql.DB, error) {
	if dbPath == "" {
		dbPath = cfg.GetDatabasePath()
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, nil
}
