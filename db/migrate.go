package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/sqb/errors"
)

//go:embed sqlite/migrations/*.sql
var migrationFS embed.FS

const migrationDir = "sqlite/migrations"

// migration is one embedded schema change, identified by its file name prefix
type migration struct {
	version string
	file    string
}

// loadMigrations lists the embedded migrations in version order
func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir(migrationDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var out []migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, _, _ := strings.Cut(name, "_")
		out = append(out, migration{version: version, file: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// appliedVersions returns the versions recorded in schema_migrations.
// A database without the table has nothing applied.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	var tables int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'").Scan(&tables)
	if err != nil {
		return nil, errors.Wrap(err, "check schema_migrations")
	}
	applied := make(map[string]bool)
	if tables == 0 {
		return applied, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "list applied migrations")
	}
	defer rows.Close()
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, errors.Wrap(err, "scan migration version")
		}
		applied[version] = true
	}
	return applied, errors.Wrap(rows.Err(), "list applied migrations")
}

// Migrate applies pending migrations in version order. Each one runs in its
// own transaction together with its schema_migrations record; the first
// migration creates that table. logger may be nil.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	pending, err := loadMigrations()
	if err != nil {
		return err
	}
	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	count := 0
	for _, m := range pending {
		if applied[m.version] {
			continue
		}
		if len(applied) == 0 && count == 0 && m.version != "000" {
			return errors.Newf("schema_migrations table missing, first migration is %s", m.file)
		}
		if logger != nil {
			logger.Infow("Applying migration", "migration", m.file, "version", m.version)
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
		count++
	}

	if logger != nil {
		logger.Debugw("Migrations complete", "applied", count, "total", len(pending))
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	script, err := migrationFS.ReadFile(path.Join(migrationDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.file)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.file)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(script)); err != nil {
		return errors.Wrapf(err, "execute %s", m.file)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return errors.Wrapf(err, "record %s", m.file)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.file)
}
