package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
)

//go:embed sqlite/migrations/*.sql
var migrationFS embed.FS

const migrationDir = "sqlite/migrations"

// bootstrapVersion creates schema_migrations itself.
const bootstrapVersion = "000"

type migration struct {
	version string
	file    string
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, in file name order, each in its own transaction.
// If logger is provided, logs migration progress; otherwise operates silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	all, err := loadMigrations()
	if err != nil {
		return err
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	count := 0
	for _, m := range all {
		if applied[m.version] {
			continue
		}
		if log != nil {
			log.Debugw("Applying migration", logger.FieldVersion, m.version, logger.FieldPath, m.file)
		}
		if err := apply(db, m); err != nil {
			return err
		}
		count++
	}

	if log != nil {
		log.Debugw("Schema up to date", logger.FieldCount, count, "known", len(all))
	}
	return nil
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir(migrationDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list migrations")
	}

	var out []migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, _, _ := strings.Cut(name, "_")
		out = append(out, migration{version: version, file: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].file < out[j].file })
	if len(out) == 0 || out[0].version != bootstrapVersion {
		return nil, errors.AssertionFailedf("first migration must be %s", bootstrapVersion)
	}
	return out, nil
}

// appliedVersions returns the recorded versions, or an empty set when the
// bootstrap migration has not run yet.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	var tables int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'",
	).Scan(&tables); err != nil {
		return nil, errors.Wrap(err, "failed to inspect schema")
	}

	applied := make(map[string]bool)
	if tables == 0 {
		return applied, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read schema_migrations")
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "failed to read schema_migrations")
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func apply(db *sql.DB, m migration) error {
	body, err := migrationFS.ReadFile(path.Join(migrationDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", m.file)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "failed to begin %s", m.file)
	}
	if _, err := tx.Exec(string(body)); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "failed to execute %s", m.file)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "failed to record %s", m.file)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit %s", m.file)
	}
	return nil
}
