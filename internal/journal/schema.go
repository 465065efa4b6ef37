package journal

import (
	"database/sql"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS runs (
	       id          INTEGER PRIMARY KEY AUTOINCREMENT,
	       mode        TEXT NOT NULL,
	       started_at  INTEGER NOT NULL,
	       finished_at INTEGER NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS outcomes (
	       id        INTEGER PRIMARY KEY AUTOINCREMENT,
	       run_id    INTEGER NOT NULL REFERENCES runs(id),
	       config    TEXT NOT NULL,
	       kind      TEXT NOT NULL CHECK (kind IN ('sensor', 'graph', 'config')),
	       item_id   TEXT NOT NULL,
	       ok        INTEGER NOT NULL CHECK (ok IN (0, 1)),
	       code      TEXT NOT NULL DEFAULT '',
	       detail    TEXT NOT NULL DEFAULT '',
	       timestamp INTEGER NOT NULL
	   );`

	insertRunSQL = `
    INSERT INTO runs (mode, started_at, finished_at)
    VALUES (?, ?, ?)`

	insertOutcomeSQL = `
    INSERT INTO outcomes (run_id, config, kind, item_id, ok, code, detail, timestamp)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// InitSchema creates the journal schema and records its version.
func InitSchema(db *sql.DB) error {
	errFactory := errors.New()

	if _, err := db.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := db.Exec(`
        INSERT OR IGNORE INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	return nil
}
