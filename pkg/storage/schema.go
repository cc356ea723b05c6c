package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/types"
)

// Schemas for the five stores. CREATE IF NOT EXISTS keeps bootstrap
// idempotent; re-running institute-init never touches existing rows.
const (
	systemSchema = `
CREATE TABLE IF NOT EXISTS system_mode (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    mode       TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    reason     TEXT
);

CREATE TABLE IF NOT EXISTS heartbeats (
    component  TEXT PRIMARY KEY,
    last_beat  TEXT NOT NULL,
    status     TEXT NOT NULL
);
`

	researchSchema = `
CREATE TABLE IF NOT EXISTS tasks (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL,
    description   TEXT,
    status        TEXT NOT NULL DEFAULT 'pending',
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL,
    completed_at  TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

	managementSchema = `
CREATE TABLE IF NOT EXISTS escalations (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    code            TEXT NOT NULL UNIQUE,
    level           TEXT NOT NULL,
    state           TEXT NOT NULL,
    message         TEXT,
    created_at      TEXT NOT NULL,
    notified_at     TEXT,
    reminded_at     TEXT,
    acknowledged_at TEXT,
    resolved_at     TEXT,
    resolution_note TEXT
);

CREATE INDEX IF NOT EXISTS idx_escalations_state ON escalations(state);

CREATE TABLE IF NOT EXISTS config (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

	sharedSchema = `
CREATE TABLE IF NOT EXISTS reports (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    type         TEXT NOT NULL,
    path         TEXT NOT NULL,
    generated_at TEXT NOT NULL
);
`

	auditSchema = `
CREATE TABLE IF NOT EXISTS log (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    role      TEXT NOT NULL,
    action    TEXT NOT NULL,
    target    TEXT,
    details   TEXT,
    checksum  TEXT NOT NULL
);
`
)

// Bootstrap applies every schema and seeds the initial state: the NORMAL
// mode row and the recognized config keys at their defaults. Used by
// cmd/institute-init and by tests; daemons and the CLI assume it ran.
func Bootstrap(paths config.Paths, clock types.Clock) error {
	now := types.FormatTime(clock.Now())

	steps := []struct {
		path   string
		schema string
		seed   func(db *sqlx.DB) error
	}{
		{paths.SystemDB, systemSchema, func(db *sqlx.DB) error {
			return seedMode(db, now)
		}},
		{paths.ResearchDB, researchSchema, nil},
		{paths.ManagementDB, managementSchema, func(db *sqlx.DB) error {
			return seedConfig(db, now)
		}},
		{paths.SharedDB, sharedSchema, nil},
		{paths.AuditDB, auditSchema, nil},
	}

	for _, step := range steps {
		db, err := openDB(step.path)
		if err != nil {
			return fmt.Errorf("bootstrap open %s: %w", step.path, err)
		}
		_, err = db.Exec(step.schema)
		if err == nil && step.seed != nil {
			err = step.seed(db)
		}
		db.Close()
		if err != nil {
			return fmt.Errorf("bootstrap %s: %w", step.path, err)
		}
	}

	return nil
}

// seedMode inserts the initial NORMAL row when the history is empty. The
// mode history invariant needs a defined starting point.
func seedMode(db *sqlx.DB, now string) error {
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM system_mode`); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := db.Exec(
		`INSERT INTO system_mode (mode, updated_at, reason) VALUES (?, ?, ?)`,
		string(types.ModeNormal), now, "System initialized",
	)
	return err
}

// seedConfig inserts each recognized key at its default, leaving any
// operator-set value alone.
func seedConfig(db *sqlx.DB, now string) error {
	for key, value := range config.Defaults {
		if _, err := db.Exec(
			`INSERT OR IGNORE INTO config (key, value, updated_at) VALUES (?, ?, ?)`,
			key, value, now,
		); err != nil {
			return err
		}
	}
	return nil
}
