package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/types"
)

// Stores bundles the five SQLite databases the control plane reads and
// writes. Every component receives the handles it needs from here; no
// component opens database files on its own.
type Stores struct {
	System     *sqlx.DB
	Research   *sqlx.DB
	Management *sqlx.DB
	Shared     *sqlx.DB
	Audit      *sqlx.DB

	paths config.Paths
}

// Open connects to all five stores. The schema is assumed present
// (bootstrap is cmd/institute-init's job); opening does not create
// tables.
func Open(paths config.Paths) (*Stores, error) {
	s := &Stores{paths: paths}

	for _, db := range []struct {
		name   string
		path   string
		target **sqlx.DB
	}{
		{"system", paths.SystemDB, &s.System},
		{"research", paths.ResearchDB, &s.Research},
		{"management", paths.ManagementDB, &s.Management},
		{"shared", paths.SharedDB, &s.Shared},
		{"audit", paths.AuditDB, &s.Audit},
	} {
		handle, err := openDB(db.path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open %s store: %w", db.name, err)
		}
		*db.target = handle
	}

	return s, nil
}

// Paths returns the layout these stores were opened against.
func (s *Stores) Paths() config.Paths { return s.paths }

// Close closes every open handle, keeping the first error.
func (s *Stores) Close() error {
	var first error
	for _, db := range []*sqlx.DB{s.System, s.Research, s.Management, s.Shared, s.Audit} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ConfigValue reads one runtime tunable from the management store,
// falling back to def when the key has no row or the read fails. Reads
// happen at point of use so `config set` applies on the next tick.
func (s *Stores) ConfigValue(key, def string) string {
	var value string
	err := s.Management.Get(&value, `SELECT value FROM config WHERE key = ?`, key)
	if err != nil {
		return def
	}
	return value
}

// SetConfigValue replaces a runtime tunable by key.
func (s *Stores) SetConfigValue(key, value, now string) error {
	_, err := s.Management.Exec(
		`INSERT OR REPLACE INTO config (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, now,
	)
	if err != nil {
		return &types.StorageError{Op: "set config " + key, Err: err}
	}
	return nil
}

// ListConfig returns all runtime tunables ordered by key.
func (s *Stores) ListConfig() ([]types.ConfigEntry, error) {
	var entries []types.ConfigEntry
	err := s.Management.Select(&entries, `SELECT key, value, updated_at FROM config ORDER BY key`)
	if err != nil {
		return nil, &types.StorageError{Op: "list config", Err: err}
	}
	return entries, nil
}

// UpsertHeartbeat records component liveness in the system store.
func (s *Stores) UpsertHeartbeat(component, now, status string) error {
	_, err := s.System.Exec(
		`INSERT OR REPLACE INTO heartbeats (component, last_beat, status) VALUES (?, ?, ?)`,
		component, now, status,
	)
	if err != nil {
		return &types.StorageError{Op: "upsert heartbeat " + component, Err: err}
	}
	return nil
}
