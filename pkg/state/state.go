package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cdw/institute/pkg/types"
)

// Manager reads and transitions the system operational mode. The mode
// lives in the system store as an append-only history; the current mode
// is the latest row, and SetMode only ever inserts.
type Manager struct {
	db    *sqlx.DB
	clock types.Clock
}

// New returns a Manager backed by the system store handle.
func New(db *sqlx.DB, clock types.Clock) *Manager {
	return &Manager{db: db, clock: clock}
}

// Current returns the latest mode row. An empty history reads as
// NORMAL; bootstrap seeds the first row, so this path only matters for
// stores created outside institute-init.
func (m *Manager) Current() (types.ModeRecord, error) {
	var rec types.ModeRecord
	err := m.db.Get(&rec,
		`SELECT id, mode, updated_at, reason FROM system_mode ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ModeRecord{
			Mode:      types.ModeNormal,
			UpdatedAt: types.FormatTime(m.clock.Now()),
			Reason:    "Default",
		}, nil
	}
	if err != nil {
		return types.ModeRecord{}, &types.StorageError{Op: "get mode", Err: err}
	}
	return rec, nil
}

// Mode returns just the current mode.
func (m *Manager) Mode() (types.Mode, error) {
	rec, err := m.Current()
	if err != nil {
		return "", err
	}
	return rec.Mode, nil
}

// SetMode appends a history row for the transition. The previous rows
// stay untouched; the history is the record of every mode the system
// has been in and why.
func (m *Manager) SetMode(mode types.Mode, reason string) error {
	if !mode.Valid() {
		return &types.InvariantError{Msg: fmt.Sprintf("invalid mode: %q", mode)}
	}
	_, err := m.db.Exec(
		`INSERT INTO system_mode (mode, updated_at, reason) VALUES (?, ?, ?)`,
		string(mode), types.FormatTime(m.clock.Now()), reason,
	)
	if err != nil {
		return &types.StorageError{Op: "set mode", Err: err}
	}
	return nil
}

// IsLockdown reports whether the system is in LOCKDOWN.
func (m *Manager) IsLockdown() (bool, error) {
	mode, err := m.Mode()
	return mode == types.ModeLockdown, err
}

// IsNormal reports whether the system is in NORMAL.
func (m *Manager) IsNormal() (bool, error) {
	mode, err := m.Mode()
	return mode == types.ModeNormal, err
}

// CanProcessTasks reports whether the task processor may run work.
// Processing stops in LOCKDOWN and in PRE-LOCKDOWN; every other mode
// lets the queue drain.
func (m *Manager) CanProcessTasks() (bool, error) {
	mode, err := m.Mode()
	if err != nil {
		return false, err
	}
	return mode != types.ModeLockdown && mode != types.ModePreLockdown, nil
}

// CanResearcherAccess reports whether researcher commands are allowed.
// Only LOCKDOWN blocks the researcher; degraded modes keep the system
// usable while the director works the escalations.
func (m *Manager) CanResearcherAccess() (bool, error) {
	mode, err := m.Mode()
	if err != nil {
		return false, err
	}
	return mode != types.ModeLockdown, nil
}

// History returns up to limit mode transitions, newest first.
func (m *Manager) History(limit int) ([]types.ModeRecord, error) {
	var recs []types.ModeRecord
	err := m.db.Select(&recs,
		`SELECT id, mode, updated_at, reason FROM system_mode ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, &types.StorageError{Op: "mode history", Err: err}
	}
	return recs, nil
}
