package escalation

import (
	"fmt"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/types"
)

func escalationTarget(id int64) string {
	return fmt.Sprintf("escalation_%d", id)
}

// List returns all escalations, newest first.
func (e *Engine) List() ([]types.Escalation, error) {
	var escs []types.Escalation
	err := e.stores.Management.Select(&escs,
		`SELECT id, code, level, state, message, created_at,
		        notified_at, reminded_at, acknowledged_at, resolved_at, resolution_note
		 FROM escalations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, &types.StorageError{Op: "list escalations", Err: err}
	}
	return escs, nil
}

// Get returns one escalation by ID.
func (e *Engine) Get(id int64) (types.Escalation, error) {
	var esc types.Escalation
	err := e.stores.Management.Get(&esc,
		`SELECT id, code, level, state, message, created_at,
		        notified_at, reminded_at, acknowledged_at, resolved_at, resolution_note
		 FROM escalations WHERE id = ?`, id)
	if err != nil {
		return types.Escalation{}, &types.NotFoundError{Kind: "escalation", ID: id}
	}
	return esc, nil
}

// Acknowledge marks an escalation acknowledged by the director. The
// state change stops ladder promotion; acknowledged escalations count
// as handled when the recovery gate tallies them.
func (e *Engine) Acknowledge(id int64) error {
	now := types.FormatTime(e.clock.Now())
	res, err := e.stores.Management.Exec(
		`UPDATE escalations SET state = ?, acknowledged_at = ? WHERE id = ?`,
		string(types.EscalationAcknowledged), now, id)
	if err != nil {
		return &types.StorageError{Op: "acknowledge escalation", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &types.StorageError{Op: "acknowledge escalation", Err: err}
	}
	if affected == 0 {
		return &types.NotFoundError{Kind: "escalation", ID: id}
	}

	return e.auditor.Log(types.RoleDirector, audit.ActionEscalationAcknowledged,
		escalationTarget(id), "")
}

// Resolve closes an escalation with a resolution note.
func (e *Engine) Resolve(id int64, note string) error {
	now := types.FormatTime(e.clock.Now())
	res, err := e.stores.Management.Exec(
		`UPDATE escalations SET state = ?, resolved_at = ?, resolution_note = ? WHERE id = ?`,
		string(types.EscalationResolved), now, types.StrPtr(note), id)
	if err != nil {
		return &types.StorageError{Op: "resolve escalation", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &types.StorageError{Op: "resolve escalation", Err: err}
	}
	if affected == 0 {
		return &types.NotFoundError{Kind: "escalation", ID: id}
	}

	return e.auditor.Log(types.RoleDirector, audit.ActionEscalationResolved,
		escalationTarget(id), note)
}

// CountsByState tallies escalations per state for the status view.
func (e *Engine) CountsByState() (map[types.EscalationState]int, error) {
	rows := []struct {
		State string `db:"state"`
		Count int    `db:"count"`
	}{}
	err := e.stores.Management.Select(&rows,
		`SELECT state, COUNT(*) AS count FROM escalations GROUP BY state ORDER BY state`)
	if err != nil {
		return nil, &types.StorageError{Op: "count escalations", Err: err}
	}

	counts := make(map[types.EscalationState]int, len(rows))
	for _, r := range rows {
		counts[types.EscalationState(r.State)] = r.Count
	}
	return counts, nil
}
