package escalation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/log"
	"github.com/cdw/institute/pkg/metrics"
	"github.com/cdw/institute/pkg/notify"
	"github.com/cdw/institute/pkg/state"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

// Thresholds maps each ladder level to how long an escalation may sit
// unacknowledged at that level before it is promoted. The L4 threshold
// is the fuse on automatic lockdown.
var Thresholds = map[types.Level]time.Duration{
	types.LevelL1: 24 * time.Hour,
	types.LevelL2: 48 * time.Hour,
	types.LevelL3: 72 * time.Hour,
	types.LevelL4: 168 * time.Hour,
}

const defaultThreshold = 24 * time.Hour

// Engine ingests watchdog alerts into escalations and walks
// unacknowledged escalations up the ladder. One instance runs as the
// escalator daemon; the director-facing operations live in this
// package too so every write to the escalations table shares one home.
type Engine struct {
	stores   *storage.Stores
	paths    config.Paths
	clock    types.Clock
	state    *state.Manager
	auditor  *audit.Logger
	notifier *notify.Notifier
}

// NewEngine builds an Engine over the opened stores.
func NewEngine(stores *storage.Stores, clock types.Clock) *Engine {
	paths := stores.Paths()
	return &Engine{
		stores:   stores,
		paths:    paths,
		clock:    clock,
		state:    state.New(stores.System, clock),
		auditor:  audit.New(stores.Audit, clock),
		notifier: notify.New(paths, clock),
	}
}

// Run executes ticks until the context is cancelled. The tick in
// flight always completes; cancellation is observed between ticks.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	log.Logger.Info().Dur("interval", interval).Msg("Escalation engine starting")
	if err := e.auditor.Log(types.RoleSystem, audit.ActionEscalationEngineStarted, "", ""); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := e.Tick(); err != nil {
			metrics.TickErrors.WithLabelValues("escalator").Inc()
			log.Logger.Error().Err(err).Msg("Escalation engine tick failed")
			e.auditor.Log(types.RoleSystem, audit.ActionEscalationEngineError, "", err.Error())
		}

		select {
		case <-ctx.Done():
			log.Logger.Info().Msg("Escalation engine stopping")
			return e.auditor.Log(types.RoleSystem, audit.ActionEscalationEngineStopped, "", "")
		case <-ticker.C:
		}
	}
}

// Tick runs one ingest-then-promote pass.
func (e *Engine) Tick() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.TickDuration, "escalator")

	if err := e.IngestAlerts(); err != nil {
		return err
	}
	return e.Promote()
}

// IngestAlerts consumes the watchdog's alert files in name order. Each
// good file becomes (or refreshes) an escalation and is deleted; a bad
// file is audited and left in place, so it surfaces again every tick
// until someone removes it.
func (e *Engine) IngestAlerts() error {
	files, err := filepath.Glob(filepath.Join(e.paths.SystemAlertsDir, "*.json"))
	if err != nil {
		return fmt.Errorf("scan alerts: %w", err)
	}
	sort.Strings(files)

	for _, path := range files {
		if err := e.ingestOne(path); err != nil {
			log.Logger.Warn().Err(err).Str("file", path).Msg("Alert file not ingested")
			e.auditor.Log(types.RoleSystem, audit.ActionEscalationProcessingError, path, err.Error())
		}
	}
	return nil
}

func (e *Engine) ingestOne(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var alert types.Alert
	if err := json.Unmarshal(data, &alert); err != nil {
		return err
	}
	if alert.Code == "" {
		return fmt.Errorf("alert file has no code")
	}

	if _, _, err := e.Upsert(alert.Code, alert.Message); err != nil {
		return err
	}
	return os.Remove(path)
}

// Upsert creates an escalation for code at L1, or refreshes the
// message of an existing one that the director has not yet
// acknowledged or resolved. New escalations notify the director and
// move straight to NOTIFIED. Returns the escalation ID and whether a
// row was created.
func (e *Engine) Upsert(code, message string) (int64, bool, error) {
	db := e.stores.Management

	var existing struct {
		ID    int64  `db:"id"`
		Level string `db:"level"`
		State string `db:"state"`
	}
	err := db.Get(&existing, `SELECT id, level, state FROM escalations WHERE code = ?`, code)

	var id int64
	created := false
	switch {
	case err == nil:
		id = existing.ID
		st := types.EscalationState(existing.State)
		if st != types.EscalationAcknowledged && st != types.EscalationResolved {
			if _, err := db.Exec(`UPDATE escalations SET message = ? WHERE id = ?`, message, id); err != nil {
				return 0, false, &types.StorageError{Op: "refresh escalation", Err: err}
			}
		}

	case errors.Is(err, sql.ErrNoRows):
		now := types.FormatTime(e.clock.Now())
		res, err := db.Exec(
			`INSERT INTO escalations (code, level, state, message, created_at) VALUES (?, ?, ?, ?, ?)`,
			code, string(types.LevelL1), string(types.EscalationDetected), message, now)
		if err != nil {
			return 0, false, &types.StorageError{Op: "create escalation", Err: err}
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, false, &types.StorageError{Op: "create escalation id", Err: err}
		}
		created = true

		if _, err := e.notifier.EscalationAlert(id, types.LevelL1, message); err != nil {
			return id, created, err
		}
		if _, err := db.Exec(
			`UPDATE escalations SET state = ?, notified_at = ? WHERE id = ?`,
			string(types.EscalationNotified), now, id); err != nil {
			return id, created, &types.StorageError{Op: "mark escalation notified", Err: err}
		}
		log.Logger.Warn().Str("code", code).Int64("id", id).Msg("Escalation created")

	default:
		return 0, false, &types.StorageError{Op: "lookup escalation", Err: err}
	}

	if err := e.auditor.Log(types.RoleSystem, audit.ActionEscalationCreated, code, message); err != nil {
		return id, created, err
	}
	return id, created, nil
}

// Promote walks every unresolved escalation and applies the ladder
// rules. Per-escalation failures are audited and skipped; one bad row
// must not stall the rest of the ladder.
func (e *Engine) Promote() error {
	var rows []types.Escalation
	err := e.stores.Management.Select(&rows,
		`SELECT id, code, level, state, message, created_at, notified_at, reminded_at
		 FROM escalations
		 WHERE state NOT IN ('RESOLVED', 'EXPIRED')
		 ORDER BY id`)
	if err != nil {
		return &types.StorageError{Op: "list active escalations", Err: err}
	}

	for _, esc := range rows {
		if err := e.promoteOne(esc); err != nil {
			log.Logger.Error().Err(err).Str("code", esc.Code).Msg("Escalation check failed")
			e.auditor.Log(types.RoleSystem, audit.ActionEscalationCheckError, esc.Code, err.Error())
		}
	}
	return nil
}

func (e *Engine) promoteOne(esc types.Escalation) error {
	// Only notified or reminded escalations age toward promotion;
	// acknowledged and resolved ones are the director's business now.
	if esc.State != types.EscalationNotified && esc.State != types.EscalationReminded {
		return nil
	}

	lastStr := types.StrVal(esc.RemindedAt)
	if lastStr == "" {
		lastStr = types.StrVal(esc.NotifiedAt)
	}
	if lastStr == "" {
		return fmt.Errorf("escalation %s has no notification timestamp", esc.Code)
	}
	last, err := types.ParseTime(lastStr)
	if err != nil {
		return err
	}

	threshold, ok := Thresholds[esc.Level]
	if !ok {
		threshold = defaultThreshold
	}
	// A future timestamp yields a negative elapsed time and no
	// promotion, which is the safe reading of a skewed clock.
	if e.clock.Now().Sub(last) < threshold {
		return nil
	}

	if esc.Level != types.LevelL4 {
		return e.escalate(esc.ID, esc.Code, esc.Level.Next(), esc.Message)
	}
	return e.autoLockdown(esc.Code, esc.Message)
}

func (e *Engine) escalate(id int64, code string, level types.Level, message string) error {
	now := types.FormatTime(e.clock.Now())
	_, err := e.stores.Management.Exec(
		`UPDATE escalations SET level = ?, state = ?, notified_at = ? WHERE id = ?`,
		string(level), string(types.EscalationNotified), now, id)
	if err != nil {
		return &types.StorageError{Op: "promote escalation", Err: err}
	}

	if _, err := e.notifier.EscalationAlert(id, level, message); err != nil {
		return err
	}

	metrics.EscalationsPromoted.Inc()
	log.Logger.Warn().Str("code", code).Str("level", string(level)).Msg("Escalation promoted")
	return e.auditor.Logf(types.RoleSystem, audit.ActionEscalationEscalated, code, "Escalated to %s", level)
}

// autoLockdown fires when an L4 escalation has outlived its threshold.
// Honors the auto_lockdown_enabled tunable and does nothing when the
// system is already locked down, so a lingering L4 cannot stack mode
// transitions tick after tick.
func (e *Engine) autoLockdown(code, message string) error {
	enabled := e.stores.ConfigValue(config.KeyAutoLockdownEnabled, "true")
	if !strings.EqualFold(enabled, "true") {
		return nil
	}

	locked, err := e.state.IsLockdown()
	if err != nil {
		return err
	}
	if locked {
		return nil
	}

	reason := fmt.Sprintf("Automatic lockdown triggered by L4 escalation: %s", code)
	if err := e.state.SetMode(types.ModeLockdown, reason); err != nil {
		return err
	}

	metrics.LockdownsTriggered.WithLabelValues("auto").Inc()
	log.Logger.Error().Str("code", code).Msg("Automatic lockdown triggered")

	if err := e.auditor.Log(types.RoleSystem, audit.ActionLockdownTriggered, code, message); err != nil {
		return err
	}
	_, err = e.notifier.LockdownAlert(code, message)
	return err
}
