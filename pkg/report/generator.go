package report

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cdw/institute/pkg/audit"
	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/log"
	"github.com/cdw/institute/pkg/state"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

// Template names, resolvable from shared/templates/ before falling
// back to the embedded defaults.
const (
	DailyTemplate  = "daily_status.md.tmpl"
	WeeklyTemplate = "weekly_summary.md.tmpl"
)

//go:embed templates
var defaultTemplates embed.FS

// Generator renders the daily and weekly Markdown reports into
// shared/reports/<date>/ and records each one in the shared store.
type Generator struct {
	stores  *storage.Stores
	paths   config.Paths
	clock   types.Clock
	state   *state.Manager
	auditor *audit.Logger
}

// NewGenerator builds a Generator over the opened stores.
func NewGenerator(stores *storage.Stores, clock types.Clock) *Generator {
	return &Generator{
		stores:  stores,
		paths:   stores.Paths(),
		clock:   clock,
		state:   state.New(stores.System, clock),
		auditor: audit.New(stores.Audit, clock),
	}
}

// DailyData feeds the daily status template.
type DailyData struct {
	Date               string
	GeneratedAt        string
	SystemMode         types.Mode
	ModeUpdated        string
	ModeReason         string
	TaskStats          map[string]int
	PendingTasks       int
	ActiveEscalations  int
	EscalationsByLevel map[string]int
	RecentEvents       []types.AuditEntry
}

// WeeklyData feeds the weekly summary template.
type WeeklyData struct {
	StartDate           string
	EndDate             string
	GeneratedAt         string
	SystemMode          types.Mode
	TaskStats           map[string]int
	CompletedThisWeek   int
	ResolvedEscalations int
	ActiveEscalations   int
}

// GenerateDaily renders today's status report and returns its path.
func (g *Generator) GenerateDaily() (string, error) {
	now := g.clock.Now()
	date := now.Format(types.DateLayout)

	data, err := g.gatherDaily(date)
	if err != nil {
		return "", err
	}

	path, err := g.write(DailyTemplate, date, "daily.md", data)
	if err != nil {
		return "", err
	}
	return path, g.record("daily", path, date)
}

// GenerateWeekly renders the trailing-week summary and returns its
// path.
func (g *Generator) GenerateWeekly() (string, error) {
	now := g.clock.Now()
	date := now.Format(types.DateLayout)

	data, err := g.gatherWeekly(now)
	if err != nil {
		return "", err
	}

	path, err := g.write(WeeklyTemplate, date, "weekly.md", data)
	if err != nil {
		return "", err
	}
	return path, g.record("weekly", path, date)
}

func (g *Generator) gatherDaily(date string) (DailyData, error) {
	rec, err := g.state.Current()
	if err != nil {
		return DailyData{}, err
	}

	taskStats, err := g.countsBy(g.stores.Research,
		`SELECT status AS k, COUNT(*) AS n FROM tasks WHERE date(created_at) = ? GROUP BY status`, date)
	if err != nil {
		return DailyData{}, err
	}

	var pending int
	err = g.stores.Research.Get(&pending, `SELECT COUNT(*) FROM tasks WHERE status = 'pending'`)
	if err != nil {
		return DailyData{}, &types.StorageError{Op: "count pending tasks", Err: err}
	}

	var active int
	err = g.stores.Management.Get(&active,
		`SELECT COUNT(*) FROM escalations WHERE state NOT IN ('RESOLVED', 'EXPIRED')`)
	if err != nil {
		return DailyData{}, &types.StorageError{Op: "count active escalations", Err: err}
	}

	byLevel, err := g.countsBy(g.stores.Management,
		`SELECT level AS k, COUNT(*) AS n FROM escalations WHERE state NOT IN ('RESOLVED', 'EXPIRED') GROUP BY level`)
	if err != nil {
		return DailyData{}, err
	}

	events, err := g.auditor.Recent(20)
	if err != nil {
		return DailyData{}, err
	}

	return DailyData{
		Date:               date,
		GeneratedAt:        types.FormatTime(g.clock.Now()),
		SystemMode:         rec.Mode,
		ModeUpdated:        rec.UpdatedAt,
		ModeReason:         rec.Reason,
		TaskStats:          taskStats,
		PendingTasks:       pending,
		ActiveEscalations:  active,
		EscalationsByLevel: byLevel,
		RecentEvents:       events,
	}, nil
}

func (g *Generator) gatherWeekly(now time.Time) (WeeklyData, error) {
	start := now.AddDate(0, 0, -7)
	// Stored timestamps share one lexicographically ordered format, so
	// plain string comparison is the window predicate.
	startStr := types.FormatTime(start)

	rec, err := g.state.Current()
	if err != nil {
		return WeeklyData{}, err
	}

	taskStats, err := g.countsBy(g.stores.Research,
		`SELECT status AS k, COUNT(*) AS n FROM tasks WHERE created_at >= ? GROUP BY status`, startStr)
	if err != nil {
		return WeeklyData{}, err
	}

	var completed int
	err = g.stores.Research.Get(&completed,
		`SELECT COUNT(*) FROM tasks WHERE status = 'completed' AND completed_at >= ?`, startStr)
	if err != nil {
		return WeeklyData{}, &types.StorageError{Op: "count weekly completions", Err: err}
	}

	var resolved int
	err = g.stores.Management.Get(&resolved,
		`SELECT COUNT(*) FROM escalations WHERE resolved_at >= ?`, startStr)
	if err != nil {
		return WeeklyData{}, &types.StorageError{Op: "count resolved escalations", Err: err}
	}

	var active int
	err = g.stores.Management.Get(&active,
		`SELECT COUNT(*) FROM escalations WHERE state NOT IN ('RESOLVED', 'EXPIRED')`)
	if err != nil {
		return WeeklyData{}, &types.StorageError{Op: "count active escalations", Err: err}
	}

	return WeeklyData{
		StartDate:           start.Format(types.DateLayout),
		EndDate:             now.Format(types.DateLayout),
		GeneratedAt:         types.FormatTime(g.clock.Now()),
		SystemMode:          rec.Mode,
		TaskStats:           taskStats,
		CompletedThisWeek:   completed,
		ResolvedEscalations: resolved,
		ActiveEscalations:   active,
	}, nil
}

// ListReports returns recorded reports newest-first, optionally
// filtered by type.
func (g *Generator) ListReports(reportType string) ([]types.Report, error) {
	var reports []types.Report
	var err error
	if reportType != "" {
		err = g.stores.Shared.Select(&reports,
			`SELECT id, type, path, generated_at FROM reports WHERE type = ? ORDER BY generated_at DESC, id DESC`,
			reportType)
	} else {
		err = g.stores.Shared.Select(&reports,
			`SELECT id, type, path, generated_at FROM reports ORDER BY generated_at DESC, id DESC`)
	}
	if err != nil {
		return nil, &types.StorageError{Op: "list reports", Err: err}
	}
	return reports, nil
}

// write renders one template into shared/reports/<date>/<file>.
func (g *Generator) write(name, date, file string, data any) (string, error) {
	tmpl, err := g.load(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	dir := filepath.Join(g.paths.SharedReportsDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &types.StorageError{Op: "create report dir", Err: err}
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", &types.StorageError{Op: "write report", Err: err}
	}
	return path, nil
}

// load resolves a template, preferring an operator override in
// shared/templates/ over the embedded default.
func (g *Generator) load(name string) (*template.Template, error) {
	funcs := template.FuncMap{"str": types.StrVal}

	override := filepath.Join(g.paths.SharedTemplatesDir, name)
	if _, err := os.Stat(override); err == nil {
		return template.New(name).Funcs(funcs).ParseFiles(override)
	}

	data, err := defaultTemplates.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", name, err)
	}
	return template.New(name).Funcs(funcs).Parse(string(data))
}

func (g *Generator) record(reportType, path, date string) error {
	_, err := g.stores.Shared.Exec(
		`INSERT INTO reports (type, path, generated_at) VALUES (?, ?, ?)`,
		reportType, path, types.FormatTime(g.clock.Now()))
	if err != nil {
		return &types.StorageError{Op: "record report", Err: err}
	}

	log.Logger.Info().Str("type", reportType).Str("path", path).Msg("Report generated")
	return g.auditor.Log(types.RoleSystem, audit.ActionReportGenerated, reportType, date)
}

// InstallDefaultTemplates copies the embedded templates into dir,
// skipping files that already exist so operator edits survive a
// re-run of the bootstrap. Returns the names it installed.
func InstallDefaultTemplates(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template dir %s: %w", dir, err)
	}

	var installed []string
	for _, name := range []string{DailyTemplate, WeeklyTemplate} {
		dest := filepath.Join(dir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		data, err := defaultTemplates.ReadFile("templates/" + name)
		if err != nil {
			return installed, fmt.Errorf("read embedded template %s: %w", name, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return installed, fmt.Errorf("install template %s: %w", name, err)
		}
		installed = append(installed, name)
	}
	return installed, nil
}

// countsBy runs a two-column (k, n) GROUP BY query into a map.
func (g *Generator) countsBy(db *sqlx.DB, query string, args ...any) (map[string]int, error) {
	rows := []struct {
		K string `db:"k"`
		N int    `db:"n"`
	}{}
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, &types.StorageError{Op: "count rows", Err: err}
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.K] = r.N
	}
	return counts, nil
}
