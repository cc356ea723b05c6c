// Package report renders the director's Markdown reports.
//
// Two report types exist. The daily status covers one day: current
// mode, tasks created that day by status, the pending backlog, active
// escalations by level, and the last twenty audit events. The weekly
// summary covers a trailing seven-day window: task counts, completions,
// and escalation resolution numbers.
//
// Reports land in shared/reports/<YYYY-MM-DD>/{daily,weekly}.md, are
// recorded in the shared store's reports table, and are audited as
// report_generated. Rendering uses text/template; an operator can
// override either template by dropping a file of the same name into
// shared/templates/, otherwise the embedded defaults apply.
//
// # Usage
//
//	gen := report.NewGenerator(stores, types.SystemClock{})
//	path, err := gen.GenerateDaily()
//
// # See Also
//
//   - pkg/audit for the event feed the daily report tails
package report
