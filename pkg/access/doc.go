// Package access holds the two gates in front of every CLI command.
//
// RequireRole matches the caller's --role flag against the role a
// command belongs to; CheckResearcherAccess additionally blocks
// researcher commands while the system sits in LOCKDOWN. Both gates
// audit the denial (role_violation, lockdown_access_denied) before
// returning a PolicyError, so refused attempts appear in the trail
// whether or not the caller reads the message.
//
// Denials carry the exact operator-facing text the CLI prints; the
// gates are the single source of those messages.
package access
