package types

import "fmt"

// The control plane distinguishes error kinds at the type level so
// callers can branch with errors.As instead of matching message strings.
// Anything else is treated as fatal by the caller.

// PolicyError reports a role or mode denial. The attempt is audited as
// role_violation or lockdown_access_denied by whoever raised it.
type PolicyError struct {
	Msg string
}

func (e *PolicyError) Error() string { return e.Msg }

// InvariantError reports a request that would break a state-machine rule,
// such as triggering lockdown while already locked down.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return e.Msg }

// StorageError wraps a failed database or filesystem primitive.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// MalformedError reports input that could not be parsed, such as an alert
// file missing required fields. The offending artifact is left in place.
type MalformedError struct {
	Source string
	Err    error
}

func (e *MalformedError) Error() string { return fmt.Sprintf("malformed input %s: %v", e.Source, e.Err) }

func (e *MalformedError) Unwrap() error { return e.Err }

// NotFoundError reports a lookup miss on an id the caller supplied.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %d", e.Kind, e.ID) }
