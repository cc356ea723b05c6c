package queue

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Lock is an exclusive PID-file lock. The processor takes it before
// draining the queue so two runs (daemon tick plus a manual --once, or
// two daemons misconfigured onto one tree) never interleave the
// scan-move-update sequence.
//
// The lock file holds the owner's PID. On collision the holder is
// probed with signal 0; a dead holder's file is removed and the acquire
// retried once. Unreadable or garbage lock content counts as held —
// when in doubt, do not process.
type Lock struct {
	path string
}

// NewLock returns a lock at the given path. Nothing is taken yet.
func NewLock(path string) *Lock {
	return &Lock{path: path}
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Acquire attempts to take the lock. It reports false when another
// live process holds it or the lock state cannot be determined.
func (l *Lock) Acquire() bool {
	if l.tryCreate() {
		return true
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false
	}
	if processAlive(pid) {
		return false
	}

	// Holder is gone; clear the stale file and retry once.
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return false
	}
	return l.tryCreate()
}

// Release removes the lock file. A missing file is fine; Release is
// called from defer paths that may run after a failed Acquire.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

func (l *Lock) tryCreate() bool {
	fd, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return false
	}
	_, werr := fmt.Fprintf(fd, "%d", os.Getpid())
	cerr := fd.Close()
	if werr != nil || cerr != nil {
		os.Remove(l.path)
		return false
	}
	return true
}

// processAlive probes a PID with signal 0. EPERM means the process
// exists under another owner, which still counts as alive.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
		return false
	}
	return true
}
