package integration

import (
	"testing"
	"time"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

var anchor = time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

// newSystem bootstraps a full institute tree in a temp directory, the
// way institute-init would, and opens the stores over it.
func newSystem(t *testing.T) (*storage.Stores, config.Paths, *types.FixedClock) {
	t.Helper()

	clock := &types.FixedClock{Instant: anchor}
	paths := config.NewPaths(t.TempDir())
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := storage.Bootstrap(paths, clock); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	stores, err := storage.Open(paths)
	if err != nil {
		t.Fatalf("open stores: %v", err)
	}
	t.Cleanup(func() { stores.Close() })

	return stores, paths, clock
}

// auditActions returns every audit action in insertion order.
func auditActions(t *testing.T, stores *storage.Stores) []string {
	t.Helper()
	var actions []string
	if err := stores.Audit.Select(&actions, `SELECT action FROM log ORDER BY id`); err != nil {
		t.Fatalf("read audit trail: %v", err)
	}
	return actions
}

func containsAction(actions []string, want string) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}
