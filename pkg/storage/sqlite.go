package storage

import (
	"os"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// dsnPragmas enables WAL journaling so daemon writers and CLI readers
// coexist, and a busy timeout so concurrent writers queue instead of
// failing with SQLITE_BUSY.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"

func openDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, err
	}
	// One connection per handle; SQLite serializes writers anyway and a
	// single connection keeps transactions on one WAL session.
	db.SetMaxOpenConns(1)
	return db, nil
}

// IntegrityCheck runs the SQLite integrity predicate against a database
// file. A missing file fails the check: every known store is expected to
// exist once the tree is bootstrapped.
func IntegrityCheck(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}

	db, err := openDB(path)
	if err != nil {
		return false
	}
	defer db.Close()

	var result string
	if err := db.Get(&result, `PRAGMA integrity_check`); err != nil {
		return false
	}
	return result == "ok"
}

// IntegrityResult pairs a store name with its integrity verdict.
type IntegrityResult struct {
	Name string
	OK   bool
}

// IntegrityCheckAll verifies every known store in the fixed order the
// recovery gate reports in.
func (s *Stores) IntegrityCheckAll() []IntegrityResult {
	dbs := s.paths.Databases()
	results := make([]IntegrityResult, 0, len(dbs))
	for _, db := range dbs {
		results = append(results, IntegrityResult{Name: db.Name, OK: IntegrityCheck(db.Path)})
	}
	return results
}
