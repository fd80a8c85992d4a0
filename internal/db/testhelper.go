package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a hardened SQLite write/read pool pair in t.TempDir(),
// runs all pending ledger migrations on the write pool, and registers cleanup.
//
// Tests that don't need the read/write split can use writeDB for everything.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite")

	writeDB, readDB, err := OpenSQLitePair(path, 4)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return writeDB, readDB
}

// OpenTestDuckDB opens an in-memory DuckDB database and registers cleanup.
func OpenTestDuckDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenDuckDB("")
	if err != nil {
		t.Fatalf("open test duckdb: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
