package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
)

// OpenDuckDB opens a *sql.DB for the given DuckDB file path. An empty path
// opens an in-memory database, which is what the tests use.
//
// DuckDB coordinates concurrent readers internally, so the pool keeps the
// driver defaults. Loads go through the same handle; CREATE OR REPLACE is
// transactional, so readers never observe a half-replaced table.
func OpenDuckDB(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	return db, nil
}
