package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"schoolbook/internal/db"
)

// stores bundles the handles a command needs: the DuckDB dataset store plus
// the SQLite ledger's write/read pool pair.
type stores struct {
	data  *sql.DB
	write *sql.DB
	read  *sql.DB
}

// openStores opens both stores and migrates the ledger schema. Callers must
// Close when the command finishes so the next invocation can reopen the
// same files.
func openStores(opts *rootOpts) (*stores, error) {
	dataDB, err := db.OpenDuckDB(opts.dataDB)
	if err != nil {
		return nil, fmt.Errorf("open data store %s: %w", opts.dataDB, err)
	}

	writeDB, readDB, err := db.OpenSQLitePair(opts.metaDB, 0)
	if err != nil {
		_ = dataDB.Close()
		return nil, fmt.Errorf("open ledger %s: %w", opts.metaDB, err)
	}

	if err := db.RunMigrations(writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		_ = dataDB.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}

	return &stores{data: dataDB, write: writeDB, read: readDB}, nil
}

func (s *stores) Close() {
	_ = s.read.Close()
	_ = s.write.Close()
	_ = s.data.Close()
}

// cliLogger is the logger handed to the services. Command output goes to
// stdout; service logs surface on stderr at warn and above so table and
// JSON output stay parseable.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
