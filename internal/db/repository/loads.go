package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"schoolbook/internal/domain"
)

// LoadLedger records load runs in the SQLite ledger. Writes go through the
// write pool; reads can use either pool.
type LoadLedger struct {
	db *sql.DB
}

var _ domain.LoadLedger = (*LoadLedger)(nil)

func NewLoadLedger(db *sql.DB) *LoadLedger {
	return &LoadLedger{db: db}
}

// Record inserts one ledger entry. Runs are append-only; failed runs are
// recorded the same way as successful ones.
func (r *LoadLedger) Record(ctx context.Context, run domain.LoadRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO load_runs (id, dataset, source_path, row_count, column_count, status, error_message, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Dataset, run.SourcePath, run.RowCount, run.ColumnCount,
		run.Status, nullStrFromPtr(run.Error), run.StartedAt, run.FinishedAt,
	)
	return mapDBError(err)
}

// LastRun returns the most recent run for a dataset, or nil when the dataset
// has never been loaded.
func (r *LoadLedger) LastRun(ctx context.Context, dataset string) (*domain.LoadRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, dataset, source_path, row_count, column_count, status, error_message, started_at, finished_at
		 FROM load_runs WHERE dataset = ? ORDER BY started_at DESC, id DESC LIMIT 1`,
		dataset,
	)

	run, err := scanLoadRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapDBError(err)
	}
	return run, nil
}

// ListRuns returns ledger entries newest-first, with optional dataset and
// status filters, plus the total matching count for pagination.
func (r *LoadLedger) ListRuns(ctx context.Context, filter domain.LoadRunFilter) ([]domain.LoadRun, int64, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	if filter.Dataset != nil {
		where = append(where, "dataset = ?")
		args = append(args, *filter.Dataset)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM load_runs"+clause, args...).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dataset, source_path, row_count, column_count, status, error_message, started_at, finished_at
		 FROM load_runs`+clause+` ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	runs := make([]domain.LoadRun, 0, filter.Page.Limit())
	for rows.Next() {
		run, err := scanLoadRun(rows)
		if err != nil {
			return nil, 0, mapDBError(err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLoadRun(row rowScanner) (*domain.LoadRun, error) {
	var run domain.LoadRun
	var errMsg sql.NullString
	if err := row.Scan(
		&run.ID, &run.Dataset, &run.SourcePath, &run.RowCount, &run.ColumnCount,
		&run.Status, &errMsg, &run.StartedAt, &run.FinishedAt,
	); err != nil {
		return nil, err
	}
	run.Error = ptrFromNullStr(errMsg)
	return &run, nil
}

func nullStrFromPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptrFromNullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}
