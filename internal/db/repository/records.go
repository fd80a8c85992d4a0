// Package repository implements data access for the DuckDB dataset store
// and the SQLite load ledger.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schoolbook/internal/ddl"
	"schoolbook/internal/domain"
)

// RecordStore reads and replaces dataset tables in DuckDB.
type RecordStore struct {
	db *sql.DB
}

var (
	_ domain.RecordStore   = (*RecordStore)(nil)
	_ domain.TableReplacer = (*RecordStore)(nil)
)

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Scan returns every row of the table in store scan order. No ORDER BY is
// applied; the ordering is observable but not part of the contract.
func (r *RecordStore) Scan(ctx context.Context, table string) (domain.RowSet, error) {
	stmt, err := ddl.SelectAll(table)
	if err != nil {
		return domain.RowSet{}, domain.ErrValidation("%v", err)
	}

	rows, err := r.db.QueryContext(ctx, stmt)
	if err != nil {
		return domain.RowSet{}, classifyDuckDBError(table, err)
	}
	defer rows.Close() //nolint:errcheck

	return scanRows(rows)
}

// Search returns the rows whose column value contains term,
// case-insensitively. The term is passed as a bind parameter.
func (r *RecordStore) Search(ctx context.Context, table, column, term string) (domain.RowSet, error) {
	stmt, err := ddl.SelectWhereContains(table, column)
	if err != nil {
		return domain.RowSet{}, domain.ErrValidation("%v", err)
	}

	likePattern := "%" + strings.ToLower(term) + "%"
	rows, err := r.db.QueryContext(ctx, stmt, likePattern)
	if err != nil {
		return domain.RowSet{}, classifyDuckDBError(table, err)
	}
	defer rows.Close() //nolint:errcheck

	return scanRows(rows)
}

// Count returns the table's current row count.
func (r *RecordStore) Count(ctx context.Context, table string) (int64, error) {
	stmt, err := ddl.CountRows(table)
	if err != nil {
		return 0, domain.ErrValidation("%v", err)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, stmt).Scan(&count); err != nil {
		return 0, classifyDuckDBError(table, err)
	}
	return count, nil
}

// Columns returns the table's column names in declaration order.
func (r *RecordStore) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`,
		table)
	if err != nil {
		return nil, fmt.Errorf("list columns for %s: %w", table, err)
	}
	defer rows.Close() //nolint:errcheck

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, domain.ErrNotFound("table %q does not exist", table)
	}
	return cols, nil
}

// ReplaceFromCSV atomically replaces table with the file's contents and
// returns the resulting row count and column names. On failure any previous
// table contents survive (the replace is transactional).
func (r *RecordStore) ReplaceFromCSV(ctx context.Context, table, csvPath string) (int64, []string, error) {
	stmt, err := ddl.CreateTableFromCSV(table, csvPath)
	if err != nil {
		return 0, nil, domain.ErrValidation("%v", err)
	}

	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return 0, nil, classifyDuckDBError(table, err)
	}

	count, err := r.Count(ctx, table)
	if err != nil {
		return 0, nil, err
	}
	cols, err := r.Columns(ctx, table)
	if err != nil {
		return 0, nil, err
	}
	return count, cols, nil
}

// DescribeCSV returns the file's columns and sniffed types without loading
// any rows.
func (r *RecordStore) DescribeCSV(ctx context.Context, csvPath string) ([]domain.ColumnSchema, error) {
	stmt, err := ddl.DescribeCSV(csvPath)
	if err != nil {
		return nil, domain.ErrValidation("%v", err)
	}

	rows, err := r.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, classifyDuckDBError("", err)
	}
	defer rows.Close() //nolint:errcheck

	// DESCRIBE returns column_name, column_type, null, key, default, extra.
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var schema []domain.ColumnSchema
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		schema = append(schema, domain.ColumnSchema{
			Name: asString(vals[0]),
			Type: asString(vals[1]),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schema, nil
}

func scanRows(rows *sql.Rows) (domain.RowSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return domain.RowSet{}, err
	}

	var resultRows [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.RowSet{}, err
		}
		// Convert byte slices to strings for rendering and JSON serialization
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.RowSet{}, err
	}

	return domain.RowSet{
		Columns:  cols,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// classifyDuckDBError translates driver error text into the domain taxonomy.
// DuckDB reports missing tables and unreadable files as catalog/IO errors
// with stable message fragments.
func classifyDuckDBError(table string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "does not exist"):
		if table != "" {
			return domain.ErrNotFound("table %q does not exist", table)
		}
		return domain.ErrNotFound("%s", msg)
	case strings.Contains(msg, "No files found"):
		return domain.ErrNotFound("%s", msg)
	case strings.Contains(msg, "Invalid Input"), strings.Contains(msg, "CSV Error"):
		return domain.ErrValidation("%s", msg)
	default:
		return fmt.Errorf("duckdb: %w", err)
	}
}
