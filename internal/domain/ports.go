package domain

import "context"

// RecordStore provides read access to loaded dataset tables.
// Implemented by repository.RecordStore.
type RecordStore interface {
	// Scan returns every row of the table in store scan order.
	Scan(ctx context.Context, table string) (RowSet, error)
	// Search returns the rows whose column value contains term.
	Search(ctx context.Context, table, column, term string) (RowSet, error)
	// Count returns the table's current row count.
	Count(ctx context.Context, table string) (int64, error)
	// Columns returns the table's column names in declaration order.
	Columns(ctx context.Context, table string) ([]string, error)
}

// TableReplacer replaces a dataset table from a CSV source.
// Implemented by repository.RecordStore.
type TableReplacer interface {
	// ReplaceFromCSV atomically replaces table with the file's contents and
	// returns the resulting row count and column names.
	ReplaceFromCSV(ctx context.Context, table, csvPath string) (int64, []string, error)
	// DescribeCSV returns the file's columns and sniffed types without
	// loading any rows.
	DescribeCSV(ctx context.Context, csvPath string) ([]ColumnSchema, error)
}

// LoadLedger records and lists load runs.
// Implemented by repository.LoadLedger.
type LoadLedger interface {
	Record(ctx context.Context, run LoadRun) error
	// LastRun returns the most recent run for a dataset, or nil when the
	// dataset has never been loaded.
	LastRun(ctx context.Context, dataset string) (*LoadRun, error)
	ListRuns(ctx context.Context, filter LoadRunFilter) ([]LoadRun, int64, error)
}
