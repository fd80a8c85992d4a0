package domain

import "time"

// Load run statuses recorded in the ledger.
const (
	LoadSucceeded = "succeeded"
	LoadFailed    = "failed"
)

// Dataset describes one loadable CSV-backed table.
type Dataset struct {
	// Name is the table name in the data store. Must be a valid SQL
	// identifier.
	Name string
	// CSVPath is the source file. The header row supplies the column names
	// verbatim.
	CSVPath string
	// NameColumn is the column the name search filters on. Optional; when
	// empty the serving path falls back to the configured default.
	NameColumn string
}

// LoadRun is one ledger record per load attempt, successful or not.
type LoadRun struct {
	ID          string
	Dataset     string
	SourcePath  string
	RowCount    int64
	ColumnCount int
	Status      string
	Error       *string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Succeeded reports whether the run completed with a replaced table.
func (r LoadRun) Succeeded() bool { return r.Status == LoadSucceeded }

// DatasetStatus is the serving-side view of one dataset: current table
// shape plus the most recent ledger entry, if any.
type DatasetStatus struct {
	Dataset  string
	RowCount int64
	Columns  []string
	LastRun  *LoadRun
}

// LoadRunFilter holds filter parameters for listing ledger entries.
type LoadRunFilter struct {
	Dataset *string
	Status  *string
	Page    PageRequest
}
