// Package query serves dataset reads: full scans, the optional name
// search, and dataset status.
package query

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"schoolbook/internal/ddl"
	"schoolbook/internal/domain"
)

// Filter narrows a Records call. The zero value returns every row.
type Filter struct {
	// Name is a substring match against the dataset's name column.
	// Matching is case-insensitive; empty means no filter.
	Name string
}

// Service reads dataset tables and the load ledger. Row order of results
// is the store's scan order and carries no guarantee.
type Service struct {
	store             domain.RecordStore
	ledger            domain.LoadLedger
	defaultNameColumn string
	nameColumns       map[string]string
	logger            *slog.Logger
}

// NewService creates the read-side service. defaultNameColumn is the search
// column used for datasets without a per-dataset override.
func NewService(store domain.RecordStore, ledger domain.LoadLedger, defaultNameColumn string, logger *slog.Logger) *Service {
	return &Service{
		store:             store,
		ledger:            ledger,
		defaultNameColumn: defaultNameColumn,
		nameColumns:       make(map[string]string),
		logger:            logger,
	}
}

// SetNameColumn overrides the search column for one dataset. Called during
// wiring (from the manifest), before the service starts taking requests.
func (s *Service) SetNameColumn(dataset, column string) {
	if column != "" {
		s.nameColumns[dataset] = column
	}
}

// NameColumn returns the search column used for a dataset.
func (s *Service) NameColumn(dataset string) string {
	if col, ok := s.nameColumns[dataset]; ok {
		return col
	}
	return s.defaultNameColumn
}

// Records returns the dataset's rows as a RowSet. Without a filter this is
// the unordered full-table scan; with one it is the parameterized substring
// match on the dataset's name column.
func (s *Service) Records(ctx context.Context, dataset string, filter Filter) (domain.RowSet, error) {
	if err := ddl.ValidateIdentifier(dataset); err != nil {
		return domain.RowSet{}, domain.ErrValidation("dataset name: %v", err)
	}

	term := strings.TrimSpace(filter.Name)
	if term == "" {
		return s.store.Scan(ctx, dataset)
	}

	column := s.NameColumn(dataset)
	cols, err := s.store.Columns(ctx, dataset)
	if err != nil {
		return domain.RowSet{}, err
	}
	if !slices.Contains(cols, column) {
		return domain.RowSet{}, domain.ErrValidation("dataset %q has no column %q to search", dataset, column)
	}

	return s.store.Search(ctx, dataset, column, term)
}

// Status reports the dataset's current shape plus its most recent load run.
// A dataset whose table does not exist yet fails with the store's error;
// there is no recovery path below the HTTP layer.
func (s *Service) Status(ctx context.Context, dataset string) (domain.DatasetStatus, error) {
	if err := ddl.ValidateIdentifier(dataset); err != nil {
		return domain.DatasetStatus{}, domain.ErrValidation("dataset name: %v", err)
	}

	count, err := s.store.Count(ctx, dataset)
	if err != nil {
		return domain.DatasetStatus{}, err
	}
	cols, err := s.store.Columns(ctx, dataset)
	if err != nil {
		return domain.DatasetStatus{}, err
	}

	status := domain.DatasetStatus{
		Dataset:  dataset,
		RowCount: count,
		Columns:  cols,
	}
	if s.ledger != nil {
		last, err := s.ledger.LastRun(ctx, dataset)
		if err != nil {
			s.logger.Warn("read last load run failed", "dataset", dataset, "error", err)
		} else {
			status.LastRun = last
		}
	}
	return status, nil
}

// Runs lists ledger entries, newest first.
func (s *Service) Runs(ctx context.Context, filter domain.LoadRunFilter) ([]domain.LoadRun, int64, error) {
	if s.ledger == nil {
		return nil, 0, nil
	}
	return s.ledger.ListRuns(ctx, filter)
}
