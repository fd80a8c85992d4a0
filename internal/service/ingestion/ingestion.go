// Package ingestion implements the offline CSV loader: one-shot full
// replacement of a dataset table from a flat file, recorded in the load
// ledger.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"schoolbook/internal/ddl"
	"schoolbook/internal/domain"
)

// maxConcurrentLoads bounds LoadAll. DuckDB serializes conflicting writes
// internally; the bound just keeps a large manifest from opening one
// transaction per dataset at once.
const maxConcurrentLoads = 4

// Service loads CSV files into dataset tables and records each attempt.
type Service struct {
	replacer domain.TableReplacer
	ledger   domain.LoadLedger
	logger   *slog.Logger
}

func NewService(replacer domain.TableReplacer, ledger domain.LoadLedger, logger *slog.Logger) *Service {
	return &Service{replacer: replacer, ledger: ledger, logger: logger}
}

// Load replaces the dataset's table with the CSV file's contents. The
// replace is atomic: on failure the previous table contents, if any,
// survive. Every attempt is recorded in the ledger, failures included.
//
// Re-running with the same file yields a logically identical table. There
// are no retries and no partial loads.
func (s *Service) Load(ctx context.Context, dataset domain.Dataset) (domain.LoadRun, error) {
	if err := ddl.ValidateIdentifier(dataset.Name); err != nil {
		return domain.LoadRun{}, domain.ErrValidation("dataset name: %v", err)
	}
	if dataset.CSVPath == "" {
		return domain.LoadRun{}, domain.ErrValidation("dataset %q: csv path is required", dataset.Name)
	}

	// Fail before touching the store when the local file is missing.
	// Remote paths (s3://, https://) are left to the store's reader.
	if !isRemotePath(dataset.CSVPath) {
		if _, err := os.Stat(dataset.CSVPath); err != nil {
			if os.IsNotExist(err) {
				return domain.LoadRun{}, domain.ErrNotFound("csv file %q does not exist", dataset.CSVPath)
			}
			return domain.LoadRun{}, fmt.Errorf("stat %s: %w", dataset.CSVPath, err)
		}
	}

	run := domain.LoadRun{
		ID:         domain.NewID(),
		Dataset:    dataset.Name,
		SourcePath: dataset.CSVPath,
		StartedAt:  time.Now().UTC(),
	}

	count, cols, err := s.replacer.ReplaceFromCSV(ctx, dataset.Name, dataset.CSVPath)
	run.FinishedAt = time.Now().UTC()
	if err != nil {
		msg := err.Error()
		run.Status = domain.LoadFailed
		run.Error = &msg
		s.record(ctx, run)
		s.logger.Error("load failed",
			"dataset", dataset.Name,
			"csv", dataset.CSVPath,
			"error", err,
		)
		return run, err
	}

	run.Status = domain.LoadSucceeded
	run.RowCount = count
	run.ColumnCount = len(cols)
	s.record(ctx, run)
	s.logger.Info("load succeeded",
		"dataset", dataset.Name,
		"csv", dataset.CSVPath,
		"rows", count,
		"columns", len(cols),
		"duration_ms", run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
	)
	return run, nil
}

// LoadAll loads every dataset, a bounded number at a time. All datasets are
// attempted even when one fails; the first error is returned alongside the
// runs that completed.
func (s *Service) LoadAll(ctx context.Context, datasets []domain.Dataset) ([]domain.LoadRun, error) {
	if len(datasets) == 0 {
		return nil, domain.ErrValidation("no datasets to load")
	}

	runs := make([]domain.LoadRun, len(datasets))
	g := &errgroup.Group{}
	g.SetLimit(maxConcurrentLoads)

	for i, dataset := range datasets {
		g.Go(func() error {
			run, err := s.Load(ctx, dataset)
			runs[i] = run
			if err != nil {
				return fmt.Errorf("load %s: %w", dataset.Name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return runs, err
}

// Describe reports the file's columns and sniffed types without loading it.
func (s *Service) Describe(ctx context.Context, csvPath string) ([]domain.ColumnSchema, error) {
	if csvPath == "" {
		return nil, domain.ErrValidation("csv path is required")
	}
	if !isRemotePath(csvPath) {
		if _, err := os.Stat(csvPath); err != nil {
			if os.IsNotExist(err) {
				return nil, domain.ErrNotFound("csv file %q does not exist", csvPath)
			}
			return nil, fmt.Errorf("stat %s: %w", csvPath, err)
		}
	}
	return s.replacer.DescribeCSV(ctx, csvPath)
}

// record writes the ledger entry. Ledger failures never fail the load
// itself; the table replacement is the operation that matters.
func (s *Service) record(ctx context.Context, run domain.LoadRun) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(ctx, run); err != nil {
		s.logger.Warn("record load run failed", "dataset", run.Dataset, "error", err)
	}
}

func isRemotePath(p string) bool {
	return strings.HasPrefix(p, "s3://") ||
		strings.HasPrefix(p, "http://") ||
		strings.HasPrefix(p, "https://")
}
