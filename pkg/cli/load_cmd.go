package cli

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"schoolbook/internal/db/repository"
	"schoolbook/internal/domain"
	"schoolbook/internal/manifest"
	"schoolbook/internal/service/ingestion"
)

func newLoadCmd(opts *rootOpts) *cobra.Command {
	var (
		csvPath      string
		dataset      string
		nameColumn   string
		manifestPath string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load CSV files into the dataset store",
		Long: `Load replaces a dataset table with a CSV file's contents in one
transaction: columns come verbatim from the header row, types from the
store's sniffer. On failure the previous table contents survive. Every
attempt is recorded in the load ledger.`,
		Example: `  # Load one CSV into the default "schools" table
  schoolbook load --csv Schools.csv

  # Load into a named dataset with its own search column
  schoolbook load --csv Parks.csv --dataset parks --name-column PARK_NAME

  # Load every dataset declared in a manifest
  schoolbook load --manifest datasets.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd, opts, csvPath, dataset, nameColumn, manifestPath)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file to load")
	cmd.Flags().StringVar(&dataset, "dataset", "schools", "Dataset table name")
	cmd.Flags().StringVar(&nameColumn, "name-column", "", "Column the name search filters on")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "YAML manifest of datasets to load")

	return cmd
}

func runLoad(cmd *cobra.Command, opts *rootOpts, csvPath, dataset, nameColumn, manifestPath string) error {
	var datasets []domain.Dataset
	switch {
	case csvPath != "" && manifestPath != "":
		return errors.New("--csv and --manifest are mutually exclusive")
	case manifestPath != "":
		m, err := manifest.Load(manifestPath)
		if err != nil {
			return err
		}
		datasets = m.Domain()
	case csvPath != "":
		datasets = []domain.Dataset{{Name: dataset, CSVPath: csvPath, NameColumn: nameColumn}}
	default:
		return errors.New("either --csv or --manifest is required")
	}

	st, err := openStores(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := ingestion.NewService(
		repository.NewRecordStore(st.data),
		repository.NewLoadLedger(st.write),
		cliLogger(),
	)

	// All datasets are attempted even when one fails; the first failure
	// still makes the command exit non-zero.
	runs, loadErr := svc.LoadAll(cmd.Context(), datasets)

	if getOutputFormat(cmd) == "json" {
		out := make([]map[string]interface{}, 0, len(runs))
		for _, run := range runs {
			if run.Dataset == "" {
				continue // rejected before a run started
			}
			out = append(out, loadRunFields(run))
		}
		if err := printJSON(os.Stdout, out); err != nil {
			return err
		}
		return loadErr
	}

	columns := []string{"dataset", "status", "rows", "columns", "duration", "error"}
	tableRows := make([][]string, 0, len(runs))
	for _, run := range runs {
		if run.Dataset == "" {
			continue
		}
		tableRows = append(tableRows, []string{
			run.Dataset,
			run.Status,
			strconv.FormatInt(run.RowCount, 10),
			strconv.Itoa(run.ColumnCount),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
			strOrDash(run.Error),
		})
	}
	printTable(os.Stdout, columns, tableRows)
	return loadErr
}

// loadRunFields maps a ledger run onto the JSON field names the API uses.
func loadRunFields(run domain.LoadRun) map[string]interface{} {
	fields := map[string]interface{}{
		"id":           run.ID,
		"dataset":      run.Dataset,
		"source_path":  run.SourcePath,
		"row_count":    run.RowCount,
		"column_count": run.ColumnCount,
		"status":       run.Status,
		"started_at":   run.StartedAt,
		"finished_at":  run.FinishedAt,
	}
	if run.Error != nil {
		fields["error_message"] = *run.Error
	}
	return fields
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
