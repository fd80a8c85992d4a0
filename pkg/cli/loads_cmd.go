package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"schoolbook/internal/db/repository"
	"schoolbook/internal/domain"
	"schoolbook/internal/service/query"
)

func newLoadsCmd(opts *rootOpts) *cobra.Command {
	var (
		dataset    string
		status     string
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "loads",
		Short: "List load runs from the ledger, newest first",
		Example: `  schoolbook loads
  schoolbook loads --dataset schools --status failed
  schoolbook loads --max-results 5 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoads(cmd, opts, dataset, status, maxResults)
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "Only runs for this dataset")
	cmd.Flags().StringVar(&status, "status", "", "Only runs with this status: succeeded, failed")
	cmd.Flags().IntVar(&maxResults, "max-results", 20, "Maximum number of runs to list")

	return cmd
}

func runLoads(cmd *cobra.Command, opts *rootOpts, dataset, status string, maxResults int) error {
	filter := domain.LoadRunFilter{
		Page: domain.PageRequest{MaxResults: maxResults},
	}
	if dataset != "" {
		filter.Dataset = &dataset
	}
	if status != "" {
		if status != domain.LoadSucceeded && status != domain.LoadFailed {
			return fmt.Errorf("invalid status %q: use %q or %q", status, domain.LoadSucceeded, domain.LoadFailed)
		}
		filter.Status = &status
	}

	st, err := openStores(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := query.NewService(
		repository.NewRecordStore(st.data),
		repository.NewLoadLedger(st.read),
		"",
		cliLogger(),
	)

	runs, total, err := svc.Runs(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if getOutputFormat(cmd) == "json" {
		out := make([]map[string]interface{}, 0, len(runs))
		for _, run := range runs {
			out = append(out, loadRunFields(run))
		}
		return printJSON(os.Stdout, map[string]interface{}{
			"loads":       out,
			"total_count": total,
		})
	}

	columns := []string{"dataset", "status", "rows", "started", "duration", "source", "error"}
	tableRows := make([][]string, 0, len(runs))
	for _, run := range runs {
		tableRows = append(tableRows, []string{
			run.Dataset,
			run.Status,
			strconv.FormatInt(run.RowCount, 10),
			run.StartedAt.Format(time.RFC3339),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
			run.SourcePath,
			strOrDash(run.Error),
		})
	}
	printTable(os.Stdout, columns, tableRows)
	return nil
}
