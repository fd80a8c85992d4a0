package cli

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"schoolbook/internal/db/repository"
	"schoolbook/internal/service/query"
)

func newStatusCmd(opts *rootOpts) *cobra.Command {
	var dataset string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a dataset's row count, columns, and last load",
		Example: `  schoolbook status
  schoolbook status --dataset parks --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, opts, dataset)
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "schools", "Dataset table name")

	return cmd
}

func runStatus(cmd *cobra.Command, opts *rootOpts, dataset string) error {
	st, err := openStores(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := query.NewService(
		repository.NewRecordStore(st.data),
		repository.NewLoadLedger(st.read),
		"", // the search column is irrelevant for status
		cliLogger(),
	)

	status, err := svc.Status(cmd.Context(), dataset)
	if err != nil {
		return err
	}

	if getOutputFormat(cmd) == "json" {
		fields := map[string]interface{}{
			"dataset":      status.Dataset,
			"row_count":    status.RowCount,
			"column_count": len(status.Columns),
			"columns":      status.Columns,
		}
		if status.LastRun != nil {
			fields["last_load"] = loadRunFields(*status.LastRun)
		}
		return printJSON(os.Stdout, fields)
	}

	fields := map[string]interface{}{
		"dataset": status.Dataset,
		"rows":    status.RowCount,
		"columns": strings.Join(status.Columns, ", "),
	}
	if run := status.LastRun; run != nil {
		fields["last_status"] = run.Status
		fields["last_loaded"] = run.FinishedAt.Format(time.RFC3339)
		fields["source"] = run.SourcePath
		if run.Error != nil {
			fields["last_error"] = *run.Error
		}
	}
	printDetail(os.Stdout, fields)
	return nil
}
