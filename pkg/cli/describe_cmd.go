package cli

import (
	"os"

	"github.com/spf13/cobra"

	"schoolbook/internal/db"
	"schoolbook/internal/db/repository"
	"schoolbook/internal/service/ingestion"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <csv>",
		Short: "Show the columns and sniffed types of a CSV file without loading it",
		Example: `  schoolbook describe Schools.csv
  schoolbook describe Parks.csv --output json`,
		Args: cobra.ExactArgs(1),
		RunE: runDescribe,
	}
	return cmd
}

func runDescribe(cmd *cobra.Command, args []string) error {
	// Sniffing runs against an in-memory database so the configured
	// --data-db file is never opened or created.
	dataDB, err := db.OpenDuckDB("")
	if err != nil {
		return err
	}
	defer dataDB.Close() //nolint:errcheck

	svc := ingestion.NewService(repository.NewRecordStore(dataDB), nil, cliLogger())

	cols, err := svc.Describe(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if getOutputFormat(cmd) == "json" {
		out := make([]map[string]interface{}, 0, len(cols))
		for _, col := range cols {
			out = append(out, map[string]interface{}{
				"name": col.Name,
				"type": col.Type,
			})
		}
		return printJSON(os.Stdout, out)
	}

	columns := []string{"column", "type"}
	rows := make([][]string, 0, len(cols))
	for _, col := range cols {
		rows = append(rows, []string{col.Name, col.Type})
	}
	printTable(os.Stdout, columns, rows)
	return nil
}
