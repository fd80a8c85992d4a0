// Package cli implements the schoolbook command line interface: the
// offline CSV loader plus inspection commands over the dataset store and
// the load ledger. Commands open the stores directly; no server needs to
// be running.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// rootOpts holds the resolved persistent flags shared by every command.
type rootOpts struct {
	dataDB string
	metaDB string
	output string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	rootCmd := &cobra.Command{
		Use:           "schoolbook",
		Short:         "School records loader and store inspector",
		Long: `Command-line interface for the schoolbook record store.

Loads CSV files into DuckDB dataset tables (full replace per load, every
attempt recorded in the SQLite load ledger) and inspects what the store
currently serves.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Precedence: flag > env > default. The env names match the
			// server's configuration.
			if !cmd.Flags().Changed("data-db") {
				if v := os.Getenv("DATA_DB_PATH"); v != "" {
					opts.dataDB = v
				}
			}
			if !cmd.Flags().Changed("meta-db") {
				if v := os.Getenv("META_DB_PATH"); v != "" {
					opts.metaDB = v
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("SCHOOLBOOK_OUTPUT"); v != "" {
					opts.output = v
				}
			}
			return validateOutputFormat(opts.output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.dataDB, "data-db", "schoolbook.duckdb", "Path to the DuckDB dataset store")
	rootCmd.PersistentFlags().StringVar(&opts.metaDB, "meta-db", "schoolbook_meta.sqlite", "Path to the SQLite load ledger")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newLoadCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newLoadsCmd(opts))
	rootCmd.AddCommand(newDescribeCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Shell completions
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
