package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	"github.com/marmos91/offlinecache/internal/cli/output"
)

var entriesCmd = &cobra.Command{
	Use:   "entries [partition]",
	Short: "List the requests stored in a partition",
	Long: `List the request keys stored in a cache partition. The partition is a
name or one of the roles staging, content and manifest (default content).

Examples:
  offlinecachectl entries
  offlinecachectl entries staging
  offlinecachectl entries offline-app-cache -o json`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"staging", "content", "manifest"},
	RunE:      runEntries,
}

func runEntries(cmd *cobra.Command, args []string) error {
	partition := "content"
	if len(args) == 1 {
		partition = args[0]
	}

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	resp, err := client.Entries(cmd.Context(), partition)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", partition, err)
	}

	out := cmd.OutOrStdout()
	return cmdutil.PrintOutput(out, resp, func() error {
		if len(resp.Entries) == 0 {
			_, _ = fmt.Fprintf(out, "Partition %s is empty.\n", resp.Partition)
			return nil
		}
		table := output.NewTableData("REQUEST")
		for _, e := range resp.Entries {
			table.AddRow(e)
		}
		return output.PrintTable(out, table)
	})
}
