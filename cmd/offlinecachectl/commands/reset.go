package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every cache partition",
	Long: `Delete the staging, content and manifest partitions of the daemon.
Resources are fetched from the network again until a manifest is installed.

Examples:
  offlinecachectl reset
  offlinecachectl reset --force`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Skip confirmation")
}

func runReset(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return cmdutil.RunWithConfirmation(out, "Delete every cache partition?", resetForce, func() error {
		if err := client.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reset cache: %w", err)
		}
		cmdutil.PrintSuccess(out, "Cache reset")
		return nil
	})
}
