package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	"github.com/marmos91/offlinecache/internal/cli/output"
	"github.com/marmos91/offlinecache/pkg/coordinator"
)

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Deliver a control message to the daemon",
	Long: `Deliver one of the control messages a page can post to the cache.

Subcommands:
  skip-waiting      Activate the waiting version now
  download-offline  Add every resource of the active manifest to the cache`,
}

var skipWaitingCmd = &cobra.Command{
	Use:   "skip-waiting",
	Short: "Activate the waiting version now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return postMessage(cmd, coordinator.MessageSkipWaiting)
	},
}

var downloadOfflineCmd = &cobra.Command{
	Use:   "download-offline",
	Short: "Cache every resource of the active manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return postMessage(cmd, coordinator.MessageDownloadOffline)
	},
}

func init() {
	messageCmd.AddCommand(skipWaitingCmd)
	messageCmd.AddCommand(downloadOfflineCmd)
}

func postMessage(cmd *cobra.Command, message string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	resp, err := client.PostMessage(cmd.Context(), message)
	if err != nil {
		return fmt.Errorf("failed to deliver %s: %w", message, err)
	}

	out := cmd.OutOrStdout()
	return cmdutil.PrintOutput(out, resp, func() error {
		cmdutil.PrintSuccess(out, fmt.Sprintf("Delivered %s", message))
		if resp.Status == nil {
			return nil
		}
		return output.KeyValues(out, statusPairs(resp.Status))
	})
}
