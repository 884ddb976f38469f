// Package commands implements the offlinecachectl control-plane client.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	ctxcmd "github.com/marmos91/offlinecache/cmd/offlinecachectl/commands/context"
	"github.com/marmos91/offlinecache/internal/cli/completion"
)

var rootCmd = &cobra.Command{
	Use:   "offlinecachectl",
	Short: "Control client for the offline cache daemon",
	Long: `offlinecachectl talks to the control-plane API of a running offlinecache
daemon: inspect versions and partitions, deliver skipWaiting and
downloadOffline messages, deploy manifests and reset the cache.

Save daemons as named contexts with "offlinecachectl context set".

Use "offlinecachectl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Control-plane URL (overrides the current context)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides the current context)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(messageCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(ctxcmd.Cmd)
	rootCmd.AddCommand(completion.NewCommand("offlinecachectl"))

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
