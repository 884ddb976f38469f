package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	"github.com/marmos91/offlinecache/internal/cli/output"
)

var deployCmd = &cobra.Command{
	Use:   "deploy <manifest.json|->",
	Short: "Register a new manifest with the daemon",
	Long: `Send a Resource Table to the daemon. A new version is installed and
either activated or left waiting. Registering the manifest already in use
is a no-op. Use "-" to read from stdin.

Examples:
  offlinecachectl deploy build/web/manifest.json
  cat manifest.json | offlinecachectl deploy -`,
	Args: cobra.ExactArgs(1),
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	info, err := client.Deploy(cmd.Context(), data)
	if err != nil {
		return fmt.Errorf("failed to deploy manifest: %w", err)
	}

	out := cmd.OutOrStdout()
	return cmdutil.PrintOutput(out, info, func() error {
		cmdutil.PrintSuccess(out, fmt.Sprintf("Version %s is %s", info.ID, info.State))
		return output.KeyValues(out, [][2]string{
			{"Digest", info.Digest},
			{"Resources", fmt.Sprintf("%d", info.Resources)},
			{"Core", fmt.Sprintf("%d", info.Core)},
		})
	})
}
