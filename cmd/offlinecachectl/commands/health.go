package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	"github.com/marmos91/offlinecache/pkg/apiclient"
)

var healthReady bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the daemon's liveness or readiness",
	Long: `Call the daemon's health endpoint. With --ready the readiness probe is
used instead, which fails until a version is active.

Examples:
  offlinecachectl health
  offlinecachectl health --ready`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthReady, "ready", false, "Use the readiness probe")
}

func runHealth(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	probe := client.Health
	if healthReady {
		probe = client.Ready
	}

	resp, err := probe(cmd.Context())
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnavailable() {
			return fmt.Errorf("daemon not ready: %w", err)
		}
		return fmt.Errorf("health check failed: %w", err)
	}

	out := cmd.OutOrStdout()
	return cmdutil.PrintOutput(out, resp, func() error {
		_, err := fmt.Fprintln(out, resp.Status)
		return err
	})
}
