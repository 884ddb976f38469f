package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	"github.com/marmos91/offlinecache/internal/cli/output"
	"github.com/marmos91/offlinecache/pkg/runtime"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's versions and partitions",
	Long: `Display the active and waiting versions, the partition names and the
last activation error of the connected daemon.

Examples:
  offlinecachectl status
  offlinecachectl status -o json`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	status, err := client.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	out := cmd.OutOrStdout()
	return cmdutil.PrintOutput(out, status, func() error {
		return output.KeyValues(out, statusPairs(status))
	})
}

func statusPairs(s *runtime.Status) [][2]string {
	pairs := [][2]string{
		{"Origin", s.Origin},
		{"Controlled", fmt.Sprintf("%t", s.Controlled)},
		{"Active", versionSummary(s.Active)},
		{"Waiting", versionSummary(s.Waiting)},
		{"Staging partition", s.Partitions.Staging},
		{"Content partition", s.Partitions.Content},
		{"Manifest partition", s.Partitions.Manifest},
	}
	if s.LastActivationError != "" {
		pairs = append(pairs, [2]string{"Last activation error", s.LastActivationError})
	}
	return pairs
}

func versionSummary(v *runtime.VersionInfo) string {
	if v == nil {
		return "-"
	}
	summary := fmt.Sprintf("%s (%s, %d resources, %d core)", v.ID, v.State, v.Resources, v.Core)
	if v.ActivatedAt != nil {
		summary += ", activated " + v.ActivatedAt.Format(time.RFC3339)
	}
	if v.Resumed {
		summary += ", resumed"
	}
	return summary
}
