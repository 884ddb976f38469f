package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), buildinfo.Summary("offlinecachectl"))
	},
}
