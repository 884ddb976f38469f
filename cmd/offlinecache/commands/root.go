// Package commands implements the offlinecache daemon CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecache/commands/config"
	"github.com/marmos91/offlinecache/internal/cli/completion"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "offlinecache",
	Short: "Offline cache daemon for web applications",
	Long: `offlinecache keeps a web application usable offline.

It installs the application's resource manifest into a local cache, serves
the application through a caching proxy (cache-first for known resources,
network-first for the root document) and swaps versions atomically when a
new manifest is deployed.

Use "offlinecache [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/offlinecache/config.yaml)")

	rootCmd.AddCommand(
		startCmd,
		stopCmd,
		config.Cmd,
		versionCmd,
		completion.NewCommand("offlinecache"),
	)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
