// Package config holds the "offlinecache config" subcommands, which create,
// edit, check and describe the daemon configuration file.
package config

import "github.com/spf13/cobra"

// Cmd groups the configuration subcommands.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Create, inspect and validate the daemon configuration",
	Long: `Manage the offlinecache configuration file.

The file lives at $XDG_CONFIG_HOME/offlinecache/config.yaml unless --config
points elsewhere. Every key may be overridden with an OFFLINECACHE_
environment variable, which "config show" reflects.`,
}

func init() {
	Cmd.AddCommand(initCmd, editCmd, validateCmd, showCmd, schemaCmd)
}
