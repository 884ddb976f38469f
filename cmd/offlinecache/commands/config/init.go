package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sample configuration file",
	Long: `Write a configuration file populated with default values.

The file is written to $XDG_CONFIG_HOME/offlinecache/config.yaml unless
--config names another path.

Examples:
  # Create the default config
  offlinecache config init

  # Overwrite an existing file
  offlinecache config init --force

  # Write to a custom path
  offlinecache config init --config ./offlinecache.yaml`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	if configPath == "" {
		path, err := config.InitConfig(initForce)
		if err != nil {
			return err
		}
		configPath = path
	} else if err := config.InitConfigToPath(configPath, initForce); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration written to %s\n\n", configPath)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintln(out, "  1. Set origin.url and manifest.path")
	_, _ = fmt.Fprintln(out, "  2. Set controlplane.token to protect the API")
	_, _ = fmt.Fprintf(out, "  3. Start the daemon: offlinecache start --config %s\n", configPath)
	return nil
}
