package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/internal/cli/output"
	"github.com/marmos91/offlinecache/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the offline cache configuration file.

Checks for syntax errors, missing required fields, invalid values and port
collisions between the proxy, API and metrics servers.

Examples:
  offlinecache config validate
  offlinecache config validate --config /etc/offlinecache/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	return output.KeyValues(out, configSummary(cfg))
}

func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.ControlPlane.IsEnabled() && cfg.ControlPlane.Token == "" {
		warnings = append(warnings, "controlplane.token not set - the API accepts unauthenticated requests")
	}
	if cfg.Manifest.Path == "" {
		warnings = append(warnings, "manifest.path not set - nothing is installed until a manifest is deployed")
	}
	if cfg.Storage.Type == "memory" {
		warnings = append(warnings, "memory storage - the cache is lost on restart")
	}
	return warnings
}

func configSummary(cfg *config.Config) [][2]string {
	api := "disabled"
	if cfg.ControlPlane.IsEnabled() {
		api = fmt.Sprintf("%d", cfg.ControlPlane.Port)
	}
	metrics := "disabled"
	if cfg.Metrics.Enabled {
		metrics = fmt.Sprintf("%d", cfg.Metrics.Port)
	}
	storage := cfg.Storage.Type
	if cfg.Storage.Path != "" {
		storage += " (" + cfg.Storage.Path + ")"
	}
	manifest := cfg.Manifest.Path
	if manifest == "" {
		manifest = "-"
	} else if cfg.Manifest.Watch {
		manifest += " (watched)"
	}

	return [][2]string{
		{"Origin", cfg.Origin.URL},
		{"Manifest", manifest},
		{"Storage", storage},
		{"Proxy port", fmt.Sprintf("%d", cfg.Proxy.Port)},
		{"API port", api},
		{"Metrics port", metrics},
		{"Log level", cfg.Logging.Level},
	}
}
