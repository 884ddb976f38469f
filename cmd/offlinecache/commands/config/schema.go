package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/pkg/config"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schema for configuration",
	Long: `Generate a JSON schema for the configuration file, for editor
autocompletion and external validation.

Examples:
  offlinecache config schema
  offlinecache config schema --output config.schema.json`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Output file (default: stdout)")
}

// generateSchema reflects config.Config. Field names follow the yaml tags
// so the schema validates the file as written.
func generateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		FieldNameTag:   "yaml",
	}
	s := r.Reflect(&config.Config{})
	s.ID = "https://github.com/marmos91/offlinecache/config.schema.json"
	s.Title = "Offline Cache Configuration"
	s.Description = "Configuration file of the offlinecache daemon"
	return json.MarshalIndent(s, "", "  ")
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := generateSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	out := cmd.OutOrStdout()
	if schemaOutput == "" {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if err := os.WriteFile(schemaOutput, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	_, _ = fmt.Fprintf(out, "JSON schema written to %s\n", schemaOutput)
	return nil
}
