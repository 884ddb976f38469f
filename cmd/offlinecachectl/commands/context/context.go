// Package context implements context management subcommands for
// offlinecachectl.
package context

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/internal/cli/credentials"
)

// Cmd is the context subcommand.
var Cmd = &cobra.Command{
	Use:   "context",
	Short: "Manage daemon contexts",
	Long: `Manage named contexts, one per offlinecache daemon. A context stores the
control-plane URL and the Bearer token.

Subcommands:
  set      Create or update a context
  use      Switch to a different context
  list     List all contexts
  current  Show the current context
  delete   Delete a context`,
}

func init() {
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(useCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(currentCmd)
	Cmd.AddCommand(deleteCmd)
}

func openStore() (*credentials.Store, error) {
	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open context store: %w", err)
	}
	return store, nil
}

// contextNames completes context names for use and delete.
func contextNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	store, err := credentials.NewStore()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return store.Names(), cobra.ShellCompDirectiveNoFileComp
}
