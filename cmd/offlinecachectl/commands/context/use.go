package context

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	"github.com/marmos91/offlinecache/internal/cli/credentials"
	"github.com/marmos91/offlinecache/internal/cli/prompt"
)

var useCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Switch to a different context",
	Long: `Select the context used by other commands. Without a name, a context
is picked interactively.

Examples:
  offlinecachectl context use prod
  offlinecachectl context use`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: contextNames,
	RunE:              runUse,
}

func runUse(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		names := store.Names()
		if len(names) == 0 {
			return errors.New("no contexts configured. Run 'offlinecachectl context set <name>' first")
		}
		name, err = prompt.Select("Select context", names)
		if err != nil {
			if prompt.IsAborted(err) {
				return nil
			}
			return err
		}
	}

	if err := store.Use(name); err != nil {
		if errors.Is(err, credentials.ErrContextNotFound) {
			return fmt.Errorf("context %q not found", name)
		}
		return err
	}

	cmdutil.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Switched to context %q", name))
	return nil
}
