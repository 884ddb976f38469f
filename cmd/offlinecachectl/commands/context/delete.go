package context

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	"github.com/marmos91/offlinecache/internal/cli/credentials"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:               "delete <name>",
	Aliases:           []string{"rm"},
	Short:             "Delete a context",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: contextNames,
	RunE:              runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return cmdutil.RunWithConfirmation(out, fmt.Sprintf("Delete context '%s'?", name), deleteForce, func() error {
		if err := store.Delete(name); err != nil {
			if errors.Is(err, credentials.ErrContextNotFound) {
				return fmt.Errorf("context %q not found", name)
			}
			return err
		}
		cmdutil.PrintSuccess(out, fmt.Sprintf("Context %q deleted", name))
		return nil
	})
}
