package context

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	"github.com/marmos91/offlinecache/internal/cli/output"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all contexts",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

// contextInfo is the listing shape; tokens are never printed.
type contextInfo struct {
	Name      string `json:"name" yaml:"name"`
	ServerURL string `json:"server_url" yaml:"server_url"`
	HasToken  bool   `json:"has_token" yaml:"has_token"`
	Current   bool   `json:"current" yaml:"current"`
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	current := store.CurrentName()
	var infos []contextInfo
	for _, name := range store.Names() {
		ctx, err := store.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, contextInfo{
			Name:      name,
			ServerURL: ctx.ServerURL,
			HasToken:  ctx.Token != "",
			Current:   name == current,
		})
	}

	out := cmd.OutOrStdout()
	return cmdutil.PrintOutput(out, infos, func() error {
		if len(infos) == 0 {
			_, _ = fmt.Fprintln(out, "No contexts configured.")
			return nil
		}
		table := output.NewTableData("CURRENT", "NAME", "SERVER", "TOKEN")
		for _, info := range infos {
			marker, token := "", "-"
			if info.Current {
				marker = "*"
			}
			if info.HasToken {
				token = "set"
			}
			table.AddRow(marker, info.Name, info.ServerURL, token)
		}
		return output.PrintTable(out, table)
	})
}
