// Package completion provides the shell completion command shared by the
// offlinecache binaries.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

const longHelp = `Generate a shell completion script for %[1]s.

Bash:
  $ %[1]s completion bash > /etc/bash_completion.d/%[1]s

Zsh (enable compinit first with: echo "autoload -U compinit; compinit" >> ~/.zshrc):
  $ %[1]s completion zsh > "${fpath[1]}/_%[1]s"

Fish:
  $ %[1]s completion fish > ~/.config/fish/completions/%[1]s.fish

PowerShell:
  PS> %[1]s completion powershell | Out-String | Invoke-Expression
`

// NewCommand returns a "completion" command for the binary called name.
func NewCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion script",
		Long:                  fmt.Sprintf(longHelp, name),
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
