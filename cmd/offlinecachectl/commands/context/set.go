package context

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/cmd/offlinecachectl/cmdutil"
	"github.com/marmos91/offlinecache/internal/cli/credentials"
	"github.com/marmos91/offlinecache/internal/cli/prompt"
)

var (
	setServer      string
	setToken       string
	setPromptToken bool
)

var setCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a context",
	Long: `Create or update a named context. Missing values are prompted for
when running interactively. The first context created becomes current.

Examples:
  offlinecachectl context set local --server http://localhost:8080
  offlinecachectl context set prod --server https://cache.example.com:8080 --ask-token`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	// --server and --token are root persistent flags, so local flags use
	// distinct names.
	setCmd.Flags().StringVar(&setServer, "url", "", "Control-plane URL")
	setCmd.Flags().StringVar(&setToken, "bearer", "", "Bearer token")
	setCmd.Flags().BoolVar(&setPromptToken, "ask-token", false, "Prompt for the Bearer token")
}

func runSet(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}

	ctx := &credentials.Context{}
	if existing, err := store.Get(name); err == nil {
		*ctx = *existing
	}

	serverURL := firstNonEmpty(setServer, cmdutil.Flags.ServerURL)
	if serverURL == "" && ctx.ServerURL == "" {
		serverURL, err = prompt.Input("Control-plane URL", "http://localhost:8080")
		if err != nil {
			return err
		}
	}
	if serverURL != "" {
		if err := validateServerURL(serverURL); err != nil {
			return err
		}
		ctx.ServerURL = serverURL
	}

	token := firstNonEmpty(setToken, cmdutil.Flags.Token)
	if token == "" && setPromptToken {
		token, err = prompt.Secret("Bearer token")
		if err != nil {
			return err
		}
	}
	if token != "" {
		ctx.Token = token
	}

	if err := store.Set(name, ctx); err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}

	cmdutil.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Context %q saved (%s)", name, ctx.ServerURL))
	return nil
}

func validateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q: must be http(s)://host[:port]", raw)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
