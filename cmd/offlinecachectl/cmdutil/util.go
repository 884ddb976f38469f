// Package cmdutil provides shared utilities for offlinecachectl commands.
package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/offlinecache/internal/cli/credentials"
	"github.com/marmos91/offlinecache/internal/cli/output"
	"github.com/marmos91/offlinecache/internal/cli/prompt"
	"github.com/marmos91/offlinecache/pkg/apiclient"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ServerURL string
	Token     string
	Output    string
	NoColor   bool
}

// ResolveContext returns the server URL and token to use. Explicit --server
// and --token flags win over the current stored context.
func ResolveContext() (serverURL, token string, err error) {
	serverURL, token = Flags.ServerURL, Flags.Token

	if serverURL == "" || token == "" {
		store, err := credentials.NewStore()
		if err != nil {
			return "", "", fmt.Errorf("failed to open context store: %w", err)
		}
		_, ctx, err := store.Current()
		switch {
		case err == nil:
			if serverURL == "" {
				serverURL = ctx.ServerURL
			}
			// A stored token only applies to its own server.
			if token == "" && serverURL == ctx.ServerURL {
				token = ctx.Token
			}
		case errors.Is(err, credentials.ErrNoCurrentContext), errors.Is(err, credentials.ErrContextNotFound):
		default:
			return "", "", err
		}
	}

	if serverURL == "" {
		return "", "", errors.New("no server configured. Use --server or run 'offlinecachectl context set <name> --url <url>'")
	}
	return strings.TrimRight(serverURL, "/"), token, nil
}

// GetClient returns an API client for the resolved server.
func GetClient() (*apiclient.Client, error) {
	serverURL, token, err := ResolveContext()
	if err != nil {
		return nil, err
	}
	return apiclient.New(serverURL, apiclient.WithBearer(token)), nil
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// NewPrinter returns a printer for w honoring --output and --no-color.
func NewPrinter(w io.Writer) (*output.Printer, error) {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(w, format, !Flags.NoColor), nil
}

// PrintOutput prints data as JSON or YAML, or calls table for table output.
func PrintOutput(w io.Writer, data any, table func() error) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		return table()
	}
}

// PrintSuccess prints msg in green when the output format is table.
func PrintSuccess(w io.Writer, msg string) {
	p, err := NewPrinter(w)
	if err != nil || p.Format() != output.FormatTable {
		return
	}
	p.Success(msg)
}

// RunWithConfirmation asks label (unless force) and then runs fn. An aborted
// or declined prompt is not an error.
func RunWithConfirmation(w io.Writer, label string, force bool, fn func() error) error {
	confirmed, err := prompt.ConfirmWithForce(label, force)
	if err != nil {
		if prompt.IsAborted(err) {
			_, _ = fmt.Fprintln(w, "\nAborted.")
			return nil
		}
		return err
	}
	if !confirmed {
		_, _ = fmt.Fprintln(w, "Aborted.")
		return nil
	}
	return fn()
}
