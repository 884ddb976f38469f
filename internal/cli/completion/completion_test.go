package completion

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommand(t *testing.T) {
	root := &cobra.Command{Use: "offlinecachectl"}
	root.AddCommand(NewCommand("offlinecachectl"))

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"completion", "bash"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "offlinecachectl")

	root.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, root.Execute())
}
