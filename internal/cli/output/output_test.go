package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  yaml  ", want: FormatYAML},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)

	p.Success("installed")
	p.Warning("waiting")
	p.Error("failed")
	assert.Equal(t, "installed\nwaiting\nfailed\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatTable, true).Success("ok")
	assert.Equal(t, "\033[32mok\033[0m\n", buf.String())
}

func TestPrinterPrint(t *testing.T) {
	data := NewTableData("Partition", "Entries")
	data.AddRow("offline-app-cache", "12")

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(data))
	assert.Contains(t, buf.String(), "PARTITION")
	assert.Contains(t, buf.String(), "offline-app-cache")

	type entry struct {
		Key string `json:"key" yaml:"key"`
	}

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(entry{Key: "main.js"}))
	assert.JSONEq(t, `{"key":"main.js"}`, buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(entry{Key: "main.js"}))
	assert.Equal(t, "key: main.js\n", buf.String())

	// Non-renderers fall back to JSON in table mode.
	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print([]string{"a"}))
	assert.JSONEq(t, `["a"]`, buf.String())
}

func TestKeyValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, KeyValues(&buf, [][2]string{
		{"Origin", "https://app.example.com"},
		{"Controlled", "yes"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Origin")
	assert.Contains(t, out, "https://app.example.com")
	assert.Contains(t, out, "Controlled")
}
