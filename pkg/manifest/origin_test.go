package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrigin(t *testing.T) {
	o, err := ParseOrigin("https://app.example/")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example", o.String())

	o, err = ParseOrigin("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", o.String())

	for _, raw := range []string{
		"app.example",
		"ftp://app.example",
		"https://app.example/sub",
		"https://app.example/?q=1",
		"https://app.example/#x",
		"https://",
	} {
		_, err := ParseOrigin(raw)
		assert.Error(t, err, raw)
	}
}

func TestOriginKey(t *testing.T) {
	o := MustParseOrigin("https://app.example")

	tests := []struct {
		url  string
		key  string
		owns bool
	}{
		{"https://app.example", RootKey, true},
		{"https://app.example/", RootKey, true},
		{"https://app.example/#/settings", RootKey, true},
		{"https://app.example#top", RootKey, true},
		{"https://app.example/?v=123", RootKey, true},
		{"https://app.example?v=123", RootKey, true},
		{"https://app.example/main.dart.js", "main.dart.js", true},
		{"https://app.example/main.dart.js?v=abc", "main.dart.js", true},
		{"https://app.example/assets/fonts/a.otf", "assets/fonts/a.otf", true},
		{"https://app.example/api/data?q=1", "api/data?q=1", true},
		{"https://app.example.org/main.dart.js", "", false},
		{"https://cdn.example/main.dart.js", "", false},
		{"http://app.example/main.dart.js", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			key, ok := o.Key(tt.url)
			assert.Equal(t, tt.owns, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestOriginURL(t *testing.T) {
	o := MustParseOrigin("https://app.example/")

	assert.Equal(t, "https://app.example/", o.URL(RootKey))
	assert.Equal(t, "https://app.example/main.dart.js", o.URL("main.dart.js"))

	// Canonical URLs round-trip to their key.
	for _, k := range []string{RootKey, "index.html", "assets/a.png"} {
		key, ok := o.Key(o.URL(k))
		require.True(t, ok)
		assert.Equal(t, k, key)
	}
}

func TestMustParseOriginPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseOrigin("not a url") })
}
