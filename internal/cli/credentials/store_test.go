package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_DefaultPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	store, err := NewStore()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, DefaultConfigDir, ConfigFileName), store.Path())

	_, _, err = store.Current()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
	assert.Empty(t, store.Names())
}

func TestStoreOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contexts.json")
	store, err := NewStoreAt(path)
	require.NoError(t, err)

	require.NoError(t, store.Set("local", &Context{ServerURL: "http://localhost:8080"}))
	assert.Equal(t, "local", store.CurrentName(), "first context becomes current")

	require.NoError(t, store.Set("kiosk", &Context{ServerURL: "http://kiosk:8080", Token: "s3cret"}))
	assert.Equal(t, []string{"kiosk", "local"}, store.Names())
	assert.Equal(t, "local", store.CurrentName())

	require.NoError(t, store.Use("kiosk"))
	name, ctx, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "kiosk", name)
	assert.Equal(t, "s3cret", ctx.Token)

	assert.ErrorIs(t, store.Use("missing"), ErrContextNotFound)

	// Persisted across reopen.
	reopened, err := NewStoreAt(path)
	require.NoError(t, err)
	assert.Equal(t, "kiosk", reopened.CurrentName())
	got, err := reopened.Get("local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", got.ServerURL)

	require.NoError(t, reopened.Delete("kiosk"))
	assert.Empty(t, reopened.CurrentName())
	assert.ErrorIs(t, reopened.Delete("kiosk"), ErrContextNotFound)
}

func TestStoreFilePermissions(t *testing.T) {
	if os.PathSeparator == '\\' {
		t.Skip("permission bits are not enforced on Windows")
	}
	path := filepath.Join(t.TempDir(), "nested", "contexts.json")
	store, err := NewStoreAt(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("local", &Context{ServerURL: "http://localhost:8080", Token: "t"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePermissions), info.Mode().Perm())
}

func TestNewStoreAt_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contexts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewStoreAt(path)
	assert.Error(t, err)
}

func TestSet_RequiresName(t *testing.T) {
	store, err := NewStoreAt(filepath.Join(t.TempDir(), "contexts.json"))
	require.NoError(t, err)
	assert.Error(t, store.Set("", &Context{}))
}
