package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/offlinecache/internal/cli/credentials"
	"github.com/marmos91/offlinecache/pkg/api/handlers"
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/runtime"
)

const testToken = "s3cret"

// fakeDaemon serves the control-plane routes offlinecachectl calls.
type fakeDaemon struct {
	messages []string
	resets   int
	deployed []byte
}

func (f *fakeDaemon) status() *runtime.Status {
	activated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &runtime.Status{
		Origin:     "http://localhost:3000",
		Controlled: true,
		Active: &runtime.VersionInfo{
			ID:          "v1",
			State:       runtime.StateActivated,
			Resources:   3,
			Core:        2,
			ActivatedAt: &activated,
		},
		Partitions: coordinator.DefaultPartitions(),
	}
}

func (f *fakeDaemon) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, handlers.Response{Status: "healthy"})
	})
	mux.HandleFunc("GET /health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, handlers.Response{Status: "unhealthy", Error: "no active version"})
	})
	mux.HandleFunc("GET /api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, f.status())
	})
	mux.HandleFunc("POST /api/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		var req handlers.MessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.messages = append(f.messages, req.Message)
		writeJSON(w, handlers.MessageResponse{Message: req.Message, Status: f.status()})
	})
	mux.HandleFunc("GET /api/v1/partitions/{name}/entries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, handlers.EntriesResponse{
			Partition: r.PathValue("name"),
			Entries:   []string{"GET http://localhost:3000/main.dart.js", "GET http://localhost:3000/"},
		})
	})
	mux.HandleFunc("POST /api/v1/reset", func(w http.ResponseWriter, r *http.Request) {
		f.resets++
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v1/manifest", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		f.deployed = body
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, runtime.VersionInfo{ID: "v2", Digest: "sha256:abc", State: runtime.StateInstalled, Resources: 1})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/health") && r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]any{"status": 401, "title": "Unauthorized", "detail": "invalid token"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func newFakeDaemon(t *testing.T) (*fakeDaemon, *httptest.Server) {
	t.Helper()
	f := &fakeDaemon{}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return f, srv
}

// execute runs the root command with args and returns its output. Flag
// values are reset afterwards since the command tree is package state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestStatus(t *testing.T) {
	_, srv := newFakeDaemon(t)

	out, err := execute(t, "status", "--server", srv.URL, "--token", testToken)
	require.NoError(t, err)
	assert.Contains(t, out, "http://localhost:3000")
	assert.Contains(t, out, "v1 (activated, 3 resources, 2 core)")
	assert.Contains(t, out, "offline-app-cache")
}

func TestStatusJSON(t *testing.T) {
	_, srv := newFakeDaemon(t)

	out, err := execute(t, "status", "--server", srv.URL, "--token", testToken, "-o", "json")
	require.NoError(t, err)

	var status runtime.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.Controlled)
	require.NotNil(t, status.Active)
	assert.Equal(t, "v1", status.Active.ID)
}

func TestStatusRequiresToken(t *testing.T) {
	_, srv := newFakeDaemon(t)

	_, err := execute(t, "status", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestHealth(t *testing.T) {
	_, srv := newFakeDaemon(t)

	out, err := execute(t, "health", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "healthy")

	_, err = execute(t, "health", "--ready", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestMessages(t *testing.T) {
	f, srv := newFakeDaemon(t)

	_, err := execute(t, "message", "skip-waiting", "--server", srv.URL, "--token", testToken)
	require.NoError(t, err)
	_, err = execute(t, "message", "download-offline", "--server", srv.URL, "--token", testToken)
	require.NoError(t, err)

	assert.Equal(t, []string{coordinator.MessageSkipWaiting, coordinator.MessageDownloadOffline}, f.messages)
}

func TestEntries(t *testing.T) {
	_, srv := newFakeDaemon(t)

	out, err := execute(t, "entries", "staging", "--server", srv.URL, "--token", testToken, "-o", "json")
	require.NoError(t, err)

	var resp handlers.EntriesResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "staging", resp.Partition)
	assert.Len(t, resp.Entries, 2)

	out, err = execute(t, "entries", "--server", srv.URL, "--token", testToken)
	require.NoError(t, err)
	assert.Contains(t, out, "main.dart.js")
}

func TestResetForce(t *testing.T) {
	f, srv := newFakeDaemon(t)

	_, err := execute(t, "reset", "--force", "--server", srv.URL, "--token", testToken)
	require.NoError(t, err)
	assert.Equal(t, 1, f.resets)
}

func TestDeploy(t *testing.T) {
	f, srv := newFakeDaemon(t)

	manifest := `{"resources":{"/main.dart.js":"abc"},"core":["/main.dart.js"]}`
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0644))

	out, err := execute(t, "deploy", path, "--server", srv.URL, "--token", testToken)
	require.NoError(t, err)
	assert.Contains(t, out, "sha256:abc")
	assert.JSONEq(t, manifest, string(f.deployed))
}

func TestDeployRejectsInvalidJSON(t *testing.T) {
	f, srv := newFakeDaemon(t)

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := execute(t, "deploy", path, "--server", srv.URL, "--token", testToken)
	require.Error(t, err)
	assert.Nil(t, f.deployed)
}

func TestStatusUsesStoredContext(t *testing.T) {
	_, srv := newFakeDaemon(t)

	configHome := t.TempDir()
	store, err := credentials.NewStoreAt(filepath.Join(configHome, credentials.DefaultConfigDir, credentials.ConfigFileName))
	require.NoError(t, err)
	require.NoError(t, store.Set("local", &credentials.Context{ServerURL: srv.URL, Token: testToken}))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"status"})
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		resetFlags(rootCmd)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "v1 (activated")
}

func TestContextLifecycle(t *testing.T) {
	configHome := t.TempDir()
	run := func(args ...string) (string, error) {
		var buf bytes.Buffer
		rootCmd.SetOut(&buf)
		rootCmd.SetErr(&buf)
		rootCmd.SetArgs(args)
		defer resetFlags(rootCmd)
		err := rootCmd.Execute()
		return buf.String(), err
	}
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	_, err := run("context", "set", "local", "--url", "http://localhost:8080")
	require.NoError(t, err)
	_, err = run("context", "set", "prod", "--url", "https://cache.example.com", "--bearer", "tok")
	require.NoError(t, err)

	_, err = run("context", "set", "bad", "--url", "ftp://nope")
	require.Error(t, err)

	out, err := run("context", "current")
	require.NoError(t, err)
	assert.Contains(t, out, "local")

	_, err = run("context", "use", "prod")
	require.NoError(t, err)

	out, err = run("context", "list", "-o", "json")
	require.NoError(t, err)
	var infos []contextInfoView
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "prod", infos[1].Name)
	assert.True(t, infos[1].Current)
	assert.True(t, infos[1].HasToken)

	_, err = run("context", "delete", "prod", "--force")
	require.NoError(t, err)

	_, err = run("context", "current")
	require.Error(t, err)

	_, err = run("context", "use", "missing")
	require.Error(t, err)
}

// contextInfoView mirrors the JSON shape printed by "context list".
type contextInfoView struct {
	Name     string `json:"name"`
	Current  bool   `json:"current"`
	HasToken bool   `json:"has_token"`
}
