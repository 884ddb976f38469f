package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/fetch"
	"github.com/marmos91/offlinecache/pkg/metrics"
)

func TestCreateStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := CreateStorage(ctx, StorageConfig{Type: "memory"})
		require.NoError(t, err)
		defer s.Close()
		assert.NoError(t, s.Healthcheck(ctx))
	})

	t.Run("badger", func(t *testing.T) {
		s, err := CreateStorage(ctx, StorageConfig{Type: "badger", Path: filepath.Join(t.TempDir(), "db")})
		require.NoError(t, err)
		defer s.Close()

		p, err := s.Open(ctx, "offline-app-cache")
		require.NoError(t, err)
		key := cachestore.NewRequestKey("GET", "http://localhost:3000/main.js")
		require.NoError(t, p.Put(ctx, key, &cachestore.Response{Status: 200, Body: []byte("x")}))

		keys, err := p.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []cachestore.RequestKey{key}, keys)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := CreateStorage(ctx, StorageConfig{Type: "redis"})
		assert.Error(t, err)
	})
}

func TestCreateFetcher(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := CreateFetcher(FetchConfig{
		Timeout:   DefaultFetchTimeout,
		UserAgent: "offlinecache-test",
		Headers:   map[string]string{"x-client": "kiosk"},
	})
	resp, err := f.Fetch(context.Background(), fetch.Request{Method: http.MethodGet, URL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "offlinecache-test", got.Get("User-Agent"))
	assert.Equal(t, "kiosk", got.Get("X-Client"))
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	res := InitializeMetrics(GetDefaultConfig())
	assert.Nil(t, res.Server)
	assert.Nil(t, res.Coordinator)
}

func TestInitializeStorage_RegistersBadgerMetrics(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 19090
	cfg.Storage = StorageConfig{Type: "badger", Path: filepath.Join(t.TempDir(), "db")}

	storage, res, err := InitializeStorage(context.Background(), cfg)
	require.NoError(t, err)
	defer storage.Close()
	require.NotNil(t, res.Server)
	require.NotNil(t, res.Coordinator)

	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"offlinecache_badger_cache_hit_ratio",
		"offlinecache_badger_cache_hits_total",
		"offlinecache_badger_cache_misses_total",
	} {
		assert.True(t, names[want], "missing metric family %s", want)
	}
}
