package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/cachestore/memory"
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/fetch"
	"github.com/marmos91/offlinecache/pkg/manifest"
	"github.com/marmos91/offlinecache/pkg/runtime"
)

// fakeFetcher records the last request and returns a canned result.
type fakeFetcher struct {
	mu      sync.Mutex
	last    fetch.Request
	result  *coordinator.Result
	handled bool
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, req fetch.Request) (*coordinator.Result, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	return f.result, f.handled, f.err
}

func newOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Origin", "yes")
		_, _ = io.WriteString(w, "origin:"+r.Method+" "+r.URL.RequestURI())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProxy(t *testing.T, origin string, f Fetcher) *httptest.Server {
	t.Helper()
	router, err := NewRouter(manifest.MustParseOrigin(origin), f)
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, method, url string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("If-None-Match", `"abc"`)
	req.Header.Set("Accept-Language", "it")
	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHandledResponseIsWrittenWithSource(t *testing.T) {
	origin := newOrigin(t)
	f := &fakeFetcher{
		handled: true,
		result: &coordinator.Result{
			Key:    "main.dart.js",
			Source: coordinator.SourceCache,
			Response: &cachestore.Response{
				Status: http.StatusOK,
				Header: http.Header{"Content-Type": {"application/javascript"}, "Content-Length": {"999"}},
				Body:   []byte("cached"),
			},
		},
	}
	proxy := newProxy(t, origin.URL, f)

	resp, body := get(t, http.MethodGet, proxy.URL+"/main.dart.js?v=42")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cached", body)
	assert.Equal(t, "hit", resp.Header.Get(HeaderSource))
	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
	assert.Equal(t, "6", resp.Header.Get("Content-Length"))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, http.MethodGet, f.last.Method)
	assert.Equal(t, origin.URL+"/main.dart.js?v=42", f.last.URL)
	assert.Empty(t, f.last.Header.Get("Accept-Encoding"))
	assert.Empty(t, f.last.Header.Get("If-None-Match"))
	assert.Equal(t, "it", f.last.Header.Get("Accept-Language"))
}

func TestDeclinedRequestIsPassedThrough(t *testing.T) {
	origin := newOrigin(t)
	proxy := newProxy(t, origin.URL, &fakeFetcher{})

	resp, body := get(t, http.MethodPost, proxy.URL+"/api/login?x=1")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "origin:POST /api/login?x=1", body)
	assert.Equal(t, "yes", resp.Header.Get("X-Origin"))
	assert.Empty(t, resp.Header.Get(HeaderSource))
}

func TestFetchErrorIsBadGateway(t *testing.T) {
	origin := newOrigin(t)
	proxy := newProxy(t, origin.URL, &fakeFetcher{handled: true, err: errors.New("connection refused")})

	resp, _ := get(t, http.MethodGet, proxy.URL+"/logo.png")

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(HeaderSource))
}

func TestPassthroughToUnreachableOriginIsBadGateway(t *testing.T) {
	origin := newOrigin(t)
	url := origin.URL
	origin.Close()
	proxy := newProxy(t, url, &fakeFetcher{})

	resp, _ := get(t, http.MethodGet, proxy.URL+"/unknown")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestEndToEndThroughRuntime(t *testing.T) {
	origin := newOrigin(t)
	rt, err := runtime.New(runtime.Config{
		Origin:  manifest.MustParseOrigin(origin.URL),
		Storage: memory.New(),
		Fetcher: fetch.New(),
	})
	require.NoError(t, err)
	_, err = rt.Register(context.Background(), &manifest.Manifest{
		Resources: manifest.ResourceTable{
			"/":            "root",
			"main.dart.js": "h1",
			"logo.png":     "h2",
		},
		Core: []string{"main.dart.js"},
	})
	require.NoError(t, err)

	proxy := newProxy(t, origin.URL, rt)

	resp, body := get(t, http.MethodGet, proxy.URL+"/main.dart.js?v=7")
	assert.Equal(t, "hit", resp.Header.Get(HeaderSource))
	assert.Equal(t, "origin:GET /main.dart.js", body)

	resp, _ = get(t, http.MethodGet, proxy.URL+"/logo.png")
	assert.Equal(t, "network", resp.Header.Get(HeaderSource))
	resp, _ = get(t, http.MethodGet, proxy.URL+"/logo.png")
	assert.Equal(t, "hit", resp.Header.Get(HeaderSource))

	resp, body = get(t, http.MethodGet, proxy.URL+"/")
	assert.Equal(t, "network", resp.Header.Get(HeaderSource))
	assert.True(t, strings.HasPrefix(body, "origin:GET /"))

	resp, _ = get(t, http.MethodGet, proxy.URL+"/not-in-manifest.txt")
	assert.Empty(t, resp.Header.Get(HeaderSource))
}
