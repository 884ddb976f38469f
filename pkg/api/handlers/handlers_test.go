package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/manifest"
	"github.com/marmos91/offlinecache/pkg/runtime"
)

// fakeRuntime is a scriptable Runtime.
type fakeRuntime struct {
	status      runtime.Status
	ready       bool
	healthErr   error
	registerErr error
	messageErr  error
	resetErr    error
	entries     map[string][]cachestore.RequestKey

	registered *manifest.Manifest
	messages   []string
	resets     int
}

func (f *fakeRuntime) Status() runtime.Status            { return f.status }
func (f *fakeRuntime) Ready() bool                       { return f.ready }
func (f *fakeRuntime) Healthcheck(context.Context) error { return f.healthErr }

func (f *fakeRuntime) Register(_ context.Context, m *manifest.Manifest) (*runtime.VersionInfo, error) {
	f.registered = m
	return &runtime.VersionInfo{ID: "v-new", Digest: m.Digest().String(), State: runtime.StateActivated}, f.registerErr
}

func (f *fakeRuntime) PostMessage(_ context.Context, msg string) error {
	f.messages = append(f.messages, msg)
	return f.messageErr
}

func (f *fakeRuntime) Reset(context.Context) error {
	f.resets++
	return f.resetErr
}

func (f *fakeRuntime) Entries(_ context.Context, name string) ([]cachestore.RequestKey, error) {
	keys, ok := f.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", runtime.ErrUnknownPartition, name)
	}
	return keys, nil
}

func activeRuntime() *fakeRuntime {
	return &fakeRuntime{
		ready: true,
		status: runtime.Status{
			Origin:     "https://app.example.com",
			Controlled: true,
			Active:     &runtime.VersionInfo{ID: "v1", State: runtime.StateActivated, RegisteredAt: time.Now()},
		},
		entries: map[string][]cachestore.RequestKey{
			"content": {
				cachestore.NewRequestKey("GET", "https://app.example.com/"),
				cachestore.NewRequestKey("GET", "https://app.example.com/main.dart.js"),
			},
		},
	}
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) Problem {
	t.Helper()
	assert.Equal(t, ContentTypeProblemJSON, w.Header().Get("Content-Type"))
	var p Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	return p
}

// ============================================================================
// Health
// ============================================================================

func TestLiveness_ReturnsOK(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(nil).Liveness(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, map[string]any{"service": "offlinecache"}, resp.Data)
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name    string
		rt      Runtime
		code    int
		errText string
	}{
		{"no runtime", nil, http.StatusServiceUnavailable, "runtime not initialized"},
		{"storage down", &fakeRuntime{healthErr: errors.New("closed")}, http.StatusServiceUnavailable, "storage unhealthy: closed"},
		{"no active version", &fakeRuntime{}, http.StatusServiceUnavailable, "no active coordinator version"},
		{"ready", activeRuntime(), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHealthHandler(tt.rt).Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.code, w.Code)
			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.errText, resp.Error)
		})
	}
}

// ============================================================================
// Coordinator
// ============================================================================

func TestStatus(t *testing.T) {
	w := httptest.NewRecorder()
	NewCoordinatorHandler(activeRuntime()).Status(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var s runtime.Status
	require.NoError(t, json.NewDecoder(w.Body).Decode(&s))
	assert.True(t, s.Controlled)
	require.NotNil(t, s.Active)
	assert.Equal(t, "v1", s.Active.ID)
}

func TestPostMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"skip waiting", `{"message":"skipWaiting"}`, nil, http.StatusOK},
		{"activation reset still reports ok", `{"message":"skipWaiting"}`, fmt.Errorf("%w: boom", coordinator.ErrActivationReset), http.StatusOK},
		{"unknown", `{"message":"reload"}`, fmt.Errorf("%w: %q", coordinator.ErrUnknownMessage, "reload"), http.StatusBadRequest},
		{"no active version", `{"message":"downloadOffline"}`, runtime.ErrNoActiveVersion, http.StatusConflict},
		{"download failed", `{"message":"downloadOffline"}`, errors.New("connection refused"), http.StatusBadGateway},
		{"empty message", `{}`, nil, http.StatusBadRequest},
		{"malformed", `{`, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := activeRuntime()
			rt.messageErr = tt.err
			req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			NewCoordinatorHandler(rt).PostMessage(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				var resp MessageResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.NotNil(t, resp.Status)
			} else {
				assert.Equal(t, tt.code, decodeProblem(t, w).Status)
			}
		})
	}
}

func TestReset(t *testing.T) {
	rt := activeRuntime()
	w := httptest.NewRecorder()
	NewCoordinatorHandler(rt).Reset(w, httptest.NewRequest(http.MethodPost, "/api/v1/reset", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, rt.resets)

	rt.resetErr = errors.New("disk full")
	w = httptest.NewRecorder()
	NewCoordinatorHandler(rt).Reset(w, httptest.NewRequest(http.MethodPost, "/api/v1/reset", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "disk full", decodeProblem(t, w).Detail)
}

func entriesRequest(name string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/partitions/"+name+"/entries", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", name)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestEntries(t *testing.T) {
	h := NewCoordinatorHandler(activeRuntime())

	w := httptest.NewRecorder()
	h.Entries(w, entriesRequest("content"))
	assert.Equal(t, http.StatusOK, w.Code)
	var resp EntriesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "content", resp.Partition)
	assert.Equal(t, []string{
		"GET https://app.example.com/",
		"GET https://app.example.com/main.dart.js",
	}, resp.Entries)

	w = httptest.NewRecorder()
	h.Entries(w, entriesRequest("other"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeploy(t *testing.T) {
	body := `{"resources":{"/":"r","main.dart.js":"m"},"core":["main.dart.js"]}`

	rt := activeRuntime()
	w := httptest.NewRecorder()
	NewCoordinatorHandler(rt).Deploy(w, httptest.NewRequest(http.MethodPost, "/api/v1/manifest", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, rt.registered)
	assert.Equal(t, "m", rt.registered.Resources["main.dart.js"])
	var info runtime.VersionInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, "v-new", info.ID)
}

func TestDeploy_InvalidManifest(t *testing.T) {
	rt := activeRuntime()
	w := httptest.NewRecorder()
	body := `{"resources":{"/":"r"},"core":["missing.js"]}`
	NewCoordinatorHandler(rt).Deploy(w, httptest.NewRequest(http.MethodPost, "/api/v1/manifest", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Nil(t, rt.registered)
}

func TestDeploy_InstallFailure(t *testing.T) {
	rt := activeRuntime()
	rt.registerErr = errors.New("install: fetch main.dart.js: 503")
	w := httptest.NewRecorder()
	body := `{"resources":{"/":"r","main.dart.js":"m"},"core":["main.dart.js"]}`
	NewCoordinatorHandler(rt).Deploy(w, httptest.NewRequest(http.MethodPost, "/api/v1/manifest", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
