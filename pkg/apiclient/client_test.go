package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrimsBaseURL(t *testing.T) {
	c := New("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestWithTokenCopies(t *testing.T) {
	c := New("http://localhost:8080")
	authed := c.WithToken("t")

	assert.Empty(t, c.token)
	assert.Equal(t, "t", authed.token)
	assert.Equal(t, c.BaseURL(), authed.BaseURL())
}

func TestOptions(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c := New("http://x", WithHTTPClient(hc), WithBearer("b"))
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, "b", c.token)
}

func TestDoHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if r.Method == http.MethodPost {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		} else {
			assert.Empty(t, r.Header.Get("Content-Type"))
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"method": r.Method})
	}))
	defer srv.Close()

	c := New(srv.URL, WithBearer("tok"))
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		var body any
		if method == http.MethodPost {
			body = map[string]string{"k": "v"}
		}
		out, err := call[map[string]string](context.Background(), c, method, "/x", body)
		require.NoError(t, err)
		assert.Equal(t, method, (*out)["method"])
	}
}

func TestDoErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantMsg    string
		check      func(*testing.T, *APIError)
	}{
		{
			name: "problem document",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"type":"about:blank","title":"Unauthorized","status":401,"detail":"Invalid token"}`))
			},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "401: Invalid token",
			check:      func(t *testing.T, e *APIError) { assert.True(t, e.IsAuthError()) },
		},
		{
			name: "health envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unhealthy","error":"no active version"}`))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "503: no active version",
			check:      func(t *testing.T, e *APIError) { assert.True(t, e.IsUnavailable()) },
		},
		{
			name: "plain text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "502: boom",
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantMsg:    "404: Not Found",
			check:      func(t *testing.T, e *APIError) { assert.True(t, e.IsNotFound()) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			err := New(srv.URL).do(context.Background(), http.MethodGet, "/x", nil, nil)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Error())
			if tt.check != nil {
				tt.check(t, apiErr)
			}
		})
	}
}

func TestDoHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := New(srv.URL).do(ctx, http.MethodGet, "/slow", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
