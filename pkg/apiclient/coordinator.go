package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/marmos91/offlinecache/pkg/api/handlers"
	"github.com/marmos91/offlinecache/pkg/runtime"
)

// HealthResponse is the envelope returned by the health endpoints.
type HealthResponse = handlers.Response

// Health returns the liveness probe.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return call[HealthResponse](ctx, c, http.MethodGet, "/health", nil)
}

// Ready returns the readiness probe. A daemon without an active version
// yields an *APIError with IsUnavailable() true.
func (c *Client) Ready(ctx context.Context) (*HealthResponse, error) {
	return call[HealthResponse](ctx, c, http.MethodGet, "/health/ready", nil)
}

// Status returns the runtime snapshot.
func (c *Client) Status(ctx context.Context) (*runtime.Status, error) {
	return call[runtime.Status](ctx, c, http.MethodGet, "/api/v1/status", nil)
}

// PostMessage delivers a control message ("skipWaiting" or
// "downloadOffline") and returns the status after it was handled.
func (c *Client) PostMessage(ctx context.Context, message string) (*handlers.MessageResponse, error) {
	return call[handlers.MessageResponse](ctx, c, http.MethodPost, "/api/v1/messages", handlers.MessageRequest{Message: message})
}

// Reset deletes every partition the daemon owns.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/reset", nil, nil)
}

// Entries lists the request keys stored in a partition. name is a partition
// name or one of the roles "staging", "content" and "manifest".
func (c *Client) Entries(ctx context.Context, name string) (*handlers.EntriesResponse, error) {
	return call[handlers.EntriesResponse](ctx, c, http.MethodGet, "/api/v1/partitions/"+url.PathEscape(name)+"/entries", nil)
}

// Deploy registers a manifest document with the daemon.
func (c *Client) Deploy(ctx context.Context, manifestJSON []byte) (*runtime.VersionInfo, error) {
	if !json.Valid(manifestJSON) {
		return nil, errors.New("manifest is not valid JSON")
	}
	return call[runtime.VersionInfo](ctx, c, http.MethodPost, "/api/v1/manifest", json.RawMessage(manifestJSON))
}
