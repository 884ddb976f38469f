// Package fetch performs network requests on behalf of the coordinator and
// buffers the responses into cachestore.Response values.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/marmos91/offlinecache/pkg/cachestore"
)

// Request describes a network request.
type Request struct {
	Method string
	URL    string
	Header http.Header

	// BypassCache asks intermediaries (and the HTTP cache) to revalidate
	// with the origin.
	BypassCache bool
}

// Fetcher performs network requests. A response with a non-2xx status is
// returned as a value; only transport failures are errors.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*cachestore.Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*cachestore.Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*cachestore.Response, error) {
	return f(ctx, req)
}

// HTTPFetcher is a Fetcher backed by an *http.Client.
type HTTPFetcher struct {
	client  *http.Client
	headers http.Header
	timeout time.Duration
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient sets the HTTP client used for requests.
func WithClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers http.Header) Option {
	return func(f *HTTPFetcher) {
		if headers == nil {
			return
		}
		f.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(f *HTTPFetcher) {
		if f.headers == nil {
			f.headers = make(http.Header)
		}
		f.headers.Set(key, value)
	}
}

// WithTimeout bounds each request. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// New creates an HTTPFetcher.
func New(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{client: http.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	return f
}

// Fetch issues req and reads the full body.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*cachestore.Response, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", req.URL, err)
	}
	for k, vs := range f.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.BypassCache {
		httpReq.Header.Set("Cache-Control", "no-cache")
		httpReq.Header.Set("Pragma", "no-cache")
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", method, req.URL, err)
	}
	out, err := cachestore.FromHTTP(resp)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", method, req.URL, err)
	}
	return out, nil
}
