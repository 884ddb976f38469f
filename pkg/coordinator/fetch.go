package coordinator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/internal/telemetry"
	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/fetch"
	"github.com/marmos91/offlinecache/pkg/manifest"
)

// Source tells where a handled response came from.
type Source string

const (
	// SourceCache is a cache-first hit.
	SourceCache Source = "hit"
	// SourceNetwork is a response fetched from the origin.
	SourceNetwork Source = "network"
	// SourceFallback is a cached root document served because the network failed.
	SourceFallback Source = "fallback"
)

const outcomeError = "error"

// Result is a handled fetch.
type Result struct {
	Key      string
	Source   Source
	Response *cachestore.Response
}

// OnFetch routes a request. It reports handled=false for requests the
// coordinator does not own: non-GET methods, other origins and keys absent
// from the Resource Table. The caller should send those to the network.
//
// The root document is served network-first with a cache fallback; every
// other resource is served cache-first.
func (c *Coordinator) OnFetch(ctx context.Context, req fetch.Request) (res *Result, handled bool, err error) {
	if req.Method != "" && req.Method != http.MethodGet {
		c.observeDeclined()
		return nil, false, nil
	}
	key, owned := c.origin.Key(req.URL)
	if !owned || !c.manifest.Resources.Has(key) {
		c.observeDeclined()
		return nil, false, nil
	}

	start := time.Now()
	ctx, span := telemetry.StartCoordinatorSpan(ctx, "fetch", c.version, telemetry.ResourceKey(key))
	defer func() {
		outcome := outcomeError
		if res != nil {
			outcome = string(res.Source)
			span.SetAttributes(telemetry.FetchSource(outcome), telemetry.HTTPStatus(res.Response.Status))
		}
		telemetry.EndSpan(span, err)
		if c.metrics != nil {
			c.metrics.ObserveFetch(outcome, time.Since(start))
		}
	}()

	req.Method = http.MethodGet
	req.BypassCache = false

	if key == manifest.RootKey {
		res, err = c.networkFirst(ctx, key, req)
	} else {
		res, err = c.cacheFirst(ctx, key, req)
	}
	return res, true, err
}

func (c *Coordinator) cacheFirst(ctx context.Context, key string, req fetch.Request) (*Result, error) {
	content, err := c.storage.Open(ctx, c.partitions.Content)
	if err != nil {
		return nil, err
	}

	rk := c.requestKey(key)
	cached, err := content.Match(ctx, rk)
	if err == nil {
		return &Result{Key: key, Source: SourceCache, Response: cached}, nil
	}
	if !errors.Is(err, cachestore.ErrNotFound) {
		return nil, err
	}

	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		c.store(ctx, content, key, rk, resp)
	}
	return &Result{Key: key, Source: SourceNetwork, Response: resp}, nil
}

func (c *Coordinator) networkFirst(ctx context.Context, key string, req fetch.Request) (*Result, error) {
	rk := c.requestKey(key)

	resp, fetchErr := c.fetcher.Fetch(ctx, req)
	if fetchErr == nil {
		if resp.OK() {
			if content, err := c.storage.Open(ctx, c.partitions.Content); err != nil {
				logger.WarnCtx(ctx, "failed to open content cache", logger.Err(err))
			} else {
				c.store(ctx, content, key, rk, resp)
			}
		}
		return &Result{Key: key, Source: SourceNetwork, Response: resp}, nil
	}

	content, err := c.storage.Open(ctx, c.partitions.Content)
	if err != nil {
		return nil, fetchErr
	}
	cached, err := content.Match(ctx, rk)
	if err != nil {
		return nil, fetchErr
	}
	logger.DebugCtx(ctx, "network unavailable, serving cached root",
		logger.KeyResource, key, logger.Err(fetchErr))
	return &Result{Key: key, Source: SourceFallback, Response: cached}, nil
}

// store caches a network response without its per-client headers. Failures
// are logged, not returned: the response is still good for the caller.
func (c *Coordinator) store(ctx context.Context, content cachestore.Partition, key string, rk cachestore.RequestKey, resp *cachestore.Response) {
	if err := content.Put(ctx, rk, resp.Shareable()); err != nil {
		logger.WarnCtx(ctx, "failed to cache response", logger.KeyResource, key, logger.Err(err))
	}
}

func (c *Coordinator) observeDeclined() {
	if c.metrics != nil {
		c.metrics.ObserveDeclined()
	}
}
