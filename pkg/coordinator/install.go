package coordinator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/internal/telemetry"
	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/fetch"
)

// OnInstall downloads the Core Set into the staging partition, bypassing any
// HTTP cache. It is all-or-nothing: if any Core Set resource cannot be
// fetched with a 2xx status, nothing is written and the error is returned.
func (c *Coordinator) OnInstall(ctx context.Context) (err error) {
	start := time.Now()
	ctx, span := telemetry.StartCoordinatorSpan(ctx, PhaseInstall, c.version)
	defer func() {
		telemetry.EndSpan(span, err)
		c.observePhase(PhaseInstall, err, start)
	}()

	c.host.SkipWaiting()

	core := c.manifest.Core
	responses, err := c.fetchAll(ctx, core, true)
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}

	staging, err := c.storage.Open(ctx, c.partitions.Staging)
	if err != nil {
		return fmt.Errorf("install: open staging: %w", err)
	}
	for i, key := range core {
		if err := staging.Put(ctx, c.requestKey(key), responses[i].Shareable()); err != nil {
			// Leave no partial staging behind for a later activation to promote.
			if _, delErr := c.storage.Delete(context.WithoutCancel(ctx), c.partitions.Staging); delErr != nil {
				logger.WarnCtx(ctx, "failed to discard partial staging", logger.Err(delErr))
			}
			return fmt.Errorf("install: store %s: %w", key, err)
		}
	}

	logger.InfoCtx(ctx, "coordinator installed",
		logger.KeyVersion, c.version,
		logger.KeyResources, len(core),
		logger.KeyDurationMs, logger.Duration(start))
	return nil
}

// fetchAll fetches the given logical keys in parallel and returns responses in
// the same order. Any network error or non-2xx status fails the whole batch.
func (c *Coordinator) fetchAll(ctx context.Context, keys []string, bypassCache bool) ([]*cachestore.Response, error) {
	responses := make([]*cachestore.Response, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			url := c.origin.URL(key)
			resp, err := c.fetcher.Fetch(gctx, fetch.Request{
				Method:      http.MethodGet,
				URL:         url,
				BypassCache: bypassCache,
			})
			if err != nil {
				return fmt.Errorf("fetch %s: %w", key, err)
			}
			if !resp.OK() {
				return fmt.Errorf("fetch %s: unexpected status %d", key, resp.Status)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}
