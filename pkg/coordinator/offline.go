package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/internal/telemetry"
	"github.com/marmos91/offlinecache/pkg/cachestore"
)

// DownloadOffline fetches every Resource Table entry missing from the content
// partition and returns how many were added. Cached entries are untouched.
// Like install, the batch is all-or-nothing: a failed fetch stores nothing,
// and a failed write removes the entries this call already stored.
func (c *Coordinator) DownloadOffline(ctx context.Context) (added int, err error) {
	start := time.Now()
	ctx, span := telemetry.StartCoordinatorSpan(ctx, PhaseDownloadOffline, c.version)
	defer func() {
		telemetry.EndSpan(span, err)
		c.observePhase(PhaseDownloadOffline, err, start)
	}()

	content, err := c.storage.Open(ctx, c.partitions.Content)
	if err != nil {
		return 0, fmt.Errorf("download offline: open content: %w", err)
	}
	keys, err := content.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("download offline: list content: %w", err)
	}

	cached := make(map[string]struct{}, len(keys))
	for _, rk := range keys {
		if key, ok := c.origin.Key(rk.URL); ok {
			cached[key] = struct{}{}
		}
	}
	missing := c.manifest.Resources.Missing(cached)
	if len(missing) == 0 {
		logger.DebugCtx(ctx, "all resources already cached", logger.KeyVersion, c.version)
		return 0, nil
	}

	responses, err := c.fetchAll(ctx, missing, false)
	if err != nil {
		return 0, fmt.Errorf("download offline: %w", err)
	}
	for i, key := range missing {
		if err := content.Put(ctx, c.requestKey(key), responses[i].Shareable()); err != nil {
			err = fmt.Errorf("download offline: store %s: %w", key, err)
			return 0, errors.Join(err, c.unstore(context.WithoutCancel(ctx), content, missing[:i]))
		}
	}

	if c.metrics != nil {
		c.metrics.ObserveDownloaded(len(missing))
	}
	logger.InfoCtx(ctx, "offline download complete",
		logger.KeyVersion, c.version,
		logger.KeyMissing, len(missing),
		logger.KeyDurationMs, logger.Duration(start))
	return len(missing), nil
}

// unstore deletes the content entries for keys.
func (c *Coordinator) unstore(ctx context.Context, content cachestore.Partition, keys []string) error {
	var errs []error
	for _, key := range keys {
		if _, err := content.Delete(ctx, c.requestKey(key)); err != nil {
			errs = append(errs, fmt.Errorf("roll back %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
