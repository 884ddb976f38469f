package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/internal/telemetry"
	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/manifest"
)

// reconcileResult summarizes an activation.
type reconcileResult struct {
	firstInstall bool
	retained     int
	evicted      int
	promoted     int
}

// OnActivate reconciles the content partition with the manifest, promotes the
// staged Core Set, persists the Resource Table and claims clients.
//
// Without a prior Resource Table the content partition is rebuilt from
// staging alone. With one, every cached entry whose key was removed or whose
// fingerprint changed is evicted, and unchanged entries are kept.
//
// On any failure all three partitions are deleted and an error wrapping
// ErrActivationReset is returned. The next activation starts from scratch.
func (c *Coordinator) OnActivate(ctx context.Context) (err error) {
	start := time.Now()
	ctx, span := telemetry.StartCoordinatorSpan(ctx, PhaseActivate, c.version)
	defer func() {
		telemetry.EndSpan(span, err)
		c.observePhase(PhaseActivate, err, start)
	}()

	res, err := c.activate(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, "failed to upgrade coordinator, resetting caches",
			logger.KeyVersion, c.version, logger.Err(err))
		resetErr := c.Reset(context.WithoutCancel(ctx))
		if resetErr != nil {
			logger.ErrorCtx(ctx, "cache reset incomplete", logger.Err(resetErr))
		}
		return errors.Join(fmt.Errorf("%w: %w", ErrActivationReset, err), resetErr)
	}

	if c.metrics != nil {
		c.metrics.ObserveReconcile(res.retained, res.evicted, res.promoted)
	}
	logger.InfoCtx(ctx, "coordinator activated",
		logger.KeyVersion, c.version,
		"first_install", res.firstInstall,
		logger.KeyRetained, res.retained,
		logger.KeyEvicted, res.evicted,
		logger.KeyPromoted, res.promoted,
		logger.KeyDurationMs, logger.Duration(start))
	return nil
}

func (c *Coordinator) activate(ctx context.Context) (reconcileResult, error) {
	var res reconcileResult

	content, err := c.storage.Open(ctx, c.partitions.Content)
	if err != nil {
		return res, fmt.Errorf("open content: %w", err)
	}
	staging, err := c.storage.Open(ctx, c.partitions.Staging)
	if err != nil {
		return res, fmt.Errorf("open staging: %w", err)
	}
	manifests, err := c.storage.Open(ctx, c.partitions.Manifest)
	if err != nil {
		return res, fmt.Errorf("open manifest store: %w", err)
	}

	prior, found, err := readTable(ctx, manifests)
	if err != nil {
		return res, err
	}

	if !found {
		res.firstInstall = true
		if _, err := c.storage.Delete(ctx, c.partitions.Content); err != nil {
			return res, fmt.Errorf("clear content: %w", err)
		}
		if content, err = c.storage.Open(ctx, c.partitions.Content); err != nil {
			return res, fmt.Errorf("reopen content: %w", err)
		}
	} else {
		res.retained, res.evicted, err = c.prune(ctx, content, prior)
		if err != nil {
			return res, err
		}
	}

	if res.promoted, err = promote(ctx, staging, content); err != nil {
		return res, err
	}
	if _, err := c.storage.Delete(ctx, c.partitions.Staging); err != nil {
		return res, fmt.Errorf("delete staging: %w", err)
	}
	if err := writeTable(ctx, manifests, c.manifest.Resources); err != nil {
		return res, err
	}

	c.host.Claim()
	return res, nil
}

// prune evicts content entries that are stale relative to prior.
func (c *Coordinator) prune(ctx context.Context, content cachestore.Partition, prior manifest.ResourceTable) (retained, evicted int, err error) {
	keys, err := content.Keys(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list content: %w", err)
	}
	current := c.manifest.Resources
	for _, rk := range keys {
		key, owned := c.origin.Key(rk.URL)
		if owned && !current.Stale(prior, key) {
			retained++
			continue
		}
		if _, err := content.Delete(ctx, rk); err != nil {
			return retained, evicted, fmt.Errorf("evict %s: %w", rk, err)
		}
		evicted++
		logger.DebugCtx(ctx, "evicted stale resource", logger.KeyResource, key)
	}
	return retained, evicted, nil
}

// promote copies every staged entry into content, overwriting.
func promote(ctx context.Context, staging, content cachestore.Partition) (int, error) {
	keys, err := staging.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list staging: %w", err)
	}
	for _, rk := range keys {
		resp, err := staging.Match(ctx, rk)
		if err != nil {
			return 0, fmt.Errorf("read staged %s: %w", rk, err)
		}
		if err := content.Put(ctx, rk, resp); err != nil {
			return 0, fmt.Errorf("promote %s: %w", rk, err)
		}
	}
	return len(keys), nil
}

// readTable returns the persisted Resource Table, if any.
func readTable(ctx context.Context, manifests cachestore.Partition) (manifest.ResourceTable, bool, error) {
	resp, err := manifests.Match(ctx, manifestRequestKey())
	if errors.Is(err, cachestore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read prior manifest: %w", err)
	}
	table, err := manifest.DecodeTable(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read prior manifest: %w", err)
	}
	return table, true, nil
}

func writeTable(ctx context.Context, manifests cachestore.Partition, table manifest.ResourceTable) error {
	body, err := table.Encode()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	resp := &cachestore.Response{
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": {"application/json"}},
		Body:     body,
		StoredAt: time.Now().UTC(),
	}
	if err := manifests.Put(ctx, manifestRequestKey(), resp); err != nil {
		return fmt.Errorf("persist manifest: %w", err)
	}
	return nil
}
