package config

import (
	"context"
	"fmt"
	"net/http"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/pkg/cachestore"
	badgerstore "github.com/marmos91/offlinecache/pkg/cachestore/badger"
	"github.com/marmos91/offlinecache/pkg/cachestore/memory"
	"github.com/marmos91/offlinecache/pkg/fetch"
	prommetrics "github.com/marmos91/offlinecache/pkg/metrics/prometheus"
)

// InitializeStorage sets up metrics and then opens the cache storage, so a
// badger store finds the registry when it registers its collector.
func InitializeStorage(ctx context.Context, cfg *Config) (cachestore.Storage, MetricsResult, error) {
	m := InitializeMetrics(cfg)
	storage, err := CreateStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, m, err
	}
	return storage, m, nil
}

// CreateStorage opens the storage backend selected by cfg. Badger stores
// report their cache statistics to the metrics registry when metrics are
// already enabled; see InitializeStorage.
func CreateStorage(ctx context.Context, cfg StorageConfig) (cachestore.Storage, error) {
	switch cfg.Type {
	case "memory":
		logger.Info("using in-memory cache storage; cached content is lost on restart")
		return memory.New(), nil

	case "badger", "":
		store, err := badgerstore.New(ctx, badgerstore.Config{
			Path:           cfg.Path,
			BlockCacheSize: cfg.BlockCacheSize.Int64(),
		})
		if err != nil {
			return nil, err
		}
		if err := prommetrics.RegisterBadgerMetrics(store); err != nil {
			logger.Warn("failed to register badger metrics", logger.Err(err))
		}
		logger.Info("using badger cache storage", logger.KeyPath, cfg.Path)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}

// CreateFetcher builds the origin fetcher from cfg.
func CreateFetcher(cfg FetchConfig) fetch.Fetcher {
	headers := make(http.Header, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}
	return fetch.New(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithHeaders(headers),
	)
}
