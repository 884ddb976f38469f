// Package coordinator implements the Offline Cache Coordinator: the agent that
// owns the staging, content and manifest partitions of one deployed manifest
// and reacts to the install, activate, fetch and message lifecycle signals.
//
// Every lifecycle method blocks until all cache and network work it started
// has finished; the returned value is the signal's completion.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/fetch"
	"github.com/marmos91/offlinecache/pkg/manifest"
)

// Messages understood by OnMessage.
const (
	MessageSkipWaiting     = "skipWaiting"
	MessageDownloadOffline = "downloadOffline"
)

// ManifestKey is the fixed key of the Resource Table in the manifest partition.
const ManifestKey = "manifest"

// DefaultConcurrency bounds parallel fetches during install and offline download.
const DefaultConcurrency = 8

var (
	// ErrActivationReset is returned when activation failed and all
	// partitions were deleted.
	ErrActivationReset = errors.New("activation failed, caches reset")

	// ErrUnknownMessage is returned by OnMessage for unrecognized messages.
	ErrUnknownMessage = errors.New("unknown message")
)

// Host is the platform hosting a coordinator.
type Host interface {
	// SkipWaiting asks the host to activate this coordinator without waiting
	// for clients of the current one to go away.
	SkipWaiting()

	// Claim makes this coordinator the controller of all open clients.
	Claim()
}

type noopHost struct{}

func (noopHost) SkipWaiting() {}
func (noopHost) Claim()       {}

// Partitions names the three partitions a coordinator owns.
type Partitions struct {
	Staging  string `mapstructure:"staging" yaml:"staging" json:"staging" validate:"required"`
	Content  string `mapstructure:"content" yaml:"content" json:"content" validate:"required"`
	Manifest string `mapstructure:"manifest" yaml:"manifest" json:"manifest" validate:"required"`
}

// DefaultPartitions returns the standard partition names.
func DefaultPartitions() Partitions {
	return Partitions{
		Staging:  "offline-temp-cache",
		Content:  "offline-app-cache",
		Manifest: "offline-app-manifest",
	}
}

// Names lists the partitions in staging, content, manifest order.
func (p Partitions) Names() []string {
	return []string{p.Staging, p.Content, p.Manifest}
}

// Config is the immutable configuration of a coordinator.
type Config struct {
	// Version identifies this coordinator in logs and traces.
	Version string

	Origin     manifest.Origin
	Manifest   *manifest.Manifest
	Partitions Partitions

	Storage cachestore.Storage
	Fetcher fetch.Fetcher

	// Host receives SkipWaiting and Claim. Optional.
	Host Host

	// Metrics is optional; nil disables collection.
	Metrics Metrics

	// Concurrency bounds parallel fetches. Zero selects DefaultConcurrency.
	Concurrency int
}

// Coordinator is the Offline Cache Coordinator for one manifest.
// Safe for concurrent use.
type Coordinator struct {
	version     string
	origin      manifest.Origin
	manifest    *manifest.Manifest
	partitions  Partitions
	storage     cachestore.Storage
	fetcher     fetch.Fetcher
	host        Host
	metrics     Metrics
	concurrency int
}

// New validates cfg and creates a coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Manifest == nil {
		return nil, errors.New("coordinator: manifest is required")
	}
	if err := cfg.Manifest.Validate(); err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}
	if cfg.Origin.String() == "" {
		return nil, errors.New("coordinator: origin is required")
	}
	if cfg.Storage == nil {
		return nil, errors.New("coordinator: storage is required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("coordinator: fetcher is required")
	}

	partitions := cfg.Partitions
	defaults := DefaultPartitions()
	if partitions.Staging == "" {
		partitions.Staging = defaults.Staging
	}
	if partitions.Content == "" {
		partitions.Content = defaults.Content
	}
	if partitions.Manifest == "" {
		partitions.Manifest = defaults.Manifest
	}

	host := cfg.Host
	if host == nil {
		host = noopHost{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	version := cfg.Version
	if version == "" {
		version = cfg.Manifest.Digest().Encoded()[:12]
	}

	return &Coordinator{
		version:     version,
		origin:      cfg.Origin,
		manifest:    cfg.Manifest,
		partitions:  partitions,
		storage:     cfg.Storage,
		fetcher:     cfg.Fetcher,
		host:        host,
		metrics:     cfg.Metrics,
		concurrency: concurrency,
	}, nil
}

// Version returns the coordinator's version id.
func (c *Coordinator) Version() string { return c.version }

// Manifest returns the manifest the coordinator was built from.
func (c *Coordinator) Manifest() *manifest.Manifest { return c.manifest }

// Partitions returns the partition names in use.
func (c *Coordinator) Partitions() Partitions { return c.partitions }

// OnMessage handles a control message from a client.
func (c *Coordinator) OnMessage(ctx context.Context, msg string) error {
	switch msg {
	case MessageSkipWaiting:
		logger.DebugCtx(ctx, "skip waiting requested", logger.KeyVersion, c.version)
		c.host.SkipWaiting()
		return nil
	case MessageDownloadOffline:
		_, err := c.DownloadOffline(ctx)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg)
	}
}

// Reset deletes the staging, content and manifest partitions.
func (c *Coordinator) Reset(ctx context.Context) error {
	var errs []error
	for _, name := range c.partitions.Names() {
		if _, err := c.storage.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("delete partition %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// requestKey returns the canonical request identity of a logical key.
func (c *Coordinator) requestKey(key string) cachestore.RequestKey {
	return cachestore.NewRequestKey(http.MethodGet, c.origin.URL(key))
}

func manifestRequestKey() cachestore.RequestKey {
	return cachestore.NewRequestKey(http.MethodGet, ManifestKey)
}

func (c *Coordinator) observePhase(phase string, err error, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObservePhase(phase, err == nil, time.Since(start))
	}
}
