// Package runtime is the platform that hosts Offline Cache Coordinators.
//
// It registers coordinator versions for manifests, drives them through
// install and activation, routes fetches to the active version once it has
// claimed clients, and delivers control messages.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/pkg/cachestore"
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/fetch"
	"github.com/marmos91/offlinecache/pkg/manifest"
)

var (
	// ErrNoActiveVersion is returned when an operation needs an active coordinator.
	ErrNoActiveVersion = errors.New("no active coordinator version")

	// ErrUnknownPartition is returned by Entries for a partition the runtime does not own.
	ErrUnknownPartition = errors.New("unknown partition")
)

// Config configures a Runtime.
type Config struct {
	Origin      manifest.Origin
	Partitions  coordinator.Partitions
	Storage     cachestore.Storage
	Fetcher     fetch.Fetcher
	Metrics     coordinator.Metrics
	Concurrency int

	// ShutdownTimeout bounds server shutdown in Serve. Zero selects
	// DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// Runtime hosts coordinator versions. Safe for concurrent use.
type Runtime struct {
	cfg Config

	// mu serializes registration, activation and reset.
	mu sync.Mutex

	// stateMu guards the fields below; fetches only take the read lock.
	stateMu    sync.RWMutex
	active     *version
	waiting    *version
	controlled bool
	lastErr    error

	shutdownTimeout time.Duration
	proxyServer     AuxiliaryServer
	apiServer       AuxiliaryServer
	metricsServer   AuxiliaryServer
	watcher         *ManifestWatcher
	serveOnce       sync.Once
	served          bool
}

// New creates a Runtime with no registered versions.
func New(cfg Config) (*Runtime, error) {
	if cfg.Origin.String() == "" {
		return nil, errors.New("runtime: origin is required")
	}
	if cfg.Storage == nil {
		return nil, errors.New("runtime: storage is required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("runtime: fetcher is required")
	}
	if cfg.Partitions == (coordinator.Partitions{}) {
		cfg.Partitions = coordinator.DefaultPartitions()
	}
	timeout := cfg.ShutdownTimeout
	if timeout == 0 {
		timeout = DefaultShutdownTimeout
	}
	return &Runtime{cfg: cfg, shutdownTimeout: timeout}, nil
}

func (r *Runtime) newVersion(m *manifest.Manifest) (*version, error) {
	v := &version{
		id:         uuid.NewString(),
		digest:     m.Digest(),
		state:      StateInstalling,
		registered: time.Now().UTC(),
	}
	coord, err := coordinator.New(coordinator.Config{
		Version:     v.id,
		Origin:      r.cfg.Origin,
		Manifest:    m,
		Partitions:  r.cfg.Partitions,
		Storage:     r.cfg.Storage,
		Fetcher:     r.cfg.Fetcher,
		Host:        &versionHost{rt: r, v: v},
		Metrics:     r.cfg.Metrics,
		Concurrency: r.cfg.Concurrency,
	})
	if err != nil {
		return nil, err
	}
	v.coord = coord
	return v, nil
}

// Register installs a coordinator version for m. A manifest identical to the
// waiting version's, or to a healthy active version's, is a no-op. An active
// version whose activation failed or that never claimed clients is replaced
// by a fresh install of the same manifest. On install failure the version is
// discarded and the error returned; the active version keeps serving.
//
// A successfully installed version waits, and is activated right away when it
// signalled skip-waiting or when nothing is active yet.
func (r *Runtime) Register(ctx context.Context, m *manifest.Manifest) (*VersionInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := m.Digest()
	r.stateMu.RLock()
	candidates := []*version{r.waiting}
	if r.controlled && r.lastErr == nil {
		candidates = append(candidates, r.active)
	}
	for _, existing := range candidates {
		if existing != nil && existing.digest == d {
			info := existing.info()
			r.stateMu.RUnlock()
			logger.DebugCtx(ctx, "manifest unchanged, registration skipped",
				logger.KeyVersion, info.ID, logger.KeyDigest, d.String())
			return info, nil
		}
	}
	r.stateMu.RUnlock()

	v, err := r.newVersion(m)
	if err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "registering coordinator",
		logger.KeyVersion, v.id, logger.KeyDigest, d.String(), logger.KeyResources, len(m.Resources))

	if err := v.coord.OnInstall(ctx); err != nil {
		r.setState(v, StateRedundant)
		logger.WarnCtx(ctx, "coordinator install failed", logger.KeyVersion, v.id, logger.Err(err))
		return r.snapshot(v), err
	}

	r.stateMu.Lock()
	v.state = StateInstalled
	v.installed = time.Now().UTC()
	if r.waiting != nil {
		r.waiting.state = StateRedundant
	}
	r.waiting = v
	promote := v.skipWaiting || r.active == nil
	r.stateMu.Unlock()

	if promote {
		if err := r.activateWaiting(ctx); err != nil {
			return r.snapshot(v), err
		}
	}
	return r.snapshot(v), nil
}

// Resume makes m active without installing, when the persisted Resource
// Table equals m's. It is how a restarted daemon picks up where it left off
// while the origin is unreachable. It reports whether m was resumed.
func (r *Runtime) Resume(ctx context.Context, m *manifest.Manifest) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stateMu.RLock()
	hasActive := r.active != nil
	r.stateMu.RUnlock()
	if hasActive {
		return false, nil
	}

	store, err := r.cfg.Storage.Open(ctx, r.cfg.Partitions.Manifest)
	if err != nil {
		return false, fmt.Errorf("resume: %w", err)
	}
	resp, err := store.Match(ctx, cachestore.NewRequestKey("GET", coordinator.ManifestKey))
	if errors.Is(err, cachestore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resume: %w", err)
	}
	persisted, err := manifest.DecodeTable(resp.Body)
	if err != nil || !sameTable(persisted, m.Resources) {
		return false, nil
	}

	v, err := r.newVersion(m)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	r.stateMu.Lock()
	v.state = StateActivated
	v.installed = now
	v.activated = now
	v.resumed = true
	r.active = v
	r.controlled = true
	r.stateMu.Unlock()

	logger.InfoCtx(ctx, "resumed coordinator from persisted manifest", logger.KeyVersion, v.id)
	return true, nil
}

func sameTable(a, b manifest.ResourceTable) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// activateWaiting promotes the waiting version. The caller holds r.mu.
// An activation error is recorded and returned, but the version still
// becomes active: its caches were reset and it serves from the network.
func (r *Runtime) activateWaiting(ctx context.Context) error {
	r.stateMu.Lock()
	v := r.waiting
	if v == nil {
		r.stateMu.Unlock()
		return nil
	}
	r.waiting = nil
	v.state = StateActivating
	r.stateMu.Unlock()

	err := v.coord.OnActivate(ctx)

	r.stateMu.Lock()
	if r.active != nil {
		r.active.state = StateRedundant
	}
	r.active = v
	v.state = StateActivated
	v.activated = time.Now().UTC()
	r.lastErr = err
	r.stateMu.Unlock()

	if err != nil {
		logger.ErrorCtx(ctx, "coordinator activated with reset caches", logger.KeyVersion, v.id, logger.Err(err))
		return err
	}
	return nil
}

// Fetch routes a request through the active coordinator. It reports
// handled=false when no coordinator controls clients or the coordinator
// declines the request.
func (r *Runtime) Fetch(ctx context.Context, req fetch.Request) (*coordinator.Result, bool, error) {
	r.stateMu.RLock()
	active, controlled := r.active, r.controlled
	r.stateMu.RUnlock()

	if active == nil || !controlled {
		return nil, false, nil
	}
	return active.coord.OnFetch(ctx, req)
}

// PostMessage delivers a control message. skipWaiting goes to the waiting
// version when there is one (promoting it) and to the active version
// otherwise; downloadOffline goes to the active version.
func (r *Runtime) PostMessage(ctx context.Context, msg string) error {
	switch msg {
	case coordinator.MessageSkipWaiting:
		r.mu.Lock()
		defer r.mu.Unlock()

		r.stateMu.RLock()
		target, isWaiting := r.waiting, true
		if target == nil {
			target, isWaiting = r.active, false
		}
		r.stateMu.RUnlock()
		if target == nil {
			return ErrNoActiveVersion
		}
		if err := target.coord.OnMessage(ctx, msg); err != nil {
			return err
		}
		if isWaiting {
			return r.activateWaiting(ctx)
		}
		return nil

	case coordinator.MessageDownloadOffline:
		active := r.current()
		if active == nil {
			return ErrNoActiveVersion
		}
		return active.coord.OnMessage(ctx, msg)

	default:
		return fmt.Errorf("%w: %q", coordinator.ErrUnknownMessage, msg)
	}
}

// Reset deletes every partition the runtime owns. Registered versions keep
// running; the next activation starts without a prior manifest.
func (r *Runtime) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, name := range r.cfg.Partitions.Names() {
		if _, err := r.cfg.Storage.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("delete partition %q: %w", name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "caches reset", "partitions", r.cfg.Partitions.Names())
	return nil
}

// Status returns a snapshot of the runtime.
func (r *Runtime) Status() Status {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()

	s := Status{
		Origin:     r.cfg.Origin.String(),
		Controlled: r.controlled,
		Active:     r.active.info(),
		Waiting:    r.waiting.info(),
		Partitions: r.cfg.Partitions,
	}
	if r.lastErr != nil {
		s.LastActivationError = r.lastErr.Error()
	}
	return s
}

// Ready reports whether an active version exists.
func (r *Runtime) Ready() bool {
	return r.current() != nil
}

// Entries lists the request keys stored in one of the runtime's partitions.
// name is either a configured partition name or one of the roles "staging",
// "content" and "manifest".
func (r *Runtime) Entries(ctx context.Context, name string) ([]cachestore.RequestKey, error) {
	resolved, err := r.resolvePartition(name)
	if err != nil {
		return nil, err
	}
	p, err := r.cfg.Storage.Open(ctx, resolved)
	if err != nil {
		return nil, err
	}
	return p.Keys(ctx)
}

// Healthcheck verifies the storage backend.
func (r *Runtime) Healthcheck(ctx context.Context) error {
	return r.cfg.Storage.Healthcheck(ctx)
}

func (r *Runtime) resolvePartition(name string) (string, error) {
	p := r.cfg.Partitions
	switch name {
	case "staging", p.Staging:
		return p.Staging, nil
	case "content", p.Content:
		return p.Content, nil
	case "manifest", p.Manifest:
		return p.Manifest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPartition, name)
}

func (r *Runtime) current() *version {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.active
}

func (r *Runtime) setState(v *version, s State) {
	r.stateMu.Lock()
	v.state = s
	r.stateMu.Unlock()
}

func (r *Runtime) snapshot(v *version) *VersionInfo {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return v.info()
}
