package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/offlinecache/internal/logger"
)

// DefaultShutdownTimeout is the default timeout for graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// AuxiliaryServer is an HTTP server run by Serve (proxy, API, metrics).
type AuxiliaryServer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Port() int
}

// SetProxyServer sets the proxy front end. Must be called before Serve.
func (r *Runtime) SetProxyServer(s AuxiliaryServer) {
	r.mustNotBeServing("proxy server")
	r.proxyServer = s
	if s != nil {
		logger.Info("proxy server registered", "port", s.Port())
	}
}

// SetAPIServer sets the control-plane API server. Must be called before Serve.
func (r *Runtime) SetAPIServer(s AuxiliaryServer) {
	r.mustNotBeServing("API server")
	r.apiServer = s
	if s != nil {
		logger.Info("API server registered", "port", s.Port())
	}
}

// SetMetricsServer sets the metrics server. Must be called before Serve.
func (r *Runtime) SetMetricsServer(s AuxiliaryServer) {
	r.mustNotBeServing("metrics server")
	r.metricsServer = s
	if s != nil {
		logger.Info("metrics server registered", "port", s.Port())
	}
}

// SetManifestWatcher sets the manifest watcher started by Serve.
func (r *Runtime) SetManifestWatcher(w *ManifestWatcher) {
	r.mustNotBeServing("manifest watcher")
	r.watcher = w
}

func (r *Runtime) mustNotBeServing(what string) {
	if r.served {
		panic(fmt.Sprintf("cannot set %s after Serve() has been called", what))
	}
}

type namedServer struct {
	name   string
	server AuxiliaryServer
}

func (r *Runtime) servers() []namedServer {
	var out []namedServer
	for _, s := range []namedServer{
		{"proxy", r.proxyServer},
		{"api", r.apiServer},
		{"metrics", r.metricsServer},
	} {
		if s.server != nil {
			out = append(out, s)
		}
	}
	return out
}

// Serve starts the servers and the manifest watcher and blocks until ctx is
// cancelled or a server fails. It then shuts everything down and closes the
// storage. Serve may only be called once.
func (r *Runtime) Serve(ctx context.Context) error {
	var err error
	r.serveOnce.Do(func() {
		r.served = true
		err = r.serve(ctx)
	})
	return err
}

func (r *Runtime) serve(ctx context.Context) error {
	logger.Info("starting offline cache runtime", "origin", r.cfg.Origin.String())

	if r.watcher != nil {
		if err := r.watcher.Start(ctx); err != nil {
			logger.Warn("manifest watcher not started", logger.Err(err))
		}
	}

	errChan := make(chan error, 3)
	for _, s := range r.servers() {
		go func() {
			if err := s.server.Start(ctx); err != nil {
				logger.Error("server error", "server", s.name, logger.Err(err))
				errChan <- fmt.Errorf("%s server error: %w", s.name, err)
			}
		}()
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received", "reason", ctx.Err())
		shutdownErr = ctx.Err()
	case err := <-errChan:
		logger.Error("server failed, initiating shutdown", logger.Err(err))
		shutdownErr = err
	}

	r.shutdown()

	logger.Info("offline cache runtime stopped")
	return shutdownErr
}

// shutdown stops the watcher first (no more registrations), then the servers,
// then closes the storage.
func (r *Runtime) shutdown() {
	if r.watcher != nil {
		logger.Debug("stopping manifest watcher")
		r.watcher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer cancel()
	for _, s := range r.servers() {
		logger.Debug("stopping server", "server", s.name)
		if err := s.server.Stop(ctx); err != nil {
			logger.Error("server shutdown error", "server", s.name, logger.Err(err))
		}
	}

	// Wait for in-flight registration before closing storage.
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.cfg.Storage.Close(); err != nil {
		logger.Error("failed to close cache storage", logger.Err(err))
	}
}
