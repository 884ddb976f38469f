// Package httpserver runs the daemon's HTTP listeners (proxy, control plane,
// metrics) with a shared start/stop lifecycle.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/marmos91/offlinecache/internal/logger"
)

// DefaultShutdownTimeout bounds the graceful stop triggered by a cancelled
// Start context.
const DefaultShutdownTimeout = 5 * time.Second

// Options configures a Server. Zero timeouts leave the net/http default.
type Options struct {
	// Name labels log lines and errors, e.g. "proxy".
	Name string

	// Addr is the listen address. Port 0 picks a free port; see Addr().
	Addr string

	Handler http.Handler

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	ShutdownTimeout time.Duration
}

// Server is an http.Server that can be started once and stopped from
// either its context or Stop.
type Server struct {
	name            string
	port            int
	srv             *http.Server
	shutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener

	stopOnce sync.Once
	stopErr  error
}

// New creates a stopped server.
func New(opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	port := 0
	if _, p, err := net.SplitHostPort(opts.Addr); err == nil {
		port, _ = strconv.Atoi(p)
	}
	return &Server{
		name: opts.Name,
		port: port,
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           opts.Handler,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
		},
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Start listens and serves until ctx is cancelled, Stop is called or the
// listener fails. A graceful stop returns nil.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("%s server listen: %w", s.name, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	logger.Info(s.name+" server listening", "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		// ctx is already cancelled, so shutdown gets its own deadline.
		stopCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		err := s.Stop(stopCtx)
		<-serveErr
		return err
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server failed: %w", s.name, err)
	}
}

// Stop shuts the server down gracefully. Later calls return the first
// result.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		if err := s.srv.Shutdown(ctx); err != nil {
			s.stopErr = fmt.Errorf("%s server shutdown: %w", s.name, err)
			logger.Error(s.name+" server shutdown error", logger.Err(err))
			return
		}
		logger.Info(s.name + " server stopped")
	})
	return s.stopErr
}

// Port returns the configured port (0 when the OS picks one).
func (s *Server) Port() int {
	return s.port
}

// Addr returns the bound address once listening, or "".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
