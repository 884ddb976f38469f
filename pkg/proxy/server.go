package proxy

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/offlinecache/internal/httpserver"
	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/pkg/manifest"
)

// Server is the proxy HTTP server.
type Server struct {
	*httpserver.Server
}

// NewServer creates a proxy server in a stopped state.
func NewServer(cfg Config, origin manifest.Origin, fetcher Fetcher) (*Server, error) {
	cfg.ApplyDefaults()

	router, err := NewRouter(origin, fetcher)
	if err != nil {
		return nil, err
	}
	return &Server{httpserver.New(httpserver.Options{
		Name:         "proxy",
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	})}, nil
}

// NewRouter wires the proxy handler behind the standard middleware. Every
// path reaches the handler.
func NewRouter(origin manifest.Origin, fetcher Fetcher) (http.Handler, error) {
	h, err := NewHandler(origin, fetcher)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Handle("/*", h)
	return r, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		source := ww.Header().Get(HeaderSource)
		if source == "" {
			source = "passthrough"
		}
		logger.Debug("proxy request completed",
			logger.KeyRequestID, middleware.GetReqID(r.Context()),
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeySource, source,
			logger.KeyBytes, ww.BytesWritten(),
			logger.KeyDurationMs, logger.Duration(start),
		)
	})
}
