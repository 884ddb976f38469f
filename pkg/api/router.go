package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/pkg/api/handlers"
	apimw "github.com/marmos91/offlinecache/pkg/api/middleware"
)

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET  /health                            liveness
//   - GET  /health/ready                      readiness
//   - GET  /api/v1/status                     runtime snapshot
//   - POST /api/v1/messages                   deliver skipWaiting / downloadOffline
//   - POST /api/v1/reset                      delete every partition
//   - GET  /api/v1/partitions/{name}/entries  list request keys
//   - POST /api/v1/manifest                   register a manifest
func NewRouter(rt handlers.Runtime, token string, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	health := handlers.NewHealthHandler(rt)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	coord := handlers.NewCoordinatorHandler(rt)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apimw.TokenAuth(token))
		r.Get("/status", coord.Status)
		r.Post("/messages", coord.PostMessage)
		r.Post("/reset", coord.Reset)
		r.Get("/partitions/{name}/entries", coord.Entries)
		r.Post("/manifest", coord.Deploy)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs each API request with the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		lc := logger.NewLogContext(r.RemoteAddr)
		lc.RequestID = requestID
		lc.Method = r.Method
		ctx := logger.WithContext(r.Context(), lc)

		logger.DebugCtx(ctx, "API request started", logger.KeyPath, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.InfoCtx(ctx, "API request completed",
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeyBytes, ww.BytesWritten(),
			logger.KeyDurationMs, logger.Duration(start),
		)
	})
}
