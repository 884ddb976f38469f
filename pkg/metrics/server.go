package metrics

import (
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/offlinecache/internal/httpserver"
)

// DefaultPath is where metrics are exposed.
const DefaultPath = "/metrics"

// Server exposes the registry over HTTP.
type Server struct {
	*httpserver.Server
}

// NewServer creates a metrics server on port. It returns nil when metrics are
// disabled.
func NewServer(port int) *Server {
	return newServer(fmt.Sprintf(":%d", port))
}

func newServer(addr string) *Server {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	r := chi.NewRouter()
	r.Handle(DefaultPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &Server{httpserver.New(httpserver.Options{
		Name:              "metrics",
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	})}
}
