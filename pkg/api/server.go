package api

import (
	"fmt"

	"github.com/marmos91/offlinecache/internal/httpserver"
	"github.com/marmos91/offlinecache/pkg/api/handlers"
)

// Server is the control-plane HTTP server.
type Server struct {
	*httpserver.Server
}

// NewServer creates a stopped control-plane server. Defaults are applied
// here as well so tests can pass a bare APIConfig.
func NewServer(config APIConfig, rt handlers.Runtime) *Server {
	config.ApplyDefaults()

	return &Server{httpserver.New(httpserver.Options{
		Name:         "API",
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      NewRouter(rt, config.Token, config.WriteTimeout),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	})}
}
