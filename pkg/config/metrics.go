package config

import (
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/metrics"
)

// MetricsResult holds what InitializeMetrics created. Both fields are nil
// when metrics are disabled.
type MetricsResult struct {
	Server      *metrics.Server
	Coordinator coordinator.Metrics
}

// InitializeMetrics creates the registry, the metrics server and the
// coordinator metrics when cfg.Metrics.Enabled is set.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		return MetricsResult{}
	}
	metrics.InitRegistry()
	return MetricsResult{
		Server:      metrics.NewServer(cfg.Metrics.Port),
		Coordinator: metrics.NewCoordinatorMetrics(),
	}
}
