package metrics

import "github.com/marmos91/offlinecache/pkg/coordinator"

// NewCoordinatorMetrics returns the Prometheus-backed coordinator metrics, or
// nil when metrics are disabled or the prometheus package is not linked in.
//
//	metrics.InitRegistry()
//	m := metrics.NewCoordinatorMetrics()
//	rt, err := runtime.New(runtime.Config{Metrics: m, ...})
func NewCoordinatorMetrics() coordinator.Metrics {
	if !IsEnabled() || newPrometheusCoordinatorMetrics == nil {
		return nil
	}
	return newPrometheusCoordinatorMetrics()
}

// newPrometheusCoordinatorMetrics is set by pkg/metrics/prometheus during
// package initialization. The indirection keeps this package free of an
// import cycle.
var newPrometheusCoordinatorMetrics func() coordinator.Metrics

// RegisterCoordinatorMetricsConstructor registers the Prometheus coordinator
// metrics constructor.
func RegisterCoordinatorMetricsConstructor(constructor func() coordinator.Metrics) {
	newPrometheusCoordinatorMetrics = constructor
}
