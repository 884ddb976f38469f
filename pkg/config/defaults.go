package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/offlinecache/internal/xdg"
	"github.com/marmos91/offlinecache/pkg/api"
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/proxy"
	"github.com/marmos91/offlinecache/pkg/runtime"
)

const (
	// DefaultOrigin is written into generated configuration files.
	DefaultOrigin = "http://localhost:3000"

	// DefaultFetchConcurrency bounds parallel core fetches during install.
	DefaultFetchConcurrency = 8

	// DefaultFetchTimeout bounds each origin request.
	DefaultFetchTimeout = 30 * time.Second
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyManifestDefaults(&cfg.Manifest)
	applyStorageDefaults(&cfg.Storage)
	applyPartitionDefaults(&cfg.Partitions)
	applyFetchDefaults(&cfg.Fetch)
	applyProxyDefaults(&cfg.Proxy)
	applyControlPlaneDefaults(&cfg.ControlPlane)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = runtime.DefaultShutdownTimeout
	}
}

func applyManifestDefaults(cfg *ManifestConfig) {
	if cfg.Debounce == 0 {
		cfg.Debounce = runtime.DefaultDebounce
	}
}

// applyStorageDefaults defaults to a persistent badger store under the
// user's data directory.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	cfg.Type = strings.ToLower(cfg.Type)
	if cfg.Type == "badger" && cfg.Path == "" {
		cfg.Path = DefaultStoragePath()
	}
}

func applyPartitionDefaults(cfg *coordinator.Partitions) {
	def := coordinator.DefaultPartitions()
	if cfg.Staging == "" {
		cfg.Staging = def.Staging
	}
	if cfg.Content == "" {
		cfg.Content = def.Content
	}
	if cfg.Manifest == "" {
		cfg.Manifest = def.Manifest
	}
}

func applyFetchDefaults(cfg *FetchConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultFetchConcurrency
	}
}

func applyProxyDefaults(cfg *proxy.Config) {
	cfg.ApplyDefaults()
}

func applyControlPlaneDefaults(cfg *api.APIConfig) {
	cfg.ApplyDefaults()
}

// applyMetricsDefaults sets the metrics port when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// DefaultStoragePath is the badger directory used when storage.path is
// unset: $XDG_DATA_HOME/offlinecache/cache.
func DefaultStoragePath() string {
	dir, err := xdg.DataDir("offlinecache")
	if err != nil {
		return filepath.Join(os.TempDir(), "offlinecache-cache")
	}
	return filepath.Join(dir, "cache")
}

// GetDefaultConfig returns a Config with all default values applied.
// It is used to generate sample configuration files and in tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Origin: OriginConfig{
			URL: DefaultOrigin,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
