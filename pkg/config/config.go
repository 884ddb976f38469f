// Package config loads and validates the offline cache daemon configuration.
package config

import (
	"time"

	"github.com/marmos91/offlinecache/internal/bytesize"
	"github.com/marmos91/offlinecache/pkg/api"
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/proxy"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "OFFLINECACHE"

// Config is the daemon configuration. Values come from the config file,
// overridden by OFFLINECACHE_* environment variables, with ApplyDefaults
// filling whatever is left unset.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout bounds the graceful stop of every server.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Origin is the web application the cache serves offline
	Origin OriginConfig `mapstructure:"origin" yaml:"origin"`

	// Manifest locates the Resource Table installed at startup
	Manifest ManifestConfig `mapstructure:"manifest" yaml:"manifest"`

	// Storage selects the cache storage backend
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Partitions names the staging, content and manifest partitions
	Partitions coordinator.Partitions `mapstructure:"partitions" yaml:"partitions"`

	// Fetch controls requests made to the origin
	Fetch FetchConfig `mapstructure:"fetch" yaml:"fetch"`

	// Proxy is the front end browsers talk to
	Proxy proxy.Config `mapstructure:"proxy" yaml:"proxy"`

	// ControlPlane is the management API used by offlinecachectl
	ControlPlane api.APIConfig `mapstructure:"controlplane" yaml:"controlplane"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig mirrors logger.Config. Level is normalized to upper case.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"` // stdout, stderr or a file
}

// TelemetryConfig exports traces over OTLP/gRPC. Spans cover coordinator
// lifecycle steps and proxied requests.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"` // host:port
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig pushes continuous profiles to a Pyroscope server.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"` // see telemetry.ProfileTypeNames
}

// OriginConfig identifies the web application.
type OriginConfig struct {
	// URL is the scheme and authority of the application, e.g.
	// "https://app.example.com". A path, query or fragment is rejected.
	URL string `mapstructure:"url" validate:"required,url" yaml:"url"`
}

// ManifestConfig locates the Resource Table.
type ManifestConfig struct {
	// Path is a JSON manifest installed at startup. Empty starts the daemon
	// without a coordinator; deploys then go through the API.
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// Watch reinstalls the manifest whenever the file changes.
	Watch bool `mapstructure:"watch" yaml:"watch"`

	// Debounce is how long writes must settle before a reload.
	// Default: 250ms
	Debounce time.Duration `mapstructure:"debounce" validate:"omitempty,gte=0" yaml:"debounce"`
}

// StorageConfig selects the cache storage backend.
type StorageConfig struct {
	// Type is "badger" (persistent) or "memory".
	// Default: badger
	Type string `mapstructure:"type" validate:"required,oneof=badger memory" yaml:"type"`

	// Path is the BadgerDB directory. Required for badger.
	Path string `mapstructure:"path" validate:"required_if=Type badger" yaml:"path,omitempty"`

	// BlockCacheSize overrides Badger's block cache size.
	// Supports human-readable formats: "256Mi", "1GB"
	BlockCacheSize bytesize.ByteSize `mapstructure:"block_cache_size" yaml:"block_cache_size,omitempty"`
}

// FetchConfig controls requests made to the origin.
type FetchConfig struct {
	// Timeout bounds each origin request. Zero means no limit.
	// Default: 30s
	Timeout time.Duration `mapstructure:"timeout" validate:"omitempty,gte=0" yaml:"timeout"`

	// Concurrency is how many core resources are fetched in parallel.
	// Default: 8
	Concurrency int `mapstructure:"concurrency" validate:"omitempty,min=1,max=256" yaml:"concurrency"`

	// UserAgent is sent with every origin request.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent,omitempty"`

	// Headers are added to every origin request.
	Headers map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
}

// MetricsConfig exposes /metrics. Nothing is registered while disabled.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"` // default 9090
}

