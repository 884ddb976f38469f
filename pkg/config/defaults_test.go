package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/offlinecache/pkg/coordinator"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_ControlPlane(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ControlPlane.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.ControlPlane.Port)
	}
	if cfg.ControlPlane.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default read timeout 10s, got %v", cfg.ControlPlane.ReadTimeout)
	}
	if cfg.ControlPlane.WriteTimeout != 5*time.Minute {
		t.Errorf("Expected default write timeout 5m, got %v", cfg.ControlPlane.WriteTimeout)
	}
	if !cfg.ControlPlane.IsEnabled() {
		t.Error("Expected control plane enabled by default")
	}
}

func TestApplyDefaults_Proxy(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Proxy.Port != 8000 {
		t.Errorf("Expected default proxy port 8000, got %d", cfg.Proxy.Port)
	}
	if cfg.Proxy.WriteTimeout != 60*time.Second {
		t.Errorf("Expected default proxy write timeout 60s, got %v", cfg.Proxy.WriteTimeout)
	}
}

func TestApplyDefaults_Storage(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)

	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Storage.Type != "badger" {
		t.Errorf("Expected default storage type 'badger', got %q", cfg.Storage.Type)
	}
	if want := filepath.Join(xdg, "offlinecache", "cache"); cfg.Storage.Path != want {
		t.Errorf("Expected default storage path %q, got %q", want, cfg.Storage.Path)
	}

	mem := &Config{Storage: StorageConfig{Type: "MEMORY"}}
	ApplyDefaults(mem)
	if mem.Storage.Type != "memory" || mem.Storage.Path != "" {
		t.Errorf("Expected memory storage without path, got %+v", mem.Storage)
	}
}

func TestApplyDefaults_PartitionsAndFetch(t *testing.T) {
	cfg := &Config{Partitions: coordinator.Partitions{Content: "my-app"}}
	ApplyDefaults(cfg)

	def := coordinator.DefaultPartitions()
	if cfg.Partitions.Staging != def.Staging || cfg.Partitions.Manifest != def.Manifest {
		t.Errorf("Expected default staging and manifest partitions, got %+v", cfg.Partitions)
	}
	if cfg.Partitions.Content != "my-app" {
		t.Errorf("Expected explicit content partition preserved, got %q", cfg.Partitions.Content)
	}
	if cfg.Fetch.Timeout != DefaultFetchTimeout {
		t.Errorf("Expected default fetch timeout, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Manifest.Debounce != 250*time.Millisecond {
		t.Errorf("Expected default debounce 250ms, got %v", cfg.Manifest.Debounce)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	disabled := &Config{}
	ApplyDefaults(disabled)
	if disabled.Metrics.Port != 0 {
		t.Errorf("Expected no metrics port while disabled, got %d", disabled.Metrics.Port)
	}

	enabled := &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(enabled)
	if enabled.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", enabled.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/offlinecache.log",
		},
		ShutdownTimeout: 60 * time.Second,
		Fetch: FetchConfig{
			Concurrency: 2,
		},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' to be preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/offlinecache.log" {
		t.Errorf("Expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 60*time.Second {
		t.Errorf("Expected explicit timeout 60s to be preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Fetch.Concurrency != 2 {
		t.Errorf("Expected explicit concurrency to be preserved, got %d", cfg.Fetch.Concurrency)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestGetDefaultConfig_HasRequiredFields(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level == "" {
		t.Error("Default config missing logging level")
	}
	if cfg.Origin.URL == "" {
		t.Error("Default config missing origin")
	}
	if cfg.Storage.Path == "" {
		t.Error("Default config missing storage path")
	}
	if cfg.Partitions == (coordinator.Partitions{}) {
		t.Error("Default config missing partitions")
	}
}
