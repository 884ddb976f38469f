package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/offlinecache/internal/buildinfo"
	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/internal/telemetry"
	"github.com/marmos91/offlinecache/pkg/api"
	"github.com/marmos91/offlinecache/pkg/config"
	"github.com/marmos91/offlinecache/pkg/coordinator"
	"github.com/marmos91/offlinecache/pkg/manifest"
	"github.com/marmos91/offlinecache/pkg/proxy"
	"github.com/marmos91/offlinecache/pkg/runtime"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the offline cache daemon",
	Long: `Start the offline cache daemon with the specified configuration.

By default the daemon runs in the background. Use --foreground to run it in
the foreground for debugging or under a process supervisor.

When manifest.path is configured the manifest is installed at startup. If the
origin is unreachable but the cache already holds that manifest, the daemon
resumes serving it offline.

Examples:
  # Start in background (default)
  offlinecache start

  # Start in foreground
  offlinecache start --foreground

  # Start with custom config file
  offlinecache start --config /etc/offlinecache/config.yaml

  # Start with environment variable overrides
  OFFLINECACHE_LOGGING_LEVEL=DEBUG offlinecache start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/offlinecache/offlinecache.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/offlinecache/offlinecache.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer flush()

	logger.Info("offlinecache starting", "build", buildinfo.Version, "config", getConfigSource(GetConfigFile()),
		"level", cfg.Logging.Level, "format", cfg.Logging.Format)

	if pidFile != "" {
		if err := writePID(pidFile); err != nil {
			return err
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}

	logger.Info("offline cache is running", "proxy_port", cfg.Proxy.Port)

	// Serve returns once ctx is cancelled by a signal or a server fails.
	err = rt.Serve(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info("offline cache stopped gracefully")
		return nil
	default:
		logger.Error("runtime error", logger.Err(err))
		return err
	}
}

// initObservability starts tracing and profiling. The returned func flushes
// both and never fails.
func initObservability(ctx context.Context, cfg *config.Config) (func(), error) {
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "offlinecache",
		ServiceVersion: buildinfo.Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	stopProfiling, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "offlinecache",
		ServiceVersion: buildinfo.Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	return func() {
		if err := stopProfiling(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}, nil
}

// buildRuntime opens the storage, installs the configured manifest and
// attaches the proxy, API and metrics servers. On error the storage is
// closed again.
func buildRuntime(ctx context.Context, cfg *config.Config) (rt *runtime.Runtime, err error) {
	origin, err := manifest.ParseOrigin(cfg.Origin.URL)
	if err != nil {
		return nil, err
	}

	storage, metrics, err := config.InitializeStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache storage: %w", err)
	}
	defer func() {
		if err != nil {
			_ = storage.Close()
		}
	}()

	rt, err = runtime.New(runtime.Config{
		Origin:          origin,
		Partitions:      cfg.Partitions,
		Storage:         storage,
		Fetcher:         config.CreateFetcher(cfg.Fetch),
		Metrics:         metrics.Coordinator,
		Concurrency:     cfg.Fetch.Concurrency,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize runtime: %w", err)
	}

	if path := cfg.Manifest.Path; path != "" {
		if err := installManifest(ctx, rt, path); err != nil {
			return nil, err
		}
		if cfg.Manifest.Watch {
			rt.SetManifestWatcher(runtime.NewManifestWatcher(rt, path, cfg.Manifest.Debounce))
		}
	} else {
		logger.Info("no manifest configured, waiting for a deploy through the API")
	}

	proxyServer, err := proxy.NewServer(cfg.Proxy, origin, rt)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy server: %w", err)
	}
	rt.SetProxyServer(proxyServer)

	if cfg.ControlPlane.IsEnabled() {
		if cfg.ControlPlane.Token == "" {
			logger.Warn("control plane API has no token; anyone who can reach it may deploy or reset", "port", cfg.ControlPlane.Port)
		}
		rt.SetAPIServer(api.NewServer(cfg.ControlPlane, rt))
	}

	if metrics.Server != nil {
		rt.SetMetricsServer(metrics.Server)
	} else {
		logger.Info("metrics collection disabled")
	}
	return rt, nil
}

// installManifest registers the manifest at path. A daemon restarted while
// the origin is down first resumes the manifest it already cached, so
// install failures are logged rather than fatal.
func installManifest(ctx context.Context, rt *runtime.Runtime, path string) error {
	m, err := manifest.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	resumed, err := rt.Resume(ctx, m)
	if err != nil {
		logger.Warn("could not resume cached manifest", logger.Err(err))
	}

	info, err := rt.Register(ctx, m)
	switch {
	case err == nil:
		logger.Info("manifest installed", logger.KeyVersion, info.ID, "state", info.State, "resumed", resumed)
	case errors.Is(err, coordinator.ErrActivationReset):
		logger.Warn("manifest activated with reset caches", logger.Err(err))
	case resumed:
		logger.Warn("manifest install failed, serving the resumed version", logger.Err(err))
	default:
		logger.Warn("manifest install failed, proxying to the origin until a deploy succeeds", logger.Err(err))
	}
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
