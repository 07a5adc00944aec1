package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/internal/telemetry"
	"github.com/marmos91/telebox/pkg/config"
	"github.com/marmos91/telebox/pkg/gateway"

	// Registers the Prometheus collectors
	_ "github.com/marmos91/telebox/pkg/metrics/prometheus"
)

var (
	foreground bool
	pidFile    string
	logFile    string
	noWatch    bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Telebox gateway",
	Long: `Start the Telebox gateway with the specified configuration.

By default the gateway runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or under a process supervisor.

The config file is watched while running: whitelist mode and the log level
are applied on save, other settings need a restart.

Examples:
  # Start in background (default)
  telebox start

  # Start in foreground
  telebox start --foreground

  # Start with a custom config file
  telebox start --config /etc/telebox/config.yaml

  # Override settings from the environment
  TELEBOX_LOGGING_LEVEL=DEBUG TELEBOX_POLICY_WHITELIST_MODE=true telebox start -f`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/telebox/telebox.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/telebox/telebox.log)")
	startCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the config file on change")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	// A missing config file is fine in foreground mode: containers
	// configure everything through TELEBOX_* variables.
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "telebox",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "telebox",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Telebox starting", "version", Version, "commit", Commit)
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}
	if cfg.Metrics.Enabled {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	}

	gw, err := gateway.New(ctx, cfg, gateway.Options{})
	if err != nil {
		return err
	}

	if path := watchPath(); path != "" && !noWatch {
		if err := config.Watch(path, gw.Apply); err != nil {
			logger.Warn("Config file watch disabled", "path", path, logger.Err(err))
		}
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			gw.Close()
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- gw.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Gateway is running. Press Ctrl+C to stop.", "port", cfg.Server.Port)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Gateway shutdown error", logger.Err(err))
			return err
		}
		logger.Info("Gateway stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Gateway error", logger.Err(err))
			return err
		}
		logger.Info("Gateway stopped")
	}
	return nil
}

// watchPath is the config file to watch, or "" when running on defaults.
func watchPath() string {
	if GetConfigFile() != "" {
		return GetConfigFile()
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return ""
}
