package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ip-witness/pkg/api"
	"ip-witness/pkg/config"
	"ip-witness/pkg/logging"
	"ip-witness/pkg/resolver"
	"ip-witness/pkg/telemetry"
)

var (
	configPath  = flag.String("config", "config.yml", "Path to configuration file")
	watchConfig = flag.Bool("watch-config", false, "Reload configuration on file changes")
	version     = "dev"
	buildTime   = "unknown"
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	logger.Info("ip-witness starting",
		"version", version,
		"build_time", buildTime,
	)

	ctx := context.Background()
	telem, err := telemetry.New(ctx, &cfg.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	metrics, err := telem.InitMetrics()
	if err != nil {
		logger.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	// Direct upstream queries when configured, the OS resolver otherwise
	var res resolver.Resolver
	if len(cfg.Resolver.Upstreams) > 0 {
		res = resolver.NewUpstream(&cfg.Resolver, logger)
	} else {
		res = resolver.NewSystem(logger)
	}

	apiCfg, err := api.FromAppConfig(cfg, res, metrics, logger, version)
	if err != nil {
		logger.Error("Invalid server configuration", "error", err)
		os.Exit(1)
	}
	server := api.New(apiCfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(serverCtx); err != nil {
			errChan <- err
		}
	}()

	if *watchConfig {
		watcher, err := config.NewWatcher(*configPath, logger.Logger)
		if err != nil {
			logger.Warn("Config watcher unavailable", "error", err)
		} else {
			watcher.OnChange(func(newCfg *config.Config) {
				logger.Info("Configuration changed",
					"base_url", newCfg.Resolver.BaseURL,
					"note", "listen address changes require a restart",
				)
			})
			go func() {
				if err := watcher.Start(serverCtx); err != nil {
					logger.Error("Config watcher stopped", "error", err)
				}
			}()
		}
	}

	hostname, _ := cfg.Hostname()
	logger.Info("ip-witness is running",
		"address", cfg.Server.ListenAddress,
		"hostname", hostname,
		"trusted_hops", cfg.Proxy.TrustedHops,
	)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
		serverCancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during server shutdown", "error", err)
		}

		if err := telem.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during telemetry shutdown", "error", err)
		}

		logger.Info("ip-witness stopped")

	case err := <-errChan:
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
