package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tpn/displaylauncher/internal/adapter/adb"
	"github.com/tpn/displaylauncher/internal/adapter/catalog"
	"github.com/tpn/displaylauncher/internal/adapter/httpserver"
	"github.com/tpn/displaylauncher/internal/adapter/metrics"
	"github.com/tpn/displaylauncher/internal/app"
	"github.com/tpn/displaylauncher/internal/domain"
	"github.com/tpn/displaylauncher/internal/platform/config"
	"github.com/tpn/displaylauncher/internal/platform/logging"
	"github.com/tpn/displaylauncher/internal/platform/retry"
)

const shutdownTimeout = 10 * time.Second

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// setupRegistry picks the platform backend and returns it together with a
// readiness probe for it.
func setupRegistry(cfg *config.Config, clock clockwork.Clock) (domain.PackageManager, httpserver.HealthCheck, error) {
	switch cfg.RegistryBackend {
	case config.BackendCatalog:
		device, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			return nil, httpserver.HealthCheck{}, err
		}
		slog.Info("Using catalog registry", "file", cfg.CatalogFile, "device", device.Name())
		probe := httpserver.HealthCheck{Name: "registry", Check: func(ctx context.Context) error {
			_, err := device.ListInstalledApplications(ctx)
			return err
		}}
		return device, probe, nil
	default:
		client := adb.New(adb.Config{
			Path:    cfg.ADBPath,
			Serial:  cfg.ADBSerial,
			Timeout: cfg.ADBTimeout,
			Retry: retry.Policy{
				MaxAttempts:    3,
				InitialBackoff: 500 * time.Millisecond,
				MaxBackoff:     2 * time.Second,
				Clock:          clock,
			},
		}, adb.ExecRunner())
		slog.Info("Using adb registry", "adb", cfg.ADBPath, "serial", cfg.ADBSerial)
		return client, httpserver.HealthCheck{Name: "registry", Check: client.Ping}, nil
	}
}

func stagingCheck(dir string) httpserver.HealthCheck {
	return httpserver.HealthCheck{Name: "staging", Check: func(context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}}
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "backend", cfg.RegistryBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	gatewayMetrics := metrics.NewGatewayMetrics(reg)

	pm, registryCheck, err := setupRegistry(cfg, clock)
	if err != nil {
		slog.Error("Failed to set up registry", "error", err)
		os.Exit(1)
	}

	stager, err := app.NewStager(cfg.StagingDir, cfg.StagingRetention, cfg.InstallCleanupDelay, clock, gatewayMetrics)
	if err != nil {
		slog.Error("Failed to set up staging directory", "error", err)
		os.Exit(1)
	}

	gateway := app.NewGateway(pm, stager, app.GatewayOptions{
		HostPackage:   cfg.HostPackage,
		Policy:        domain.FilterPolicy(cfg.FilterPolicy),
		CaseSensitive: cfg.SortCaseSensitive,
	}, gatewayMetrics)

	srv, err := httpserver.NewServer(cfg, gateway, stager, reg, []httpserver.HealthCheck{
		registryCheck,
		stagingCheck(stager.Dir()),
	})
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.NewSweeper(gateway, cfg.SweepInterval, clock).Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	supervisor := app.NewSupervisor("http-server", retry.RestartPolicy{
		MaxAttempts: cfg.RestartMaxAttempts,
		Backoff:     cfg.RestartBackoff,
		StableAfter: cfg.RestartStableAfter,
	}, clock, gatewayMetrics)

	runErr := supervisor.Run(ctx, func(context.Context) error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	stop()
	wg.Wait()

	if runErr != nil {
		slog.Error("Server error", "error", runErr)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}
