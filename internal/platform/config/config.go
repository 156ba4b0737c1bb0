package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/tpn/displaylauncher/internal/domain"
	"go-simpler.org/env"
)

const (
	BackendADB     = "adb"
	BackendCatalog = "catalog"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"9091"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	HostPackage       string `env:"HOST_PACKAGE" default:"com.tpn.displaylauncher"`
	FilterPolicy      string `env:"FILTER_POLICY" default:"strict"`
	SortCaseSensitive bool   `env:"SORT_CASE_SENSITIVE" default:"false"`

	RegistryBackend string        `env:"REGISTRY_BACKEND" default:"adb"`
	ADBPath         string        `env:"ADB_PATH" default:"adb"`
	ADBSerial       string        `env:"ADB_SERIAL"`
	ADBTimeout      time.Duration `env:"ADB_TIMEOUT" default:"15s"`
	CatalogFile     string        `env:"CATALOG_FILE"`

	StagingDir          string        `env:"STAGING_DIR"`
	StagingRetention    time.Duration `env:"STAGING_RETENTION" default:"10m"`
	InstallCleanupDelay time.Duration `env:"INSTALL_CLEANUP_DELAY" default:"5s"`
	SweepInterval       time.Duration `env:"SWEEP_INTERVAL" default:"1m"`
	MaxUploadSize       string        `env:"MAX_UPLOAD_SIZE" default:"256M"`

	RestartMaxAttempts int           `env:"RESTART_MAX_ATTEMPTS" default:"5"`
	RestartBackoff     time.Duration `env:"RESTART_BACKOFF" default:"5s"`
	RestartStableAfter time.Duration `env:"RESTART_STABLE_AFTER" default:"60s"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"10"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"20"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.RegistryBackend {
	case BackendADB:
		if cfg.ADBPath == "" {
			return errors.New("ADB_PATH is required for the adb backend")
		}
	case BackendCatalog:
		if cfg.CatalogFile == "" {
			return errors.New("CATALOG_FILE is required for the catalog backend")
		}
	default:
		return fmt.Errorf("REGISTRY_BACKEND must be %q or %q, got %q", BackendADB, BackendCatalog, cfg.RegistryBackend)
	}

	if _, err := domain.ParseFilterPolicy(cfg.FilterPolicy); err != nil {
		return fmt.Errorf("FILTER_POLICY must be strict or lenient, got %q", cfg.FilterPolicy)
	}

	if cfg.HostPackage == "" {
		return errors.New("HOST_PACKAGE is required")
	}

	if cfg.StagingRetention <= 0 {
		return errors.New("STAGING_RETENTION must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	if cfg.RestartMaxAttempts < 1 {
		return errors.New("RESTART_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}

	return nil
}
