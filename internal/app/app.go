// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/edgefleet/fleetctl/internal/config"
	"github.com/edgefleet/fleetctl/internal/logging"
	"github.com/edgefleet/fleetctl/internal/progress"
	"github.com/edgefleet/fleetctl/internal/progress/sinks"
	"github.com/edgefleet/fleetctl/internal/provider"
	"github.com/edgefleet/fleetctl/internal/registry"
	"github.com/edgefleet/fleetctl/internal/script"
)

// App holds the shared, long-lived services every command uses: the
// logger, config, credentials, registry store, provider client, script
// source, and progress recorder. It is initialized once at startup and
// injected into subcommands via the command context.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    registry.Store
	client   *provider.Client
	source   script.Source
	recorder *progress.Recorder
	metrics  *prometheus.Registry
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetStore exposes the configured registry store.
func (a *App) GetStore() registry.Store {
	return a.store
}

// GetClient returns the provider API client.
func (a *App) GetClient() *provider.Client {
	return a.client
}

// GetSource returns the worker script payload loaded at startup.
func (a *App) GetSource() script.Source {
	return a.source
}

// GetRecorder returns the progress recorder for deployment runs.
func (a *App) GetRecorder() *progress.Recorder {
	return a.recorder
}

// GetMetrics returns the Prometheus registry the progress sink reports to.
func (a *App) GetMetrics() *prometheus.Registry {
	return a.metrics
}

// NewApp loads configuration and secrets and initializes every service.
// All of these are startup preconditions: any failure here terminates the
// process before a single network call is made.
func NewApp(_ context.Context, cfgPath, secretsPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	creds, err := config.LoadCredentials(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	store, err := registry.NewFileStore(cfg.Fleet.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("initialize registry store: %w", err)
	}

	source, err := script.Load(cfg.Fleet.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("load worker script: %w", err)
	}

	client := provider.NewClient(cfg.Provider.APIBase, creds.AccountID, creds.APIToken, cfg.RequestTimeout(), logger)

	metrics := prometheus.NewRegistry()
	promSink, err := sinks.NewPrometheusSink(metrics)
	if err != nil {
		return nil, fmt.Errorf("initialize metrics sink: %w", err)
	}
	recorder := progress.NewRecorder(logger, sinks.NewLogSink(logger), promSink)

	logger.Info("application services initialized",
		zap.Int("workers", cfg.Fleet.Workers),
		zap.String("registry", cfg.Fleet.RegistryPath),
		zap.String("script", source.FileName),
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		client:   client,
		source:   source,
		recorder: recorder,
		metrics:  metrics,
	}, nil
}

// Close shuts the services down. Flushing the logger buffer is best
// effort; logging itself may be the thing that is failing.
func (a *App) Close() {
	a.recorder.Close(context.Background())
	_ = a.logger.Sync()
}
