// Package cmd defines and implements the CLI commands for the fleetctl
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edgefleet/fleetctl/internal/app"
	"github.com/edgefleet/fleetctl/internal/config"
	"github.com/edgefleet/fleetctl/internal/progress"
	"github.com/edgefleet/fleetctl/internal/provider"
	"github.com/edgefleet/fleetctl/internal/registry"
	"github.com/edgefleet/fleetctl/internal/script"
)

var (
	cfgFile     string
	secretsFile string
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use. This allows us
// to inject a mock app during tests.
type App interface {
	Close()
	GetConfig() config.Config
	GetLogger() *zap.Logger
	GetStore() registry.Store
	GetClient() *provider.Client
	GetSource() script.Source
	GetRecorder() *progress.Recorder
	GetMetrics() *prometheus.Registry
}

// newApp is the application factory. It's a variable so we can replace it
// with a mock factory in our tests.
var newApp = func(ctx context.Context) (App, error) {
	return app.NewApp(ctx, cfgFile, secretsFile)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleetctl",
		Short: "Provision and track a fleet of serverless workers.",
		Long: `fleetctl provisions a fixed number of named serverless worker
deployments against the provider's management API, assigns each worker a
persistent API key, and maintains a local registry of worker names, keys,
and public URLs.`,

		// Build and inject the application after flags are parsed but
		// before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// Ensure services are shut down after the command finishes.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./fleetctl.yaml)")
	cmd.PersistentFlags().StringVar(&secretsFile, "secrets", "secrets.json", "secrets file with account_id and api_token")

	cmd.AddCommand(newDeployCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// resolveApp retrieves the injected App from the command context.
func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point. Startup-precondition failures (missing
// or malformed config, secrets, script, registry) end the process with
// exit code 1 and a human-readable message.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fleetctl:", err)
		os.Exit(1)
	}
}
