package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgefleet/fleetctl/internal/deploy"
	"github.com/edgefleet/fleetctl/internal/keys"
)

// newDeployCmd creates and configures the 'deploy' subcommand, the main
// provisioning loop of the tool.
func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the configured worker fleet",
		Long: `Deploys workers prefix-1 through prefix-N sequentially. Existing
workers keep their API key; new workers get a freshly generated one. The
local registry is updated with the public URL of every worker that
deployed successfully. Individual deploy failures are logged and do not
fail the run.`,

		RunE: runDeployCommand,
	}
	return cmd
}

func runDeployCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	cfg := appInstance.GetConfig()
	deployer := deploy.New(
		appInstance.GetClient(),
		keys.NewRandomGenerator(),
		appInstance.GetStore(),
		appInstance.GetRecorder(),
		appInstance.GetLogger(),
		deploy.Config{
			Workers:     cfg.Fleet.Workers,
			NamePrefix:  cfg.Fleet.NamePrefix,
			ZoneHost:    cfg.Provider.ZoneHost,
			BindingName: cfg.Provider.BindingName,
		},
	)

	res, _, err := deployer.Run(cmd.Context(), appInstance.GetSource())
	if err != nil {
		return err
	}

	// Per-worker failures are reported, not fatal; the run still exits 0.
	fmt.Fprintf(cmd.OutOrStdout(), "deployed %d/%d workers (%d failed, %d new keys)\n",
		res.Deployed, res.Attempted, res.Failed, res.KeysGenerated)
	return nil
}
