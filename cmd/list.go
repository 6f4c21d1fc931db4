package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/edgefleet/fleetctl/internal/api"
)

// newListCmd creates the 'list' subcommand, which prints the local
// registry without touching the network.
func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workers tracked in the local registry",
		RunE:  runListCommand,
	}
	return cmd
}

func runListCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	reg, err := appInstance.GetStore().Load(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKEY\tURL")
	for _, rec := range reg.Workers {
		fmt.Fprintf(w, "%s\t%s\t%s\n", rec.Name, api.RedactKey(rec.APIKey), rec.PublicURL)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
