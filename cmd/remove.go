package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRemoveCmd creates the 'remove' subcommand, which deletes a worker
// script remotely and drops it from the local registry.
func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <worker-name>",
		Short: "Delete a worker remotely and drop it from the registry",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemoveCommand,
	}
	return cmd
}

func runRemoveCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	name := args[0]

	if err := appInstance.GetClient().DeleteScript(cmd.Context(), name); err != nil {
		return err
	}

	reg, err := appInstance.GetStore().Load(cmd.Context())
	if err != nil {
		return err
	}
	if reg.Remove(name) {
		if err := appInstance.GetStore().Save(cmd.Context(), reg); err != nil {
			return err
		}
	} else {
		appInstance.GetLogger().Warn("worker was not tracked in the registry", zap.String("worker", name))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", name)
	return nil
}
