package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep resources converged as manifests change",
		Long: `Converges every manifest under the manifest directory, then watches the
directory and converges each resource again whenever its manifest changes.

Resources are also re-converged periodically (reconciler.resyncInterval) to
correct drift made outside bridgectl. Failed passes are retried with
exponential backoff. Removing a manifest stops tracking the resource but
leaves the bridge in place; set "ensure: absent" to remove it.

watch runs until interrupted (SIGINT or SIGTERM). Under systemd it supports
Type=notify and WatchdogSec.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	return application.Run(commandContext(cmd))
}

func init() {
	rootCmd.AddCommand(newWatchCmd())
}
