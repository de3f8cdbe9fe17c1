package cmd

import (
	"github.com/spf13/cobra"
)

var planFiles []string

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [-f FILE|DIR]...",
		Short: "Show the changes apply would make",
		Long: `Observes every resource described by the given manifests and prints
the ovs-vsctl changes an apply would issue, without changing anything.

Without -f, every manifest under the configured manifest directory is planned.`,
		Example: `  bridgectl plan
  bridgectl plan -f bridges/ -o yaml`,
		Args: cobra.NoArgs,
		RunE: runPlan,
	}
	cmd.Flags().StringSliceVarP(&planFiles, "filename", "f", nil, "Manifest file or directory (repeatable)")
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()
	services := application.Services()

	manifests, err := loadManifests(services, planFiles)
	if err != nil {
		return err
	}
	return formatter.FormatPlan(planManifests(commandContext(cmd), services, manifests))
}

func init() {
	rootCmd.AddCommand(newPlanCmd())
}
