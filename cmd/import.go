package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bridgectl/internal/bridge"
	"bridgectl/internal/manifest"
	"bridgectl/internal/resource"
)

var (
	importType  string
	importForce bool
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import NAME...",
		Short: "Write manifests for existing resources",
		Long: `Observes existing resources and writes a manifest for each into the
manifest directory, capturing their current tags. The manifests set
allowExisting so that applying them is a no-op.

An existing manifest is only overwritten with --force.`,
		Example: `  bridgectl import br-int
  bridgectl import br-ex br-tun --force`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
	cmd.Flags().StringVar(&importType, "type", bridge.TypeName, "Resource type")
	cmd.Flags().BoolVar(&importForce, "force", false, "Overwrite existing manifests")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer application.Close()
	services := application.Services()

	if _, err := services.Registry.Reconciler(importType); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	for _, name := range args {
		// A manifest that fails to parse still belongs to the user.
		if _, err := services.Store.Get(importType, name); !manifest.IsNotFound(err) && !importForce {
			return fmt.Errorf("manifest for %s/%s already exists at %s (use --force to overwrite)", importType, name, services.Store.Path(importType, name))
		}

		observed, err := services.Registry.Observe(ctx, importType, name)
		if err != nil {
			return fmt.Errorf("failed to observe %s: %w", name, err)
		}
		if !observed.Exists {
			return fmt.Errorf("%s %s does not exist", importType, name)
		}

		m := manifest.FromSpec(importType, resource.Spec{
			Name:          name,
			Present:       true,
			Tags:          observed.Tags,
			AllowExisting: true,
		})
		if err := services.Store.Save(m); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s/%s to %s\n", importType, name, services.Store.Path(importType, name))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newImportCmd())
}
